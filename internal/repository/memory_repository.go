package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/SergeiKhy/gated-shortener/internal/models"
)

type memoryRepository struct {
	mu    sync.RWMutex
	links map[string]*models.Link
}

// NewMemoryRepository создаёт хранилище ссылок в памяти процесса.
// Данные теряются при перезапуске.
func NewMemoryRepository() LinkRepository {
	return &memoryRepository{
		links: make(map[string]*models.Link),
	}
}

func (r *memoryRepository) Get(_ context.Context, slug string) (*models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[slug]
	if !ok {
		return nil, ErrLinkNotFound
	}
	return link.Clone(), nil
}

func (r *memoryRepository) Put(_ context.Context, link *models.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.links[link.Slug] = link.Clone()
	return nil
}

func (r *memoryRepository) PutIfAbsent(_ context.Context, link *models.Link) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[link.Slug]; exists {
		return false, nil
	}
	r.links[link.Slug] = link.Clone()
	return true, nil
}

func (r *memoryRepository) Delete(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[slug]; !exists {
		return ErrLinkNotFound
	}
	delete(r.links, slug)
	return nil
}

func (r *memoryRepository) List(_ context.Context) ([]*models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]*models.Link, 0, len(r.links))
	for _, link := range r.links {
		links = append(links, link.Clone())
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	return links, nil
}

func (r *memoryRepository) Ping(context.Context) error {
	return nil
}
