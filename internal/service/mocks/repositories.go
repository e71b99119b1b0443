package mocks

import (
	"context"
	"sync"

	"github.com/SergeiKhy/gated-shortener/internal/models"
	"github.com/SergeiKhy/gated-shortener/internal/repository"
)

// MockLinkRepository implements repository.LinkRepository for testing.
// Errors can be injected per operation.
type MockLinkRepository struct {
	mu    sync.RWMutex
	links map[string]*models.Link

	GetErr         error
	PutErr         error
	PutIfAbsentErr error
	DeleteErr      error
	ListErr        error
	PingErr        error

	// PutIfAbsentHook runs before PutIfAbsent, used to simulate a racing writer
	PutIfAbsentHook func()

	PutCalls    int
	DeleteCalls int
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links: make(map[string]*models.Link),
	}
}

func (m *MockLinkRepository) Get(ctx context.Context, slug string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	link, exists := m.links[slug]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link.Clone(), nil
}

func (m *MockLinkRepository) Put(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PutCalls++
	if m.PutErr != nil {
		return m.PutErr
	}
	m.links[link.Slug] = link.Clone()
	return nil
}

func (m *MockLinkRepository) PutIfAbsent(ctx context.Context, link *models.Link) (bool, error) {
	if m.PutIfAbsentHook != nil {
		m.PutIfAbsentHook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PutIfAbsentErr != nil {
		return false, m.PutIfAbsentErr
	}
	if _, exists := m.links[link.Slug]; exists {
		return false, nil
	}
	m.links[link.Slug] = link.Clone()
	return true, nil
}

func (m *MockLinkRepository) Delete(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, exists := m.links[slug]; !exists {
		return repository.ErrLinkNotFound
	}
	delete(m.links, slug)
	return nil
}

func (m *MockLinkRepository) List(ctx context.Context) ([]*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	links := make([]*models.Link, 0, len(m.links))
	for _, link := range m.links {
		links = append(links, link.Clone())
	}
	return links, nil
}

func (m *MockLinkRepository) Ping(ctx context.Context) error {
	return m.PingErr
}

// Seed stores a link directly, bypassing validation
func (m *MockLinkRepository) Seed(link *models.Link) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[link.Slug] = link.Clone()
}

// Stored returns the stored copy of a link, or nil
func (m *MockLinkRepository) Stored(slug string) *models.Link {
	m.mu.RLock()
	defer m.mu.RUnlock()
	link, ok := m.links[slug]
	if !ok {
		return nil
	}
	return link.Clone()
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
	m.PutCalls = 0
	m.DeleteCalls = 0
}
