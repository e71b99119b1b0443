package models

import (
	"encoding/json"
	"time"
)

// Link запись короткой ссылки. Ключом служит Slug.
type Link struct {
	Slug      string
	URL       string
	CreatedAt time.Time
	ExpiresAt *time.Time
	Password  *string
	MaxVisits *int
	Visits    int
}

// linkJSON формат хранения записи: времена в миллисекундах Unix,
// отсутствующие поля сериализуются как null.
type linkJSON struct {
	Slug      string  `json:"slug,omitempty"`
	URL       string  `json:"url"`
	Expiry    *int64  `json:"expiry"`
	Password  *string `json:"password"`
	Created   int64   `json:"created"`
	MaxVisits *int    `json:"maxVisits"`
	Visits    int     `json:"visits"`
}

func (l Link) MarshalJSON() ([]byte, error) {
	out := linkJSON{
		Slug:      l.Slug,
		URL:       l.URL,
		Password:  l.Password,
		Created:   l.CreatedAt.UnixMilli(),
		MaxVisits: l.MaxVisits,
		Visits:    l.Visits,
	}
	if l.ExpiresAt != nil {
		ms := l.ExpiresAt.UnixMilli()
		out.Expiry = &ms
	}
	return json.Marshal(out)
}

func (l *Link) UnmarshalJSON(data []byte) error {
	var in linkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*l = Link{
		Slug:      in.Slug,
		URL:       in.URL,
		CreatedAt: time.UnixMilli(in.Created),
		Password:  in.Password,
		MaxVisits: in.MaxVisits,
		Visits:    in.Visits,
	}
	if in.Expiry != nil {
		t := time.UnixMilli(*in.Expiry)
		l.ExpiresAt = &t
	}
	// Пустой пароль равносилен его отсутствию
	if l.Password != nil && *l.Password == "" {
		l.Password = nil
	}
	return nil
}

// HasPassword сообщает, защищена ли ссылка паролем
func (l *Link) HasPassword() bool {
	return l.Password != nil && *l.Password != ""
}

// IsExpired сообщает, истёк ли срок жизни ссылки к моменту now
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// QuotaExhausted сообщает, исчерпан ли лимит переходов
func (l *Link) QuotaExhausted() bool {
	return l.MaxVisits != nil && l.Visits >= *l.MaxVisits
}

// HasQuota сообщает, ограничено ли число переходов
func (l *Link) HasQuota() bool {
	return l.MaxVisits != nil
}

// Clone возвращает независимую копию записи
func (l *Link) Clone() *Link {
	c := *l
	if l.ExpiresAt != nil {
		t := *l.ExpiresAt
		c.ExpiresAt = &t
	}
	if l.Password != nil {
		p := *l.Password
		c.Password = &p
	}
	if l.MaxVisits != nil {
		m := *l.MaxVisits
		c.MaxVisits = &m
	}
	return &c
}

// CreateLinkInput параметры создания ссылки
type CreateLinkInput struct {
	URL       string
	Slug      string
	ExpiresAt *time.Time
	Password  string
	MaxVisits *int
	Token     string
	RemoteIP  string
}

// VerifyInput параметры проверки пароля
type VerifyInput struct {
	Slug     string
	Password string
	Token    string
	RemoteIP string
}

// ResolveStatus итог обращения по короткой ссылке
type ResolveStatus int

const (
	ResolveRedirect ResolveStatus = iota
	ResolvePasswordRequired
)

// Resolution результат Resolve: адрес для редиректа или требование пароля
type Resolution struct {
	Status ResolveStatus
	URL    string // заполняется только для ResolveRedirect
}

// VerifyResult итог проверки пароля. URL заполнен только при Granted.
type VerifyResult struct {
	Granted bool
	URL     string
}
