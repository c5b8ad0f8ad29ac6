package application

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeSecrets struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeSecrets() *fakeSecrets {
	return &fakeSecrets{values: map[string]string{}}
}

func (s *fakeSecrets) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", domain.ErrSecretNotFound
	}
	return value, nil
}

func (s *fakeSecrets) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *fakeSecrets) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

type fakeGateway struct {
	mu sync.Mutex

	loginToken domain.SessionToken
	loginErr   error
	logins     int

	deliveryPages   [][]domain.DeliveryRecord
	commissionPages [][]domain.CommissionRecord
	deliveryErr     error
	commissionErr   error

	deliveryFetches   int
	commissionFetches int
}

func (g *fakeGateway) Login(_ context.Context, _, _ string) (domain.SessionToken, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logins++
	if g.loginErr != nil {
		return "", g.loginErr
	}
	return g.loginToken, nil
}

func (g *fakeGateway) FetchDeliveryPage(_ context.Context, _ domain.SessionToken, pageToken string) ([]domain.DeliveryRecord, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deliveryFetches++
	if g.deliveryErr != nil {
		return nil, "", g.deliveryErr
	}
	page, next := pageAt(g.deliveryPages, pageToken)
	return page, next, nil
}

func (g *fakeGateway) FetchCommissionPage(_ context.Context, _ domain.SessionToken, pageToken string) ([]domain.CommissionRecord, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.commissionFetches++
	if g.commissionErr != nil {
		return nil, "", g.commissionErr
	}
	page, next := pageAt(g.commissionPages, pageToken)
	return page, next, nil
}

func pageAt[R any](pages [][]R, pageToken string) ([]R, string) {
	index := 0
	if pageToken != "" {
		index, _ = strconv.Atoi(pageToken)
	}
	if index >= len(pages) {
		return nil, ""
	}
	next := ""
	if index+1 < len(pages) {
		next = strconv.Itoa(index + 1)
	}
	return pages[index], next
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[domain.ChatID]domain.Session
	saveErr  error
	saves    int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[domain.ChatID]domain.Session{}}
}

func (r *fakeSessionRepo) Get(_ context.Context, chatID domain.ChatID) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[chatID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) List(_ context.Context) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]domain.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		list = append(list, session)
	}
	return list, nil
}

func (r *fakeSessionRepo) Save(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.sessions[session.ChatID] = session
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, chatID domain.ChatID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, chatID)
	return nil
}

type fakeTransport struct {
	mu   sync.Mutex
	sent []string
}

func (t *fakeTransport) Send(_ context.Context, _ domain.ChatID, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, text)
	return nil
}

func (t *fakeTransport) messages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.sent))
	copy(out, t.sent)
	return out
}

func (t *fakeTransport) last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sent) == 0 {
		return ""
	}
	return t.sent[len(t.sent)-1]
}
