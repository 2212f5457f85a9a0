package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/storage/models"
	"github.com/health-dashboard/backend/pkg/logger"
)

var ErrNotFound = errors.New("session not found")

// Session is the per-login state every page reads the profile from. It is a
// snapshot of the account taken at login and is not refreshed from the store.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Age       int       `json:"age"`
	Weight    int       `json:"weight"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// Store persists sessions. Load returns ErrNotFound for unknown or expired ids.
// Delete reports whether a live session was removed.
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) (bool, error)
	Touch(ctx context.Context, id string, ttl time.Duration) error
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a new session for account.
func (m *Manager) Create(ctx context.Context, account *models.Account) (*Session, error) {
	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		Username:  account.Username,
		Age:       account.Age,
		Weight:    account.Weight,
		Height:    account.Height,
		CreatedAt: now,
		LastSeen:  now,
	}

	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	logger.Info("Session created", zap.String("username", s.Username))
	return s, nil
}

// Get loads the session and slides its expiry forward.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := m.store.Touch(ctx, id, m.ttl); err != nil {
		logger.Warn("Failed to extend session", zap.String("username", s.Username), zap.Error(err))
	}
	s.LastSeen = m.now()
	return s, nil
}

// Destroy removes the session and reports whether it existed. Destroying an
// unknown id is not an error.
func (m *Manager) Destroy(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	removed, err := m.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return removed, nil
}
