package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/health-dashboard/backend/internal/metrics"
	"github.com/health-dashboard/backend/internal/session"
	"github.com/health-dashboard/backend/internal/storage/models"
	"github.com/health-dashboard/backend/internal/storage/sqlite"
	"github.com/health-dashboard/backend/pkg/logger"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = sqlite.ErrUsernameTaken
)

const maxPasswordBytes = 72

// Store is the slice of the SQLite client the account service needs.
type Store interface {
	InsertAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, username string) (*models.Account, error)
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Weight   int    `json:"weight"`
	Height   int    `json:"height"`
}

type Service struct {
	store     Store
	sessions  *session.Manager
	cost      int
	dummyHash []byte
	now       func() time.Time
}

func NewService(store Store, sessions *session.Manager) *Service {
	return newService(store, sessions, bcrypt.DefaultCost)
}

func newService(store Store, sessions *session.Manager, cost int) *Service {
	// Compared against when the username is unknown so both failure paths
	// spend the same bcrypt work.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &Service{
		store:     store,
		sessions:  sessions,
		cost:      cost,
		dummyHash: dummy,
		now:       time.Now,
	}
}

func (in RegisterInput) validate() error {
	switch {
	case strings.TrimSpace(in.Username) == "" || in.Password == "" || in.Age == 0 || in.Weight == 0 || in.Height == 0:
		return fmt.Errorf("%w: please fill in all the fields", ErrInvalidInput)
	case len(in.Username) > 64:
		return fmt.Errorf("%w: username is longer than 64 characters", ErrInvalidInput)
	case len(in.Password) > maxPasswordBytes:
		return fmt.Errorf("%w: password is longer than %d bytes", ErrInvalidInput, maxPasswordBytes)
	case in.Age < 1 || in.Age > 120:
		return fmt.Errorf("%w: age must be between 1 and 120", ErrInvalidInput)
	case in.Weight < 1 || in.Weight > 200:
		return fmt.Errorf("%w: weight must be between 1 and 200 kg", ErrInvalidInput)
	case in.Height < 1 || in.Height > 250:
		return fmt.Errorf("%w: height must be between 1 and 250 cm", ErrInvalidInput)
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := in.validate(); err != nil {
		metrics.AuthAttempts.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Username:     in.Username,
		PasswordHash: string(hash),
		Age:          in.Age,
		Weight:       in.Weight,
		Height:       in.Height,
		CreatedAt:    s.now(),
	}

	if err := s.store.InsertAccount(ctx, account); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			metrics.AuthAttempts.WithLabelValues("register", "duplicate").Inc()
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	logger.Info("Account registered", zap.String("username", account.Username))
	return account, nil
}

// Login verifies the credentials and opens a new session. A failed login
// leaves every existing session untouched.
func (s *Service) Login(ctx context.Context, username, password string) (*session.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("login", "invalid").Inc()
		return nil, fmt.Errorf("%w: please enter both username and password", ErrInvalidInput)
	}

	account, err := s.store.GetAccount(ctx, username)
	if errors.Is(err, sqlite.ErrAccountNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "failure").Inc()
		logger.Info("Login rejected", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	metrics.SessionsCreated.Inc()
	return sess, nil
}

// Logout ends the session. Unknown, empty and already expired ids succeed
// without counting as a logout.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	removed, err := s.sessions.Destroy(ctx, sessionID)
	if err != nil {
		return err
	}
	if removed {
		metrics.SessionsEnded.WithLabelValues("logout").Inc()
	}
	return nil
}
