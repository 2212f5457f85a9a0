package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/storage/models"
	"github.com/health-dashboard/backend/pkg/logger"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrUsernameTaken    = errors.New("username already registered")
	ErrDocumentNotFound = errors.New("document not found")
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY NOT NULL,
		password_hash TEXT NOT NULL,
		age INTEGER NOT NULL,
		weight INTEGER NOT NULL,
		height INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS medical_data (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_type TEXT NOT NULL,
		file_path TEXT NOT NULL UNIQUE,
		size INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (username) REFERENCES users(username) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_medical_data_username ON medical_data(username);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertAccount(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO users (username, password_hash, age, weight, height, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := c.db.ExecContext(
		ctx,
		query,
		account.Username,
		account.PasswordHash,
		account.Age,
		account.Weight,
		account.Height,
		account.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	logger.Debug("Account inserted", zap.String("username", account.Username))
	return nil
}

func (c *Client) GetAccount(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT username, password_hash, age, weight, height, created_at FROM users WHERE username = ?`

	var a models.Account
	var createdAt int64

	err := c.db.QueryRowContext(ctx, query, username).Scan(
		&a.Username,
		&a.PasswordHash,
		&a.Age,
		&a.Weight,
		&a.Height,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	a.CreatedAt = time.Unix(createdAt, 0)
	return &a, nil
}

func (c *Client) InsertDocument(ctx context.Context, doc *models.MedicalDocument) error {
	query := `
		INSERT INTO medical_data (id, username, file_name, file_type, file_path, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.Username,
		doc.FileName,
		doc.FileType,
		doc.FilePath,
		doc.Size,
		doc.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	logger.Debug("Document inserted",
		zap.String("doc_id", doc.ID),
		zap.String("username", doc.Username),
		zap.String("file_name", doc.FileName),
	)
	return nil
}

func (c *Client) ListDocuments(ctx context.Context, username string) ([]models.MedicalDocument, error) {
	query := `
		SELECT id, username, file_name, file_type, file_path, size, created_at
		FROM medical_data
		WHERE username = ?
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := c.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []models.MedicalDocument{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

// GetDocument only returns rows owned by username, so one user cannot fetch
// another user's file by guessing an id.
func (c *Client) GetDocument(ctx context.Context, username, id string) (*models.MedicalDocument, error) {
	query := `
		SELECT id, username, file_name, file_type, file_path, size, created_at
		FROM medical_data
		WHERE id = ? AND username = ?
	`

	d, err := scanDocument(c.db.QueryRowContext(ctx, query, id, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.MedicalDocument, error) {
	var d models.MedicalDocument
	var createdAt int64

	err := row.Scan(&d.ID, &d.Username, &d.FileName, &d.FileType, &d.FilePath, &d.Size, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	d.CreatedAt = time.Unix(0, createdAt)
	return &d, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
