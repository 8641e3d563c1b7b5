package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/DevSymphony/sysop/internal/roles"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// User is a row of the users table without secrets.
type User struct {
	ID       int64
	Username string
	Role     roles.Role
	HasExtra bool
}

// Store keeps users in SQLite with bcrypt password hashes. Extra data is
// JSON encoded and sealed with the installation identity.
type Store struct {
	db     *sql.DB
	sealer *Sealer
	cost   int
	logger *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) StoreOption {
	return func(s *Store) { s.cost = cost }
}

// OpenStore opens (creating if needed) the users database at path.
func OpenStore(path string, sealer *Sealer, logger *zap.Logger, opts ...StoreOption) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, sealer: sealer, cost: bcrypt.DefaultCost, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		encrypted_data TEXT
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Count returns the number of users.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// AddUser inserts a user. extra may be nil.
func (s *Store) AddUser(ctx context.Context, username, password string, role roles.Role, extra map[string]any) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var sealed sql.NullString
	if len(extra) > 0 {
		if s.sealer == nil {
			return fmt.Errorf("extra data requires an encryption key")
		}
		data, err := json.Marshal(extra)
		if err != nil {
			return fmt.Errorf("failed to encode extra data: %w", err)
		}
		ct, err := s.sealer.Seal(data)
		if err != nil {
			return err
		}
		sealed = sql.NullString{String: ct, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, encrypted_data) VALUES (?, ?, ?, ?)`,
		username, string(hash), string(role), sealed)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	s.logger.Info("user added", zap.String("user", username), zap.String("role", string(role)))
	return nil
}

// Verify checks the password and returns the user's role.
func (s *Store) Verify(ctx context.Context, username, password string) (roles.Role, error) {
	var hash, roleName string
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash, role FROM users WHERE username = ?`, username).Scan(&hash, &roleName)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("authentication failed", zap.String("user", username))
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to query user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		s.logger.Warn("authentication failed", zap.String("user", username))
		return "", ErrInvalidCredentials
	}

	role, err := roles.Parse(roleName)
	if err != nil {
		return "", fmt.Errorf("user %s has invalid role: %w", username, err)
	}
	s.logger.Debug("authenticated", zap.String("user", username))
	return role, nil
}

// Role returns the stored role for username.
func (s *Store) Role(ctx context.Context, username string) (roles.Role, error) {
	var roleName string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE username = ?`, username).Scan(&roleName)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query user: %w", err)
	}
	return roles.Parse(roleName)
}

// List returns all users ordered by id.
func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, role, encrypted_data IS NOT NULL FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var roleName string
		if err := rows.Scan(&u.ID, &u.Username, &roleName, &u.HasExtra); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = roles.Role(roleName)
		users = append(users, u)
	}
	return users, rows.Err()
}

// Extra decrypts and decodes the user's extra data. Nil when none was stored.
func (s *Store) Extra(ctx context.Context, username string) (map[string]any, error) {
	var sealed sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT encrypted_data FROM users WHERE username = ?`, username).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if !sealed.Valid {
		return nil, nil
	}
	if s.sealer == nil {
		return nil, fmt.Errorf("extra data requires an encryption key")
	}

	plaintext, err := s.sealer.Open(sealed.String)
	if err != nil {
		return nil, err
	}
	var extra map[string]any
	if err := json.Unmarshal(plaintext, &extra); err != nil {
		return nil, fmt.Errorf("failed to decode extra data: %w", err)
	}
	return extra, nil
}

// SetPassword replaces the user's password hash.
func (s *Store) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.affectOne(ctx, username,
		`UPDATE users SET password_hash = ? WHERE username = ?`, string(hash), username)
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	return s.affectOne(ctx, username, `DELETE FROM users WHERE username = ?`, username)
}

func (s *Store) affectOne(ctx context.Context, username, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return nil
}
