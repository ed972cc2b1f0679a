package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parlor/internal/app/chat"
	"parlor/internal/app/user"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// UserRecord is the database row of a registered user.
type UserRecord struct {
	ID           string
	Username     string
	PasswordHash string
	Avatar       int
	Bio          string
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

// Profile converts the row into the identity carried by a connection.
func (r UserRecord) Profile() user.Profile {
	return user.Profile{
		Identity: r.ID,
		Username: r.Username,
		Avatar:   r.Avatar,
		Bio:      r.Bio,
	}
}

// Store is the PostgreSQL repository over the users and messages tables.
// It implements the chat service's MessageStore and ProfileStore contracts.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertMessage appends one public-room message to the messages table.
func (s *Store) InsertMessage(ctx context.Context, msg chat.StoredMessage) error {
	query := `
		INSERT INTO messages (id, room, author_id, author_name, guest, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		msg.ID, msg.Room, msg.AuthorID, msg.AuthorName, msg.Guest, msg.Content, msg.Date)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

// RecentMessages loads the newest messages of a room, most recent first.
// Registered authors are resolved to their current profile; guest authors
// keep the display name snapshot taken at send time.
func (s *Store) RecentMessages(ctx context.Context, room string, limit int) ([]chat.Message, error) {
	query := `
		SELECT m.content, m.guest, m.created_at,
		       COALESCE(u.username, m.author_name) AS username,
		       COALESCE(u.avatar, 0)               AS avatar,
		       COALESCE(u.bio, '')                 AS bio
		FROM messages m
		LEFT JOIN users u ON NOT m.guest AND u.id::text = m.author_id
		WHERE m.room = $1
		ORDER BY m.created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, room, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent messages: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.Content, &msg.Guest, &msg.Date,
			&msg.User.Username, &msg.User.Avatar, &msg.User.Bio); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.Type = chat.EventMessage
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return messages, nil
}

// UpdateProfile persists the avatar and bio of a registered user.
func (s *Store) UpdateProfile(ctx context.Context, identity string, avatar int, bio string) error {
	query := `UPDATE users SET avatar = $2, bio = $3 WHERE id::text = $1`

	tag, err := s.pool.Exec(ctx, query, identity, avatar, bio)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// CreateUser inserts a new registered user and returns the stored row.
// Unique-constraint violations on the username propagate to the caller;
// check them with IsUniqueViolation.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*UserRecord, error) {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, avatar, bio, created_at, last_login_at`

	record := &UserRecord{}
	err := s.pool.QueryRow(ctx, query, username, passwordHash).Scan(
		&record.ID, &record.Username, &record.PasswordHash,
		&record.Avatar, &record.Bio, &record.CreatedAt, &record.LastLoginAt)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// UserByUsername loads a registered user by display name.
func (s *Store) UserByUsername(ctx context.Context, username string) (*UserRecord, error) {
	query := `
		SELECT id, username, password_hash, avatar, bio, created_at, last_login_at
		FROM users
		WHERE username = $1`

	return s.scanUser(s.pool.QueryRow(ctx, query, username))
}

// UserByID loads a registered user by database ID.
func (s *Store) UserByID(ctx context.Context, id string) (*UserRecord, error) {
	query := `
		SELECT id, username, password_hash, avatar, bio, created_at, last_login_at
		FROM users
		WHERE id::text = $1`

	return s.scanUser(s.pool.QueryRow(ctx, query, id))
}

// UpdateLastLogin records a successful login.
func (s *Store) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login_at = now() WHERE id::text = $1`

	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	return nil
}

func (s *Store) scanUser(row pgx.Row) (*UserRecord, error) {
	record := &UserRecord{}
	err := row.Scan(
		&record.ID, &record.Username, &record.PasswordHash,
		&record.Avatar, &record.Bio, &record.CreatedAt, &record.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	return record, nil
}
