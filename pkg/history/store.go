// Package history persists chat conversations in a SQLite database in the
// .quill/ directory, so answers survive the popup that produced them.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Conversation is one recorded chat session.
type Conversation struct {
	ID        string
	Model     string
	StartedAt time.Time
	Messages  []Message
}

// Message is one recorded turn of a conversation.
type Message struct {
	Seq       int
	Role      string
	Content   string
	CreatedAt time.Time
}

// ErrNotFound is returned when a conversation id does not exist.
var ErrNotFound = errors.New("conversation not found")

// ErrAmbiguous is returned when an id prefix matches several conversations.
var ErrAmbiguous = errors.New("conversation id prefix is ambiguous")

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	model      TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      TIMESTAMP NOT NULL,
	PRIMARY KEY (conversation_id, seq)
);
`

// Store is a SQLite-backed conversation store. It is safe for use from a
// single process; quill commands open it, use it, and close it.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin records a new conversation for the given model and returns it.
func (s *Store) Begin(model string) (*Conversation, error) {
	conv := &Conversation{
		ID:        uuid.NewString(),
		Model:     model,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		"INSERT INTO conversations (id, model, started_at) VALUES (?, ?, ?)",
		conv.ID, conv.Model, conv.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("recording conversation: %w", err)
	}

	return conv, nil
}

// Append records one turn at the end of the conversation.
func (s *Store) Append(conversationID, role, content string) error {
	_, err := s.db.Exec(`
		INSERT INTO messages (conversation_id, seq, role, content, created_at)
		SELECT ?, COALESCE(MAX(seq), -1) + 1, ?, ?, ?
		FROM messages WHERE conversation_id = ?`,
		conversationID, role, content, time.Now().UTC(), conversationID,
	)
	if err != nil {
		return fmt.Errorf("recording message: %w", err)
	}
	return nil
}

// List returns the most recent conversations, newest first, without their
// messages.
func (s *Store) List(limit int) ([]Conversation, error) {
	rows, err := s.db.Query(
		"SELECT id, model, started_at FROM conversations ORDER BY started_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Model, &c.StartedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		convs = append(convs, c)
	}

	return convs, rows.Err()
}

// resolveID expands an id prefix to the full conversation id.
func (s *Store) resolveID(prefix string) (string, error) {
	rows, err := s.db.Query(
		"SELECT id FROM conversations WHERE id LIKE ? || '%' LIMIT 2", prefix,
	)
	if err != nil {
		return "", fmt.Errorf("resolving conversation id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("resolving conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", ErrNotFound
	case 1:
		return ids[0], nil
	default:
		return "", ErrAmbiguous
	}
}

// Get returns one conversation with its messages in turn order. The id may
// be a unique prefix, matching what "history list" prints.
func (s *Store) Get(id string) (*Conversation, error) {
	full, err := s.resolveID(id)
	if err != nil {
		return nil, err
	}

	conv := &Conversation{ID: full}
	err = s.db.QueryRow(
		"SELECT model, started_at FROM conversations WHERE id = ?", full,
	).Scan(&conv.Model, &conv.StartedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	rows, err := s.db.Query(
		"SELECT seq, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY seq",
		full,
	)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Seq, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		conv.Messages = append(conv.Messages, m)
	}

	return conv, rows.Err()
}
