package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sqlite "modernc.org/sqlite"
)

// Store manages accounts and conversation history in SQLite.
//
// Store is safe for concurrent use; it owns no transaction state
// across operations.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Store. A nil logger falls back to slog.Default().
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Create registers a new account with an empty conversation log and a
// zero session counter. Returns a welcome message on success and
// ErrDuplicateUser when the username is taken.
func (s *Store) Create(ctx context.Context, username, secret string) (string, error) {
	digest, err := hashSecret(secret)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_digest, conversation_history) VALUES (?, ?, ?)`,
		username, digest, emptyHistory,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateUser, username)
		}
		return "", fmt.Errorf("creating user %s: %w", username, err)
	}

	s.logger.Debug("created user", "username", username)
	return fmt.Sprintf("Welcome, %s!", username), nil
}

// Verify checks credentials and, on success, returns the Session for
// this login with ID set to the stored session counter.
func (s *Store) Verify(ctx context.Context, username, secret string) (*Session, error) {
	var digest string
	var sessionCount int
	err := s.db.QueryRowContext(ctx,
		`SELECT password_digest, session_count FROM users WHERE username = ?`,
		username,
	).Scan(&digest, &sessionCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user %s: %w", username, err)
	}

	if !verifySecret(secret, digest) {
		return nil, ErrInvalidCredentials
	}

	s.logger.Debug("verified user", "username", username, "session_id", sessionCount)
	return &Session{Username: username, ID: sessionCount}, nil
}

// AppendExchange appends a question/answer pair to the session's
// user, assigning the next dense message id. A malformed stored log
// is treated as empty rather than blocking the append.
func (s *Store) AppendExchange(ctx context.Context, sess *Session, question, answer string) error {
	raw, err := s.loadHistory(ctx, sess.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Warn("appending exchange for unknown user", "username", sess.Username)
		}
		return err
	}

	exchanges, err := decodeHistory(raw)
	if err != nil {
		s.logger.Warn("stored history is malformed, starting fresh",
			"username", sess.Username)
		exchanges = nil
	}

	exchanges = append(exchanges, Exchange{
		MessageID: len(exchanges) + 1,
		SessionID: sess.ID,
		Question:  question,
		Answer:    answer,
	})

	encoded, err := encodeHistory(exchanges)
	if err != nil {
		return fmt.Errorf("encoding history for %s: %w", sess.Username, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET conversation_history = ? WHERE username = ?`,
		encoded, sess.Username,
	); err != nil {
		return fmt.Errorf("updating history for %s: %w", sess.Username, err)
	}

	s.logger.Debug("appended exchange",
		"username", sess.Username,
		"message_id", len(exchanges),
		"session_id", sess.ID)
	return nil
}

// RecentExchanges returns the last limit exchanges for the session's
// user in insertion order. Missing users, empty logs and malformed
// logs all yield an empty result.
func (s *Store) RecentExchanges(ctx context.Context, sess *Session, limit int) ([]Exchange, error) {
	raw, err := s.loadHistory(ctx, sess.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	exchanges, err := decodeHistory(raw)
	if err != nil {
		s.logger.Warn("stored history is malformed, treating as empty",
			"username", sess.Username)
		return nil, nil
	}

	if limit <= 0 || len(exchanges) == 0 {
		return nil, nil
	}
	if len(exchanges) > limit {
		exchanges = exchanges[len(exchanges)-limit:]
	}
	return exchanges, nil
}

// ExchangesForSession returns all exchanges recorded under the given
// session id for the session's user, in insertion order. The result
// is empty (not nil) when the user exists but nothing matches.
// Returns ErrUserNotFound for a missing user and ErrMalformedHistory
// when the stored log does not decode; the caller decides whether to
// treat either as empty.
func (s *Store) ExchangesForSession(ctx context.Context, sess *Session, sessionID int) ([]Exchange, error) {
	raw, err := s.loadHistory(ctx, sess.Username)
	if err != nil {
		return nil, err
	}

	exchanges, err := decodeHistory(raw)
	if err != nil {
		return nil, err
	}

	matched := make([]Exchange, 0)
	for _, ex := range exchanges {
		if ex.SessionID == sessionID {
			matched = append(matched, ex)
		}
	}
	return matched, nil
}

// IncrementSessionCount advances the durable session counter and the
// in-memory session together.
func (s *Store) IncrementSessionCount(ctx context.Context, sess *Session) error {
	next := sess.ID + 1

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET session_count = ? WHERE username = ?`,
		next, sess.Username,
	)
	if err != nil {
		return fmt.Errorf("updating session count for %s: %w", sess.Username, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, sess.Username)
	}

	sess.ID = next
	s.logger.Debug("incremented session count",
		"username", sess.Username, "session_id", next)
	return nil
}

// loadHistory reads the raw conversation_history column.
func (s *Store) loadHistory(ctx context.Context, username string) (string, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT conversation_history FROM users WHERE username = ?`,
		username,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return "", fmt.Errorf("loading history for %s: %w", username, err)
	}
	return raw.String, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure (extended result codes 1555 and 2067).
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == 1555 || se.Code() == 2067
}
