// Package chat orchestrates a retrieval-augmented conversation: it
// pulls relevant corpus passages, folds in the user's recent history
// and asks the model for a short, careful answer.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/halcyon0/halcyon/internal/llm"
	"github.com/halcyon0/halcyon/internal/user"
	"github.com/halcyon0/halcyon/internal/vector"
)

// Defaults applied when Config leaves the knobs at zero.
const (
	defaultHistoryLimit = 10
	defaultTopK         = 4
)

// Retriever searches the corpus index.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]vector.Result, error)
}

// HistoryStore reads and appends a user's conversation log.
type HistoryStore interface {
	RecentExchanges(ctx context.Context, sess *user.Session, limit int) ([]user.Exchange, error)
	AppendExchange(ctx context.Context, sess *user.Session, question, answer string) error
}

// Config contains the assistant's dependencies. LLM and Retriever may
// be nil at construction; Answer reports their absence per call, so a
// partially wired process can still be built.
type Config struct {
	LLM       llm.Client
	Retriever Retriever
	History   HistoryStore
	Logger    *slog.Logger

	HistoryLimit int
	TopK         int
}

func (cfg Config) validate() error {
	if cfg.History == nil {
		return errors.New("history store is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Assistant answers questions grounded in the corpus index.
//
// Assistant is stateless across requests; every call carries its own
// session value.
type Assistant struct {
	llm       llm.Client
	retriever Retriever
	history   HistoryStore
	logger    *slog.Logger

	historyLimit int
	topK         int
}

// New creates an Assistant from a validated Config.
func New(cfg Config) (*Assistant, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	return &Assistant{
		llm:          cfg.LLM,
		retriever:    cfg.Retriever,
		history:      cfg.History,
		logger:       cfg.Logger,
		historyLimit: historyLimit,
		topK:         topK,
	}, nil
}

// Answer responds to the session user's question. The exchange is
// appended to the user's log on success; an append failure is logged
// and the answer still returned.
func (a *Assistant) Answer(ctx context.Context, sess *user.Session, question string) (string, error) {
	if a.llm == nil {
		return "", ErrLLMNotConfigured
	}
	if a.retriever == nil {
		return "", ErrRetrieverNotConfigured
	}

	requestID := uuid.NewString()
	a.logger.Debug("answering question",
		"request_id", requestID,
		"username", sess.Username,
		"session_id", sess.ID)

	hits, err := a.retriever.Search(ctx, question, a.topK)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	history, err := a.history.RecentExchanges(ctx, sess, a.historyLimit)
	if err != nil {
		a.logger.Warn("loading history failed, answering without it",
			"request_id", requestID, "error", err)
		history = nil
	}

	prompt := buildPrompt(sess.Username, hits, history, question)
	answer, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	answer = strings.TrimSpace(answer)

	if err := a.history.AppendExchange(ctx, sess, question, answer); err != nil {
		a.logger.Warn("appending exchange to history",
			"request_id", requestID, "error", err)
	}

	a.logger.Debug("answered question",
		"request_id", requestID,
		"hits", len(hits),
		"history", len(history))
	return answer, nil
}

// Title asks the model for a 3 to 5 word title for a conversation's
// first message. It consults neither the retriever nor the log.
func (a *Assistant) Title(ctx context.Context, firstMessage string) (string, error) {
	if a.llm == nil {
		return "", ErrLLMNotConfigured
	}

	title, err := a.llm.Complete(ctx, fmt.Sprintf(titlePrompt, firstMessage))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	return strings.TrimSpace(title), nil
}
