package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/halcyon0/halcyon/internal/log"
	"github.com/halcyon0/halcyon/internal/user"
	"github.com/halcyon0/halcyon/internal/vector"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockLLM records prompts and returns a canned answer.
type mockLLM struct {
	answer  string
	err     error
	prompts []string
}

func (m *mockLLM) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

// mockRetriever returns fixed hits.
type mockRetriever struct {
	hits  []vector.Result
	err   error
	calls int
}

func (m *mockRetriever) Search(_ context.Context, _ string, _ int) ([]vector.Result, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

// mockHistory is an in-memory HistoryStore.
type mockHistory struct {
	exchanges []user.Exchange
	recentErr error
	appendErr error
	appended  int
}

func (m *mockHistory) RecentExchanges(_ context.Context, _ *user.Session, limit int) ([]user.Exchange, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if len(m.exchanges) > limit {
		return m.exchanges[len(m.exchanges)-limit:], nil
	}
	return m.exchanges, nil
}

func (m *mockHistory) AppendExchange(_ context.Context, sess *user.Session, question, answer string) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended++
	m.exchanges = append(m.exchanges, user.Exchange{
		MessageID: len(m.exchanges) + 1,
		SessionID: sess.ID,
		Question:  question,
		Answer:    answer,
	})
	return nil
}

func newTestAssistant(t *testing.T, cfg Config) *Assistant {
	t.Helper()
	if cfg.History == nil {
		cfg.History = &mockHistory{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func testSession() *user.Session {
	return &user.Session{Username: "alice", ID: 0}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Logger: log.NewNop()}); err == nil {
		t.Error("New() without a history store returned nil error")
	}
	if _, err := New(Config{History: &mockHistory{}}); err == nil {
		t.Error("New() without a logger returned nil error")
	}
}

func TestAnswerUnconfigured(t *testing.T) {
	history := &mockHistory{recentErr: errors.New("must not be read")}

	a := newTestAssistant(t, Config{History: history})
	if _, err := a.Answer(context.Background(), testSession(), "hi"); !errors.Is(err, ErrLLMNotConfigured) {
		t.Errorf("Answer() without llm error = %v, want ErrLLMNotConfigured", err)
	}

	a = newTestAssistant(t, Config{LLM: &mockLLM{}, History: history})
	if _, err := a.Answer(context.Background(), testSession(), "hi"); !errors.Is(err, ErrRetrieverNotConfigured) {
		t.Errorf("Answer() without retriever error = %v, want ErrRetrieverNotConfigured", err)
	}
}

func TestAnswerSuccess(t *testing.T) {
	llmClient := &mockLLM{answer: "  Try a regular sleep schedule.  "}
	retriever := &mockRetriever{hits: []vector.Result{
		{Document: vector.Document{Content: "Question: sleep?\nAnswer: routine."}, Score: 0.9},
	}}
	history := &mockHistory{exchanges: []user.Exchange{
		{MessageID: 1, SessionID: 0, Question: "hello", Answer: "hi alice"},
	}}

	a := newTestAssistant(t, Config{LLM: llmClient, Retriever: retriever, History: history})
	answer, err := a.Answer(context.Background(), testSession(), "how do I sleep better?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "Try a regular sleep schedule." {
		t.Errorf("Answer() = %q, want the trimmed model reply", answer)
	}
	if retriever.calls != 1 {
		t.Errorf("retriever calls = %d, want 1", retriever.calls)
	}
	if history.appended != 1 {
		t.Errorf("appended exchanges = %d, want 1", history.appended)
	}

	if len(llmClient.prompts) != 1 {
		t.Fatalf("llm prompts = %d, want 1", len(llmClient.prompts))
	}
	prompt := llmClient.prompts[0]
	for _, want := range []string{
		"alice",
		"Answer: routine.",
		"User: hello\nAssistant: hi alice",
		"User: how do I sleep better?",
		"at most three sentences",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestAnswerRetrievalFailure(t *testing.T) {
	a := newTestAssistant(t, Config{
		LLM:       &mockLLM{answer: "x"},
		Retriever: &mockRetriever{err: errors.New("index offline")},
	})

	_, err := a.Answer(context.Background(), testSession(), "hi")
	if !errors.Is(err, ErrRetrievalFailed) {
		t.Errorf("Answer() error = %v, want ErrRetrievalFailed", err)
	}
}

func TestAnswerCompletionFailure(t *testing.T) {
	history := &mockHistory{}
	a := newTestAssistant(t, Config{
		LLM:       &mockLLM{err: errors.New("rate limited")},
		Retriever: &mockRetriever{},
		History:   history,
	})

	_, err := a.Answer(context.Background(), testSession(), "hi")
	if !errors.Is(err, ErrCompletionFailed) {
		t.Errorf("Answer() error = %v, want ErrCompletionFailed", err)
	}
	if history.appended != 0 {
		t.Errorf("failed completion still appended %d exchanges", history.appended)
	}
}

func TestAnswerSurvivesHistoryFailures(t *testing.T) {
	// Neither a failing read nor a failing append loses the answer.
	a := newTestAssistant(t, Config{
		LLM:       &mockLLM{answer: "ok"},
		Retriever: &mockRetriever{},
		History:   &mockHistory{recentErr: errors.New("malformed"), appendErr: errors.New("disk full")},
	})

	answer, err := a.Answer(context.Background(), testSession(), "hi")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "ok" {
		t.Errorf("Answer() = %q, want ok", answer)
	}
}

func TestAnswerHistoryWindow(t *testing.T) {
	var exchanges []user.Exchange
	for i := 0; i < 15; i++ {
		exchanges = append(exchanges, user.Exchange{
			MessageID: i + 1,
			Question:  "q" + string(rune('a'+i)),
			Answer:    "a",
		})
	}
	llmClient := &mockLLM{answer: "ok"}

	a := newTestAssistant(t, Config{
		LLM:       llmClient,
		Retriever: &mockRetriever{},
		History:   &mockHistory{exchanges: exchanges},
	})
	if _, err := a.Answer(context.Background(), testSession(), "latest"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	prompt := llmClient.prompts[0]
	if strings.Contains(prompt, "User: qa\n") {
		t.Error("prompt contains the oldest exchange, want only the last 10")
	}
	if !strings.Contains(prompt, "User: qo\n") {
		t.Error("prompt is missing the newest exchange")
	}
}

func TestTitle(t *testing.T) {
	llmClient := &mockLLM{answer: " Sleep Routine Help \n"}
	a := newTestAssistant(t, Config{LLM: llmClient, Retriever: &mockRetriever{err: errors.New("must not be used")}})

	title, err := a.Title(context.Background(), "I can't sleep at night, what should I do?")
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if title != "Sleep Routine Help" {
		t.Errorf("Title() = %q, want trimmed title", title)
	}
	if !strings.Contains(llmClient.prompts[0], "3 to 5 words") {
		t.Errorf("title prompt = %q", llmClient.prompts[0])
	}
}

func TestTitleUnconfigured(t *testing.T) {
	a := newTestAssistant(t, Config{})
	if _, err := a.Title(context.Background(), "hello"); !errors.Is(err, ErrLLMNotConfigured) {
		t.Errorf("Title() error = %v, want ErrLLMNotConfigured", err)
	}
}
