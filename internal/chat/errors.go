package chat

import "errors"

// Sentinel errors for assistant operations.
var (
	// ErrLLMNotConfigured indicates no language model client is set.
	ErrLLMNotConfigured = errors.New("llm client is not configured")

	// ErrRetrieverNotConfigured indicates no retrieval index is set.
	ErrRetrieverNotConfigured = errors.New("retriever is not configured")

	// ErrRetrievalFailed indicates the corpus search failed.
	ErrRetrievalFailed = errors.New("corpus retrieval failed")

	// ErrCompletionFailed indicates the model call failed.
	ErrCompletionFailed = errors.New("model completion failed")
)
