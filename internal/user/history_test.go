package user

import (
	"errors"
	"testing"
)

func TestDecodeHistory(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr error
	}{
		{"empty string", "", 0, nil},
		{"empty object", "{}", 0, nil},
		{"null", "null", 0, nil},
		{"empty array", "[]", 0, nil},
		{
			"array form",
			`[{"session_id":0,"question":"q1","answer":"a1"},{"session_id":1,"question":"q2","answer":"a2"}]`,
			2, nil,
		},
		{
			"legacy map form",
			`{"1":{"session_id":0,"question":"q1","answer":"a1"}}`,
			1, nil,
		},
		{"garbage", "not json", 0, ErrMalformedHistory},
		{"wrong shape", `{"1": "just a string"}`, 0, ErrMalformedHistory},
		{"non-numeric key", `{"abc":{"session_id":0,"question":"q","answer":"a"}}`, 0, ErrMalformedHistory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeHistory(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("decodeHistory() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeHistory() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("decodeHistory() returned %d exchanges, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDecodeHistoryLegacyOrdering(t *testing.T) {
	raw := `{
		"10": {"session_id": 1, "question": "tenth", "answer": "a"},
		"2":  {"session_id": 0, "question": "second", "answer": "a"},
		"1":  {"session_id": 0, "question": "first", "answer": "a"}
	}`

	got, err := decodeHistory(raw)
	if err != nil {
		t.Fatalf("decodeHistory() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d exchanges, want 3", len(got))
	}

	// Numeric key order, then dense reassigned ids.
	wantQuestions := []string{"first", "second", "tenth"}
	for i, ex := range got {
		if ex.Question != wantQuestions[i] {
			t.Errorf("exchange %d question = %q, want %q", i, ex.Question, wantQuestions[i])
		}
		if ex.MessageID != i+1 {
			t.Errorf("exchange %d MessageID = %d, want %d", i, ex.MessageID, i+1)
		}
	}
}

func TestEncodeHistoryRoundTrip(t *testing.T) {
	in := []Exchange{
		{MessageID: 1, SessionID: 0, Question: "q1", Answer: "a1"},
		{MessageID: 2, SessionID: 1, Question: "q2", Answer: "a2"},
	}

	raw, err := encodeHistory(in)
	if err != nil {
		t.Fatalf("encodeHistory() error = %v", err)
	}

	out, err := decodeHistory(raw)
	if err != nil {
		t.Fatalf("decodeHistory() error = %v", err)
	}
	if len(out) != 2 || out[0].Question != "q1" || out[1].SessionID != 1 {
		t.Errorf("round trip = %+v, want the original exchanges", out)
	}
	if out[0].MessageID != 1 || out[1].MessageID != 2 {
		t.Errorf("round trip ids = %d,%d, want 1,2", out[0].MessageID, out[1].MessageID)
	}
}

func TestEncodeHistoryEmpty(t *testing.T) {
	raw, err := encodeHistory(nil)
	if err != nil {
		t.Fatalf("encodeHistory() error = %v", err)
	}
	if raw != "[]" {
		t.Errorf("encodeHistory(nil) = %q, want []", raw)
	}
}
