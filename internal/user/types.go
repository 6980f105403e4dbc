package user

// User is an account row (application-level type).
type User struct {
	ID           int64
	Username     string
	SessionCount int
}

// Exchange is one question/answer pair tied to a session. Immutable
// once written.
type Exchange struct {
	// MessageID is the 1-based position of the exchange in the user's
	// log. Derived from storage order, not serialized.
	MessageID int `json:"-"`

	SessionID int    `json:"session_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// Session identifies the authenticated user and the active session
// counter for one request. Verify returns it; history operations
// require it. Passing the session explicitly replaces any notion of a
// process-wide "current user".
type Session struct {
	Username string
	ID       int
}
