package models

// Identity is the resolved authenticated user reference. The zero value is
// anonymous. This core only references identities, it never creates them.
type Identity struct {
	UserID string
}

// Anonymous is the identity of an unauthenticated request.
var Anonymous = Identity{}

func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// Credentials carries the raw session credential extracted from a request,
// either a session cookie value or a bearer token.
type Credentials struct {
	Token string
}

func (c Credentials) IsEmpty() bool {
	return c.Token == ""
}

// Result is the outcome of session validation. RefreshedToken is non-empty
// when the identity provider rotated the credential; callers must propagate
// it back to the response so subsequent requests stay authenticated.
type Result struct {
	Identity       Identity
	RefreshedToken string
}
