package domain

// Session is the per-request identity derived from the gateway headers.
// UserID is empty for anonymous sessions; VisitorID is always present and
// device scoped. The collection logic treats the user record as nothing more
// than a signed-in flag plus a remote-storage key.
type Session struct {
	UserID    string
	VisitorID string
}

// SignedIn reports whether the session belongs to an authenticated user.
func (s Session) SignedIn() bool {
	return s.UserID != ""
}

// OwnerKey returns the storage key collections are filed under: the user ID
// for signed-in sessions, the visitor ID otherwise.
func (s Session) OwnerKey() string {
	if s.SignedIn() {
		return s.UserID
	}
	return s.VisitorID
}
