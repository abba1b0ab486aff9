package service

import "github.com/utafrali/StorefrontGo/internal/domain"

// Sink identifies the persistence target for a session's collections.
type Sink int

const (
	// SinkLocal is the visitor-keyed Redis store used for anonymous sessions.
	SinkLocal Sink = iota
	// SinkRemote is the user-keyed storefront store API used once signed in.
	SinkRemote
)

func (s Sink) String() string {
	if s == SinkRemote {
		return "remote"
	}
	return "local"
}

// ResolveSink decides which sink a session's reads and writes target:
// remote when the session carries a usable user identifier, local otherwise.
// The decision is made fresh on every operation and never cached as state;
// an absent user is the normal anonymous-browsing case, not an error.
func ResolveSink(sess domain.Session) Sink {
	if sess.SignedIn() {
		return SinkRemote
	}
	return SinkLocal
}
