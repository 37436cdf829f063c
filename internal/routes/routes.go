// Package routes classifies request paths into access classes. Classification
// is pure: no I/O, no failure mode, and the same path always yields the same
// class regardless of who is asking.
package routes

import "strings"

// Class is the access classification of a request path.
type Class string

const (
	// ClassProtected paths require an authenticated identity.
	ClassProtected Class = "protected"
	// ClassAuthOnly paths are only for anonymous visitors (sign-in, sign-up).
	ClassAuthOnly Class = "auth_only"
	// ClassPublic paths are unrestricted.
	ClassPublic Class = "public"
)

// Classifier maps paths onto classes by longest-matching-prefix over two
// ordered prefix lists. Unmatched paths are public.
type Classifier struct {
	protected []string
	authOnly  []string
}

func NewClassifier(protected, authOnly []string) *Classifier {
	return &Classifier{
		protected: normalize(protected),
		authOnly:  normalize(authOnly),
	}
}

// Classify returns the class of a path. When a path matches prefixes from both
// lists, the longest match wins, so "/login/help" can stay public even if
// "/login" is auth-only.
func (c *Classifier) Classify(path string) Class {
	best := ClassPublic
	bestLen := -1

	for _, prefix := range c.protected {
		if matches(path, prefix) && len(prefix) > bestLen {
			best = ClassProtected
			bestLen = len(prefix)
		}
	}
	for _, prefix := range c.authOnly {
		if matches(path, prefix) && len(prefix) > bestLen {
			best = ClassAuthOnly
			bestLen = len(prefix)
		}
	}
	return best
}

// matches reports whether prefix covers path on a segment boundary, so
// "/chat" matches "/chat" and "/chat/history" but never "/chatter".
func matches(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func normalize(prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if trimmed := strings.TrimRight(p, "/"); trimmed != "" {
			p = trimmed
		}
		out = append(out, p)
	}
	return out
}
