// Package errors collects the engine's typed error taxonomy. Most game
// "failures" (Fizzle, LibraryEmpty, MissingTemplate) are normal paths
// handled inside the reducer rather than errors; only IllegalAction
// crosses the apply boundary (§7).
package errors

import "strings"

// NotFoundError represents a resource not found error, used by the
// in-memory repository and delivery layers.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " with ID " + e.ID + " not found"
}

// IllegalAction is returned by apply when a submitted action fails
// validation. Clauses lists every independent reason it failed, since
// §7 requires validation errors to enumerate all failing clauses rather
// than stopping at the first one.
type IllegalAction struct {
	Kind    string
	Clauses []string
}

func (e *IllegalAction) Error() string {
	return "illegal action " + e.Kind + ": " + strings.Join(e.Clauses, "; ")
}

// NewIllegalAction builds an IllegalAction with the given failing
// clauses.
func NewIllegalAction(kind string, clauses ...string) *IllegalAction {
	return &IllegalAction{Kind: kind, Clauses: clauses}
}
