package model

import "errors"

// Sentinel errors for the fatal failure classes. Recoverable conditions
// (parse failures, oversized entities) are reported as Warnings instead.
var (
	// ErrConfig marks configuration rejected before any parsing begins.
	ErrConfig = errors.New("invalid configuration")

	// ErrInvariant marks a violated structural invariant: a cycle that
	// survived condensation or a broken partition. It signals a defect in
	// the analysis, never a recoverable input condition.
	ErrInvariant = errors.New("invariant violation")
)

// WarningKind labels a recoverable, user-visible condition.
type WarningKind string

const (
	WarnParseFailure    WarningKind = "parse_failure"
	WarnOversizedEntity WarningKind = "oversized_entity"
	WarnOversizedModule WarningKind = "oversized_module"
)

// Warning records a recoverable condition surfaced to the user. Path is set
// for parse failures, EntityID for oversized entities and as a locator for
// oversized modules (their first member).
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Path     string      `json:"path,omitempty"`
	EntityID string      `json:"entity_id,omitempty"`
	Message  string      `json:"message"`
}
