package domain

import "path/filepath"

// Representation is an opaque unit of program state.
// Graph identity is never derived from it: two representations are the same state only
// when the equivalence oracle says so.
type Representation struct {
	// Path locates the artifact (usually an IR file produced by a tool).
	Path string `json:"path" yaml:"path"`
	// Digest is an optional content digest. It is only used to key cached oracle verdicts.
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// Name returns a short human label for logs.
func (r Representation) Name() string {
	if r.Path == "" {
		return "<anonymous>"
	}
	return filepath.Base(r.Path)
}

// IsZero reports whether the representation carries no handle at all.
func (r Representation) IsZero() bool {
	return r.Path == "" && r.Digest == ""
}
