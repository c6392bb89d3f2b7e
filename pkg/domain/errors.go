package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownNode is matched (via errors.Is) by every graph error that references a node
// id which was never inserted.
var ErrUnknownNode = errors.New("unknown node")

// ErrEmptyLabel is returned when an edge would be created without a transformation name.
var ErrEmptyLabel = errors.New("edge label must not be empty")

// ErrGraphFrozen is returned when a frozen graph is mutated.
var ErrGraphFrozen = errors.New("graph is frozen")

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrCacheMiss is returned by verdict caches that hold no verdict for a pair.
var ErrCacheMiss = errors.New("verdict not cached")

// UnknownNodeError reports an edge endpoint that is not part of the graph.
type UnknownNodeError struct {
	ID int
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %d", e.ID)
}

// Is makes UnknownNodeError match ErrUnknownNode.
func (e *UnknownNodeError) Is(target error) bool {
	return target == ErrUnknownNode
}

// InvalidParentError reports a parent id that is not part of the graph.
type InvalidParentError struct {
	ID int
}

func (e *InvalidParentError) Error() string {
	return fmt.Sprintf("invalid parent node %d", e.ID)
}

// Is makes InvalidParentError match ErrUnknownNode.
func (e *InvalidParentError) Is(target error) bool {
	return target == ErrUnknownNode
}

// CollaboratorKind names the external tool that failed.
type CollaboratorKind string

const (
	KindTransformation CollaboratorKind = "transformation"
	KindEquivalence    CollaboratorKind = "equivalence"
	KindFrontend       CollaboratorKind = "frontend"
)

// CollaboratorError wraps a failed external invocation.
// The runtime recovers from it locally: the candidate is skipped or the pair is
// treated as not equivalent.
type CollaboratorError struct {
	Kind CollaboratorKind
	Name string
	Err  error
}

func (e *CollaboratorError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s collaborator failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s collaborator %q failed: %v", e.Kind, e.Name, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
