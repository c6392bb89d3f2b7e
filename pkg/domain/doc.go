/*
Package domain contains the core domain models for the passgraph exploration engine.

It defines the entities shared between the state graph, the exploration runtime and
the adapters: opaque program Representations, the DifferenceReport produced by an
equivalence oracle, lifecycle events and the serializable RunRecord. This package is
kept pure and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - Representation: An opaque handle to one program state (an IR file on disk).
  - DifferenceReport: The additions/deletions an oracle reports between two representations.
  - LifecycleHooks: Callbacks fired while a graph is explored (admissions, merges, failures).
  - RunRecord: A finished exploration with canonical node labels, ready to persist or serve.
*/
package domain
