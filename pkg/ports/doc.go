/*
Package ports defines the driven ports (interfaces) for the passgraph engine.

These interfaces decouple the exploration core from the external tools it drives and
from the backends it persists to, allowing the engine to be exercised with scripted
collaborators in tests and with real compiler tooling in production.

# Key Interfaces

  - Transformer: Applies one named transformation to a representation (e.g. `opt -passes=`).
  - EquivalenceOracle: Reports the differences between two representations (e.g. `llvm-diff`).
  - Frontend: Produces a root representation from a source file (e.g. `clang -emit-llvm`).
  - VerdictCache: Memoizes oracle verdicts by content digest.
  - RunStore: Persists finished exploration runs.
*/
package ports
