/*
Package graph implements the state graph built by an exploration run.

Nodes wrap admitted representations and are identified by their creation index.
Edges are directed and carry the ordered set of transformation names that produce
the target from the source. At most one edge exists per ordered (source, target) pair;
a second transformation for the same transition is merged into the existing label set.

The graph only grows. Once Freeze is called it becomes read-only and is safe to hand
to the connectivity analyzer and exporters.
*/
package graph
