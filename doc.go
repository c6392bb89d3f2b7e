/*
Package passgraph explores the state space a catalogue of program transformations can
reach from a starting program.

Starting from a root representation, the explorer applies every transformation of the
catalogue to every discovered state, breadth first. Each candidate is compared against
every known state with an external equivalence oracle: an equivalent candidate becomes an
edge to the existing state (labels of parallel edges are merged), anything else becomes a
new state to expand. Runs stop when the frontier is exhausted or a node or time ceiling is
reached, and the resulting graph is analyzed for strongly and weakly connected components.

The collaborators are ports. pkg/adapters/process wires them to external tools (opt,
llvm-diff and clang by default); pkg/adapters/memory offers scripted fakes.

# Usage

	transformer := process.NewTransformer(runner, workDir)
	oracle := process.NewOracle(runner)

	explorer, err := passgraph.New(transformer, oracle, []string{"mem2reg", "sroa", "gvn"},
		passgraph.WithBounds(10000, time.Hour),
		passgraph.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}

	run, err := explorer.Explore(ctx, domain.Representation{Path: "main.ll"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(run.StopReason, run.Graph.NodeCount(), len(run.Components.Strong))

Partial graphs are valid results: the only error Explore returns is a graph bookkeeping
violation.
*/
package passgraph
