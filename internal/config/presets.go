package config

// Presets are named catalogues usable through catalogue_preset.
var Presets = map[string][]string{
	// o1 is the 2013 -O1 pipeline. Several entries are legacy pass-manager names that a
	// modern opt rejects; run "passgraph catalogue validate" to filter them.
	"o1": {
		"targetlibinfo", "tti", "tbaa", "scoped-noalias", "assumption-cache-tracker",
		"profile-summary-info", "forceattrs", "inferattrs", "ipsccp", "called-value-propagation",
		"globalopt", "domtree", "mem2reg", "deadargelim", "basic-aa", "aa", "loops",
		"lazy-branch-prob", "lazy-block-freq", "opt-remark-emitter", "instcombine", "simplifycfg",
		"basiccg", "globals-aa", "prune-eh", "always-inline", "functionattrs", "sroa", "memoryssa",
		"early-cse-memssa", "speculative-execution", "lazy-value-info", "jump-threading",
		"correlated-propagation", "libcalls-shrinkwrap", "branch-prob", "block-freq",
		"pgo-memop-opt", "tailcallelim", "reassociate", "loop-simplify", "lcssa-verification",
		"lcssa", "scalar-evolution", "loop-rotate", "licm", "loop-unswitch", "indvars",
		"loop-idiom", "loop-deletion", "loop-unroll", "memdep", "memcpyopt", "sccp",
		"demanded-bits", "bdce", "dse", "postdomtree", "adce", "barrier", "rpo-functionattrs",
		"globaldce", "float2int", "loop-accesses", "loop-distribute", "loop-vectorize",
		"loop-load-elim", "alignment-from-assumptions", "strip-dead-prototypes", "loop-sink",
		"instsimplify", "div-rem-pairs", "verify", "ee-instrument", "early-cse", "lower-expect",
	},
	"loop": {
		"loop-simplify", "loop-rotate", "loop-idiom", "loop-deletion", "loop-unroll",
		"loop-distribute", "loop-vectorize", "loop-load-elim", "loop-sink",
	},
	"small": {"mem2reg", "sroa", "instcombine", "simplifycfg", "gvn", "dce"},
}
