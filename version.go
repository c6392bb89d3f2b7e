package passgraph

// Version is the library version, overridden at build time for releases.
var Version = "0.1.0-dev"
