// Command wsm manages a multi-repository development workspace built
// on a superrepo + subtree model: child repositories are folded into
// an aggregating repository with history-preserving subtree merges,
// and versioned releases land in an artifact repository together with
// hash-backed manifests.
package main

func main() {
	Execute()
}
