// Command conductorctl drives a workflow conductor from the command line:
// compose validates and prints a spec's graph, run executes one from a
// fixture of action-execution events, and resume continues a persisted run.
package main

import "os"

func main() {
	os.Exit(Execute())
}
