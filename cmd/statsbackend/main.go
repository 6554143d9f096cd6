// Command statsbackend runs the DDS statistics backend: an in-process
// EntityGraph fed by a SampleQueue/SampleResolver pair, reachable over NATS
// JetStream, with explicit snapshot tooling for operators.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "statsbackend [command]",
		Short: "DDS middleware statistics backend",
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newDumpInspectCommand())
	root.AddCommand(newReplayCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
