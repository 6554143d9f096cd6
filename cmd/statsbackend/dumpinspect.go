package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-self/dds-statsbackend/internal/graph"
	"github.com/arc-self/dds-statsbackend/internal/persist"
)

func newDumpInspectCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "dump-inspect <snapshot-name>",
		Short: "Load a snapshot and print per-kind entity counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := persist.NewFileStore(dir)
			if err != nil {
				return err
			}
			g := graph.New()
			if err := store.Load(args[0], g); err != nil {
				return err
			}
			snap := g.Dump()
			fmt.Printf("hosts=%d users=%d processes=%d domains=%d topics=%d participants=%d data_readers=%d data_writers=%d locators=%d next_id=%d\n",
				len(snap.Hosts), len(snap.Users), len(snap.Processes), len(snap.Domains),
				len(snap.Topics), len(snap.Participants), len(snap.DataReaders), len(snap.DataWriters),
				len(snap.Locators), snap.NextId)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "./snapshots", "snapshot directory")
	return cmd
}
