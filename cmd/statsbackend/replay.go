package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arc-self/dds-statsbackend/internal/graph"
	"github.com/arc-self/dds-statsbackend/internal/ingest"
	"github.com/arc-self/dds-statsbackend/internal/persist"
	"github.com/arc-self/dds-statsbackend/internal/resolve"
)

func newReplayCommand() *cobra.Command {
	var out, dir string

	cmd := &cobra.Command{
		Use:   "replay <events-file>",
		Short: "Feed a newline-delimited JSON event recording through the resolver and save the resulting snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, _ := zap.NewProduction()
			defer logger.Sync()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("replay: open %s: %w", args[0], err)
			}
			defer f.Close()

			g := graph.New()
			resolver := resolve.New(g, logger)

			scanner := bufio.NewScanner(f)
			scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
			var processed, dropped int
			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				ev, err := ingest.DecodeEvent(line)
				if err != nil {
					dropped++
					logger.Warn("skipping malformed recorded event", zap.Error(err))
					continue
				}
				resolver.ProcessOne(ev)
				processed++
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("replay: scan %s: %w", args[0], err)
			}

			logger.Info("replay complete", zap.Int("processed", processed), zap.Int("dropped", dropped))

			if out != "" {
				store, err := persist.NewFileStore(dir)
				if err != nil {
					return err
				}
				if err := store.Save(out, g); err != nil {
					return err
				}
				logger.Info("replay snapshot written", zap.String("name", out), zap.String("dir", dir))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "save-as", "", "snapshot name to save the resulting graph under (skipped if empty)")
	cmd.Flags().StringVar(&dir, "dir", "./snapshots", "snapshot directory")
	return cmd
}
