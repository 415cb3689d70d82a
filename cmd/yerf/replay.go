package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/yerf"
	"github.com/aretw0/yerf/internal/presentation/tui"
	"github.com/aretw0/yerf/internal/scenario"
	httpAdapter "github.com/aretw0/yerf/pkg/adapters/http"
	"github.com/aretw0/yerf/pkg/reporting"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <scenario.yaml>",
	Short: "Replay a scripted trace and print the resulting sample tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		post, _ := cmd.Flags().GetBool("post")

		sc, err := scenario.LoadFile(args[0])
		if err != nil {
			return err
		}
		res, err := scenario.Replay(sc, yerf.WithLogger(logger))
		if err != nil {
			return err
		}
		for _, e := range res.Errors {
			logger.Warn("sample error", "err", e)
		}

		tracker := res.Tracker
		if err := render(cmd, format, tracker); err != nil {
			return err
		}

		if !post {
			return nil
		}
		if cfg.PostEndpoint == "" {
			return fmt.Errorf("--post needs postEndpoint in the config")
		}
		sink := httpAdapter.NewSink(cfg.PostEndpoint, httpAdapter.WithGzip(cfg.Gzip))
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		n, err := reporting.NewScheduler(tracker, sink, reporting.WithLogger(logger)).Flush(ctx)
		if err != nil {
			return err
		}
		logger.Info("posted samples", "entries", n, "endpoint", cfg.PostEndpoint)
		return nil
	},
}

func render(cmd *cobra.Command, format string, t *yerf.Tracker) error {
	out := cmd.OutOrStdout()
	switch format {
	case "tree":
		return tui.PrintTree(out, t.Snapshot())
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(t.Snapshot())
	case "markdown":
		md, err := tui.NewRenderer()
		if err != nil {
			return err
		}
		text, err := md(tui.EntryTable("samples", t.ListUnreported(true)))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, text)
		return err
	}
	return fmt.Errorf("unknown format %q (want tree, json or markdown)", format)
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringP("format", "f", "tree", "Output format: tree, json or markdown")
	replayCmd.Flags().Bool("post", false, "Post the replayed samples to postEndpoint")
}
