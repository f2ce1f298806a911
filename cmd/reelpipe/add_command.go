package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reelpipe/internal/pipeline"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Track a single video by URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd, pipeline.Options{}, func(runCtx context.Context, env *pipeline.Env, p *pipeline.Pipeline) error {
				if err := p.Preflight(runCtx, pipeline.StageAdd); err != nil {
					return err
				}
				report, err := p.RunStage(runCtx, pipeline.NewAdd(env, args[0]))
				if err != nil {
					return err
				}
				for _, entry := range report.Succeeded {
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s\n", entry.VideoID, entry.Title)
				}
				return nil
			})
		},
	}
}
