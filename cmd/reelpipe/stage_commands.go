package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelpipe/internal/pipeline"
)

type stageCommandSpec struct {
	name  string
	short string
}

var stageCommandSpecs = []stageCommandSpec{
	{pipeline.StageDiscover, "Poll channel feeds and record new videos"},
	{pipeline.StageShorts, "Drop shorts from the ledger"},
	{pipeline.StageRelabel, "Mark fetched items ready for promotion"},
	{pipeline.StageCheck, "Revert items whose metadata file disappeared"},
	{pipeline.StagePromote, "Move complete asset sets to the uploadable directory"},
	{pipeline.StageEdit, "Trim videos and append the complement clip"},
	{pipeline.StageRewrite, "Rewrite publish metadata with the LLM"},
	{pipeline.StagePublish, "Send previews, wait for approval and upload"},
}

func newStageCommands(ctx *commandContext) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(stageCommandSpecs)+2)
	for _, spec := range stageCommandSpecs {
		cmds = append(cmds, newSingleStageCommand(ctx, spec))
	}
	cmds = append(cmds, newFetchCommand(ctx), newPruneCommand(ctx))
	return cmds
}

func newSingleStageCommand(ctx *commandContext, spec stageCommandSpec) *cobra.Command {
	return &cobra.Command{
		Use:   spec.name,
		Short: spec.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, ctx, pipeline.Options{}, spec.name)
		},
	}
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var scrape bool
	cmd := &cobra.Command{
		Use:   pipeline.StageFetch,
		Short: "Write metadata files for pending videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(cmd, ctx, pipeline.Options{Scrape: scrape}, pipeline.StageFetch)
		},
	}
	cmd.Flags().BoolVar(&scrape, "scrape", false, "Read public watch pages instead of the Data API")
	return cmd
}

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var shorts bool
	cmd := &cobra.Command{
		Use:   pipeline.StagePrune,
		Short: "Keep only the newest ledger entries per channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := []string{pipeline.StagePrune}
			if shorts {
				names = []string{pipeline.StageShorts, pipeline.StagePrune}
			}
			return runStages(cmd, ctx, pipeline.Options{}, names...)
		},
	}
	cmd.Flags().BoolVar(&shorts, "shorts", false, "Drop shorts before pruning")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var stages string
	var scrape bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline stages in order",
		Long: "Run executes every stage in order, or the comma-separated --stages selection.\n" +
			"A failing stage is reported and the remaining stages still run.\n\n" +
			"Stages: " + strings.Join(pipeline.DefaultOrder, ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd, pipeline.Options{Scrape: scrape}, func(runCtx context.Context, _ *pipeline.Env, p *pipeline.Pipeline) error {
				names, err := p.Stages(stages)
				if err != nil {
					return err
				}
				return finishRun(cmd, names, p.Run(runCtx, names))
			})
		},
	}
	cmd.Flags().StringVar(&stages, "stages", "", "Comma-separated stages to run (default: all)")
	cmd.Flags().BoolVar(&scrape, "scrape", false, "Use the watch-page backup in the fetch stage")
	return cmd
}

func runStages(cmd *cobra.Command, ctx *commandContext, opts pipeline.Options, names ...string) error {
	return ctx.withPipeline(cmd, opts, func(runCtx context.Context, _ *pipeline.Env, p *pipeline.Pipeline) error {
		return finishRun(cmd, names, p.Run(runCtx, names))
	})
}

func finishRun(cmd *cobra.Command, names []string, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Completed: %s\n", strings.Join(names, ", "))
	return nil
}
