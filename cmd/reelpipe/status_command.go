package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"reelpipe/internal/config"
	"reelpipe/internal/ledger"
	"reelpipe/internal/pipeline"
	"reelpipe/internal/preflight"
)

type statusCount struct {
	Status string `json:"status"`
	Items  int    `json:"items"`
}

type statusCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

type statusItem = ledger.WorkItem

type statusReport struct {
	LedgerFile string        `json:"ledger_file"`
	Total      int           `json:"total"`
	Counts     []statusCount `json:"counts"`
	Items      []statusItem  `json:"items"`
	Checks     []statusCheck `json:"checks"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var checkLLM bool
	var recent int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show ledger counts and environment checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			report, err := buildStatusReport(runCtx, cfg, checkLLM)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, report)
			}
			renderStatus(cmd.OutOrStdout(), report, recent)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	cmd.Flags().BoolVar(&checkLLM, "check-llm", false, "Also call the LLM endpoint")
	cmd.Flags().IntVar(&recent, "recent", 15, "Number of most recent ledger items to list (0 hides the list)")
	return cmd
}

func buildStatusReport(ctx context.Context, cfg *config.Config, checkLLM bool) (statusReport, error) {
	items, err := ledger.NewStore(cfg.Paths.LedgerFile).Load()
	if err != nil {
		return statusReport{}, err
	}
	counts := ledger.CountByStatus(items)
	report := statusReport{LedgerFile: cfg.Paths.LedgerFile, Total: len(items), Items: items}
	for _, status := range ledger.AllStatuses() {
		report.Counts = append(report.Counts, statusCount{Status: string(status), Items: counts[status]})
	}

	results := preflight.RunAll(ctx, cfg, pipeline.NeedsFor(pipeline.StageEdit, pipeline.StageAdd))
	results = append(results,
		presence("Telegram", cfg.TelegramEnabled(), "bot token and chat id set", "notifications and publishing disabled"),
		presence("YouTube Data API", strings.TrimSpace(cfg.YouTube.APIKey) != "", "api key set", "fetch falls back to scraping"),
		preflight.CheckFile("YouTube client secrets", cfg.YouTube.ClientSecretsFile),
		preflight.CheckFile("YouTube token", cfg.YouTube.TokenFile),
	)
	if checkLLM {
		results = append(results, preflight.CheckLLM(ctx, "LLM", cfg.LLM))
	} else {
		results = append(results, presence("LLM", strings.TrimSpace(cfg.LLM.APIKey) != "", cfg.LLM.Provider+" key set", "rewrite keeps source metadata"))
	}
	for _, r := range results {
		report.Checks = append(report.Checks, statusCheck(r))
	}
	return report, nil
}

func presence(name string, ok bool, okDetail, missingDetail string) preflight.Result {
	if ok {
		return preflight.Result{Name: name, Passed: true, Detail: okDetail}
	}
	return preflight.Result{Name: name, Detail: missingDetail}
}
