package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"go-data-sentinel/internal/audit"
	"go-data-sentinel/internal/catalog"
	"go-data-sentinel/internal/config"
	"go-data-sentinel/internal/model"
	"go-data-sentinel/internal/offline"
	"go-data-sentinel/internal/store"
	"go-data-sentinel/internal/validation"
)

func newValidateCmd() *cobra.Command {
	var (
		offlineMode bool
		catalogPath string
	)
	cmd := &cobra.Command{
		Use:   "validate [datasets...]",
		Short: "Validate datasets against their configured rulesets",
		Long: "Replays validation against persisted data outside a live pipeline run.\n" +
			"With no arguments every configured dataset is validated; otherwise only\n" +
			"the named ones. Exits non-zero when any blocking ruleset fails.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !offlineMode {
				return fmt.Errorf("runtime validation runs inside the host pipeline; pass --offline to validate here")
			}

			logger := newLogger()
			defer logger.Sync()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			rulesets, err := cfg.RuleSets()
			if err != nil {
				return err
			}

			selected, err := selectRuleSets(rulesets, args)
			if err != nil {
				return err
			}

			cat, err := catalog.Load(catalogPath)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.Audit.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open audit database: %w", err)
			}
			defer st.Close()

			recorder := audit.NewRecorder(st, logger, audit.DefaultRetryPolicy())
			notifier, err := cfg.BuildNotifier(logger)
			if err != nil {
				return err
			}
			var reportStores []audit.ReportStore
			if cfg.Audit.OutputDir != "" {
				reportStores = append(reportStores, audit.NewFileReportStore(cfg.Audit.OutputDir))
			}

			runner := &offline.Runner{
				Validator:    validation.NewValidator(logger, 0),
				Recorder:     recorder,
				ReportStores: reportStores,
				Notifier:     notifier,
				Logger:       logger,
			}
			reports, err := runner.Run(cmd.Context(), selected, cat)
			if err != nil {
				return err
			}

			blocking := printSummary(reports, rulesets)
			if blocking > 0 {
				return fmt.Errorf("validation failed: %d blocking dataset(s)", blocking)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offlineMode, "offline", false, "validate against a catalog, outside a live pipeline run")
	cmd.Flags().StringVar(&catalogPath, "catalog", "catalog.yml", "path to the dataset catalog file")
	return cmd
}

// selectRuleSets resolves the requested dataset names (or all configured
// ones) into a deterministic evaluation order.
func selectRuleSets(rulesets map[string]*validation.RuleSet, names []string) ([]*validation.RuleSet, error) {
	if len(names) == 0 {
		for name := range rulesets {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	selected := make([]*validation.RuleSet, 0, len(names))
	for _, name := range names {
		rs, ok := rulesets[name]
		if !ok {
			return nil, fmt.Errorf("dataset %q has no configured ruleset", name)
		}
		selected = append(selected, rs)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no datasets configured in %s", configPath)
	}
	return selected, nil
}

// printSummary prints one line per report and returns the number of
// datasets with a blocking failure.
func printSummary(reports []model.ValidationReport, rulesets map[string]*validation.RuleSet) int {
	blocking := 0
	for _, report := range reports {
		passed := 0
		for _, o := range report.Outcomes {
			if o.Passed {
				passed++
			}
		}
		mark := "✅"
		if report.Verdict == model.VerdictFail {
			mark = "❌"
		} else if report.Verdict == model.VerdictWarn {
			mark = "⚠️"
		}
		fmt.Printf("%s %-20s %-5s %d/%d rules passed\n",
			mark, report.Dataset, report.Verdict, passed, len(report.Outcomes))
		for _, o := range report.Outcomes {
			if !o.Passed {
				fmt.Printf("   - %s [%s]: %s\n", o.RuleID, o.Severity, o.Message)
			}
		}
		if rs, ok := rulesets[report.Dataset]; ok && rs.Blocking && report.Verdict == model.VerdictFail {
			blocking++
		}
	}
	return blocking
}
