package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/library"
	"alcyxob/wellness-app/internal/planner"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "planctl",
		Short: "Generate and inspect protocol session plans",
		Long: `planctl expands protocol templates into dated session plans and
summarizes plan files without a running server or database.`,
		SilenceUsage: true,
	}
	root.AddCommand(newGenerateCmd(), newSummarizeCmd(), newLibraryCmd())
	return root
}

type generateOptions struct {
	template string
	slug     string
	start    string
	perWeek  int
	out      string
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a plan from a protocol template",
		Example: `  planctl generate --template strength.yaml --start 2024-01-01 --per-week 3
  planctl generate --slug metabolic-protocol --out plan.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.template, "template", "", "protocol template YAML file")
	cmd.Flags().StringVar(&opts.slug, "slug", "", "protocol slug from the built-in library")
	cmd.Flags().StringVar(&opts.start, "start", "", "start date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVar(&opts.perWeek, "per-week", 0, "sessions per week, overrides the template")
	cmd.Flags().StringVar(&opts.out, "out", "", "write the plan to this file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("template", "slug")
	cmd.MarkFlagsOneRequired("template", "slug")
	return cmd
}

func runGenerate(stdout io.Writer, opts *generateOptions) error {
	protocol, err := resolveProtocol(opts)
	if err != nil {
		return err
	}

	var start time.Time
	if opts.start != "" {
		start, err = time.Parse(time.DateOnly, opts.start)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	if opts.perWeek < 0 {
		return fmt.Errorf("--per-week must not be negative")
	}

	plan := planner.Generate(protocol, planner.GenerateOptions{
		StartDate:       start,
		SessionsPerWeek: opts.perWeek,
	})

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	if opts.out == "" {
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}
	if err := os.WriteFile(opts.out, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	fmt.Fprintf(stdout, "wrote %d sessions to %s\n", len(plan.Sessions), opts.out)
	return nil
}

func resolveProtocol(opts *generateOptions) (*domain.Protocol, error) {
	if opts.template != "" {
		return library.LoadTemplate(opts.template)
	}
	protocols, err := library.Default()
	if err != nil {
		return nil, err
	}
	for i := range protocols {
		if protocols[i].Slug == opts.slug {
			return &protocols[i], nil
		}
	}
	return nil, fmt.Errorf("no protocol with slug %q in the built-in library", opts.slug)
}

func newSummarizeCmd() *cobra.Command {
	var planPath string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize progress of a plan file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSummarize(cmd.OutOrStdout(), planPath)
		},
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "plan JSON file as written by generate")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func runSummarize(stdout io.Writer, planPath string) error {
	data, err := os.ReadFile(planPath)
	if err != nil {
		return fmt.Errorf("read plan: %w", err)
	}
	var plan domain.AssignmentPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return fmt.Errorf("decode plan: %w", err)
	}

	summary := planner.Summarize(&plan)
	fmt.Fprintf(stdout, "sessions:   %d\n", summary.TotalSessions)
	fmt.Fprintf(stdout, "completed:  %d\n", summary.CompletedSessions)
	fmt.Fprintf(stdout, "skipped:    %d\n", summary.SkippedSessions)
	fmt.Fprintf(stdout, "completion: %.0f%%\n", summary.CompletionRate*100)
	if next := summary.NextSession; next != nil {
		fmt.Fprintf(stdout, "next:       %s %s (%s)\n", next.ScheduledDate.Format(time.DateOnly), next.Title, next.ID)
	} else {
		fmt.Fprintln(stdout, "next:       none")
	}
	return nil
}

func newLibraryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "library",
		Short: "List the built-in curated protocols",
		RunE: func(cmd *cobra.Command, _ []string) error {
			protocols, err := library.Default()
			if err != nil {
				return err
			}
			for _, p := range protocols {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s (%d weeks)\n", p.Slug, p.Name, p.DurationWeeks)
			}
			return nil
		},
	}
}
