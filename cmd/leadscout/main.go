package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"LeadScout/internal/app"
	"LeadScout/internal/config"
	"LeadScout/internal/domain"
	"LeadScout/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "leadscout",
		Short:         "Scan company news and turn it into customer success leads",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default $LEADSCOUT_CONFIG)")

	root.AddCommand(scanCommand(&cfgFile), serveCommand(&cfgFile), recentCommand(&cfgFile))
	return root
}

// withApp loads configuration, builds the application and closes it after run.
func withApp(ctx context.Context, cfgFile string, run func(*app.Application, config.Config) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := application.Close(closeCtx); err != nil {
			logger.Error("close application", "error", err)
		}
	}()

	return run(application, cfg)
}

func scanCommand(cfgFile *string) *cobra.Command {
	var (
		target      string
		companies   []string
		window      string
		autoApprove bool
		review      bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Fetch recent news, evaluate it and queue or commit the resulting leads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(companies) > 0 && target == "" {
				return fmt.Errorf("--company requires --target")
			}
			if review && autoApprove {
				return fmt.Errorf("--review and --auto-approve are mutually exclusive")
			}

			return withApp(cmd.Context(), *cfgFile, func(a *app.Application, cfg config.Config) error {
				if window == "" {
					window = cfg.Pipeline.DefaultLookback
				}
				lookback, err := domain.ParseLookback(window)
				if err != nil {
					return err
				}

				runs, err := a.Scan(cmd.Context(), app.ScanOptions{
					Target:      target,
					Companies:   companies,
					Lookback:    lookback,
					AutoApprove: autoApprove,
				})
				printRuns(cmd.OutOrStdout(), runs)
				if err != nil || !review {
					return err
				}
				for _, run := range runs {
					if len(run.Pending) == 0 {
						continue
					}
					if err := reviewTarget(cmd, a, run.Target); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "target key (default: every configured target)")
	cmd.Flags().StringSliceVar(&companies, "company", nil, "tracked companies to scan (default: all of the target's)")
	cmd.Flags().StringVar(&window, "range", "", "lookback window, 1d to 30d")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "commit every queued lead after the scan")
	cmd.Flags().BoolVar(&review, "review", false, "approve or reject queued leads interactively after the scan")
	return cmd
}

func serveCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled scans with auto-approval until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *cfgFile, func(a *app.Application, _ config.Config) error {
				return a.Serve(cmd.Context())
			})
		},
	}
}

func recentCommand(cfgFile *string) *cobra.Command {
	var (
		limit  int
		target string
		review bool
	)

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently committed leads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if review && target == "" {
				return fmt.Errorf("--review requires --target")
			}

			return withApp(cmd.Context(), *cfgFile, func(a *app.Application, _ config.Config) error {
				if target == "" {
					leads, err := a.Recent(cmd.Context(), limit)
					if err != nil {
						return err
					}
					printLeads(cmd.OutOrStdout(), leads)
					return nil
				}

				leads, err := a.ReloadRecent(cmd.Context(), target, limit)
				if err != nil {
					return err
				}
				printLeads(cmd.OutOrStdout(), leads)
				if !review {
					return nil
				}
				return reviewTarget(cmd, a, target)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of leads to show")
	cmd.Flags().StringVar(&target, "target", "", "load the leads into this target's review queue")
	cmd.Flags().BoolVar(&review, "review", false, "review the loaded leads interactively (requires --target)")
	return cmd
}

func reviewTarget(cmd *cobra.Command, a *app.Application, target string) error {
	session, err := a.Session(target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nreviewing %s\n", target)
	sum, err := app.Review(cmd.Context(), session, cmd.InOrStdin(), out)
	fmt.Fprintf(out, "%s: %d committed, %d dropped, %d rejected, %d skipped", target, sum.Committed, sum.Dropped, sum.Rejected, sum.Skipped)
	if sum.Cleared {
		fmt.Fprint(out, ", queue cleared")
	}
	fmt.Fprintln(out)
	return err
}

func printRuns(w io.Writer, runs []app.TargetRun) {
	for _, run := range runs {
		r := run.Report
		fmt.Fprintf(w, "%s: %d companies, %d articles, %d queued, %d discarded, %d duplicates, %d failed sources\n",
			run.Target, r.Companies, r.Articles, r.Queued, r.Discarded, r.Duplicates, r.Failed)
		if run.ScanErr != nil {
			fmt.Fprintf(w, "  scan error: %v\n", run.ScanErr)
		}
		for _, res := range run.Results {
			if res.Lead == nil {
				continue
			}
			fmt.Fprintf(w, "  %-13s %s (%s)\n", res.Outcome, res.Lead.Title, res.Lead.URL)
		}
		if len(run.Pending) > 0 {
			fmt.Fprintf(w, "  pending review:\n")
			printLeads(w, run.Pending)
		}
	}
}

func printLeads(w io.Writer, leads []domain.Lead) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tCOMPANY\tVALUE\tTITLE\tURL")
	for _, l := range leads {
		types := make([]string, 0, len(l.ValueTypes))
		for _, t := range l.ValueTypes {
			types = append(types, string(t))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", l.Score(), l.Company, strings.Join(types, ","), l.Title, l.URL)
	}
	_ = tw.Flush()
}
