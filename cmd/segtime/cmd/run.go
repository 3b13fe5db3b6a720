package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/psantana5/segtime/internal/logging"
	"github.com/psantana5/segtime/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "Run files through the pipeline and print the timing report",
	Long: `Run reads every file, passes it through the configured stages and prints
how long each stage took per file.

Example:
  segtime run src/*.js
  segtime run --exec "uglifyjs -c" --match "require\(" src/*.js
  segtime run --output json --exclude node_modules $(find . -name '*.js')`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: bindRunFlags,
	RunE:    runRun,
}

var summaryCmd = &cobra.Command{
	Use:     "summary FILE...",
	Short:   "Run files through the pipeline and print a per-category overview",
	Args:    cobra.MinimumNArgs(1),
	PreRunE: bindRunFlags,
	RunE:    runSummary,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(summaryCmd)

	for _, c := range []*cobra.Command{runCmd, summaryCmd} {
		addPipelineFlags(c)
		c.Flags().IntP("jobs", "j", 1, "number of files processed at once")
	}
	runCmd.Flags().StringP("output", "o", "text", "output format: text, json, yaml or prom")
}

func bindRunFlags(cmd *cobra.Command, args []string) error {
	if err := bindPipelineFlags(cmd, args); err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("output"); f != nil {
		viper.BindPFlag("output", f)
	}
	return viper.BindPFlag("jobs", cmd.Flags().Lookup("jobs"))
}

func runRun(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(viper.GetString("output"))
	if err != nil {
		return err
	}

	sess, err := runFiles(cmd.Context(), args)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), sess.registry, format)
}

func runSummary(cmd *cobra.Command, args []string) error {
	sess, err := runFiles(cmd.Context(), args)
	if err != nil {
		return err
	}
	return report.WriteSummary(cmd.OutOrStdout(), sess.registry)
}

func runFiles(ctx context.Context, paths []string) (*session, error) {
	logger, _ := logging.WithRun(newLogger("run"), "")

	sess, err := newSession(loadPipelineConfig(), logger)
	if err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs := viper.GetInt("jobs")
	logger.Debug().Int("files", len(paths)).Int("jobs", jobs).Msg("starting run")
	if err := sess.pipeline.RunFiles(ctx, paths, jobs); err != nil {
		return nil, fmt.Errorf("run failed: %w", err)
	}
	return sess, nil
}
