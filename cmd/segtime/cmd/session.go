package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/psantana5/segtime/internal/pipeline"
	"github.com/psantana5/segtime/internal/profile"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// pipelineConfig is the pipeline shape shared by run, summary and serve
type pipelineConfig struct {
	Category   string
	Exclude    string
	Exec       string
	Match      string
	Dump       bool
	DumpExt    string
	DumpFilter string
	Absolute   bool
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("category", "stages", "label of the timing category (empty for a generated label)")
	cmd.Flags().String("exclude", "", "regular expression of files to leave out of the report")
	cmd.Flags().String("exec", "", "external command each file's contents are piped through")
	cmd.Flags().String("match", "", "regular expression to search each file for")
	cmd.Flags().Bool("dump", false, "write each file's final contents next to it")
	cmd.Flags().String("dump-ext", pipeline.DefaultDumpExt, "extension appended to dumped files")
	cmd.Flags().String("dump-filter", "", "regular expression of files to dump (default all)")
	cmd.Flags().Bool("absolute", false, "print file names as given instead of relative to the working directory")
}

// bindPipelineFlags binds the running command's flags; viper keeps only
// the last binding per key so this runs in PreRunE.
func bindPipelineFlags(cmd *cobra.Command, _ []string) error {
	for key, flag := range map[string]string{
		"pipeline.category":    "category",
		"pipeline.exclude":     "exclude",
		"pipeline.exec":        "exec",
		"pipeline.match":       "match",
		"pipeline.dump":        "dump",
		"pipeline.dump_ext":    "dump-ext",
		"pipeline.dump_filter": "dump-filter",
		"pipeline.absolute":    "absolute",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

func loadPipelineConfig() pipelineConfig {
	return pipelineConfig{
		Category:   viper.GetString("pipeline.category"),
		Exclude:    viper.GetString("pipeline.exclude"),
		Exec:       viper.GetString("pipeline.exec"),
		Match:      viper.GetString("pipeline.match"),
		Dump:       viper.GetBool("pipeline.dump"),
		DumpExt:    viper.GetString("pipeline.dump_ext"),
		DumpFilter: viper.GetString("pipeline.dump_filter"),
		Absolute:   viper.GetBool("pipeline.absolute"),
	}
}

// session is one profiled pipeline and the registry it reports into
type session struct {
	registry *profile.Registry
	stages   *profile.Category
	pipeline *pipeline.Pipeline
}

func newSession(cfg pipelineConfig, logger zerolog.Logger) (*session, error) {
	var opts []profile.Option
	if cfg.Exclude != "" {
		re, err := regexp.Compile(cfg.Exclude)
		if err != nil {
			return nil, fmt.Errorf("invalid --exclude: %w", err)
		}
		opts = append(opts, profile.WithExcludePattern(re))
	}
	if !cfg.Absolute {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		opts = append(opts, profile.WithDisplayName(relativeTo(wd)))
	}

	registry := profile.NewRegistry()
	stages := registry.ForCategory(cfg.Category, opts...)

	p := pipeline.New(logger)
	p.OnStart(stages.Start("read").Record)

	if fields := strings.Fields(cfg.Exec); len(fields) > 0 {
		p.Use(pipeline.Profiled(stages, "exec", pipeline.Exec(fields[0], fields[1:]...)))
	}
	if cfg.Match != "" {
		re, err := regexp.Compile(cfg.Match)
		if err != nil {
			return nil, fmt.Errorf("invalid --match: %w", err)
		}
		p.Use(pipeline.Profiled(stages, "match", pipeline.Match(re, func(entity string, matches []string) {
			logger.Info().Str("entity", entity).Int("matches", len(matches)).Strs("found", matches).Msg("match")
		})))
	}
	if cfg.Dump {
		var filter *regexp.Regexp
		if cfg.DumpFilter != "" {
			re, err := regexp.Compile(cfg.DumpFilter)
			if err != nil {
				return nil, fmt.Errorf("invalid --dump-filter: %w", err)
			}
			filter = re
		}
		p.Use(pipeline.Profiled(stages, "dump", pipeline.DumpToFile(cfg.DumpExt, filter)))
	}
	p.Use(pipeline.Mark(stages.Stop()))

	return &session{
		registry: registry,
		stages:   stages,
		pipeline: p,
	}, nil
}

// relativeTo shortens entity paths against base when possible
func relativeTo(base string) func(string) string {
	return func(entity string) string {
		abs, err := filepath.Abs(entity)
		if err != nil {
			return entity
		}
		rel, err := filepath.Rel(base, abs)
		if err != nil {
			return entity
		}
		return rel
	}
}
