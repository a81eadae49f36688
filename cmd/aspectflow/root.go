package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/aspectflow/internal/config"
	"github.com/crimson-sun/aspectflow/internal/engine/dictionary"
	"github.com/crimson-sun/aspectflow/internal/logging"
)

// newRootCmd builds the command tree. Flag defaults come from cfg, so
// flags override the environment and write straight back into cfg.
func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "aspectflow",
		Short: "Tag utterances with keyword aspects and extract per-speaker aspect sequences",
		Long: `aspectflow tags each utterance of a transcript with the aspect categories
whose keywords it contains, then lists, per speaker, the order in which
aspects came up with immediate repeats collapsed.

Configuration is read from ASPECT_* environment variables (and an optional
.env file); flags override them.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			jsonLogs := cmd.Name() == "sequence" && cfg.Output.Format == "json"
			logging.Init(jsonLogs, logging.ParseLevel(cfg.LogLevel))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.Engine.Dictionary, "dictionary", cfg.Engine.Dictionary, "category dictionary YAML file (overrides --preset)")
	pf.StringVar(&cfg.Engine.Preset, "preset", cfg.Engine.Preset, "built-in dictionary: "+strings.Join(dictionary.Presets(), ", "))
	pf.StringVar(&cfg.Engine.MatchMode, "match-mode", cfg.Engine.MatchMode, "keyword interpretation: pattern or literal")
	pf.BoolVar(&cfg.Engine.Normalize, "normalize", cfg.Engine.Normalize, "apply Unicode NFKC normalization before matching")
	pf.DurationVar(&cfg.Engine.MatchTimeout, "match-timeout", cfg.Engine.MatchTimeout, "per-keyword match timeout")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(
		newSequenceCmd(cfg),
		newTagCmd(cfg),
		newCategoriesCmd(cfg),
	)
	return root
}

// buildDictionary compiles the dictionary selected by cfg.
func buildDictionary(cfg *config.Config) (*dictionary.Dictionary, error) {
	mode, err := dictionary.ParseMatchMode(cfg.Engine.MatchMode)
	if err != nil {
		return nil, err
	}
	return dictionary.Resolve(cfg.Engine.Dictionary, cfg.Engine.Preset,
		dictionary.WithMatchMode(mode),
		dictionary.WithNormalize(cfg.Engine.Normalize),
		dictionary.WithMatchTimeout(cfg.Engine.MatchTimeout),
	)
}
