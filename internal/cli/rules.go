package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rwoody/mdc/pkg/config"
	"github.com/rwoody/mdc/pkg/rule"
)

// RuleArgs are the flags shared by every command that opens a rule set.
type RuleArgs struct {
	ConfigPath string
	RulesPath  string
}

func (ra *RuleArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ra.ConfigPath, "config", "", "Path to the mdc configuration file")
	cmd.Flags().StringVar(&ra.RulesPath, "rules", "", "Path to the rules directory, overriding discovery")

	err := cmd.MarkFlagFilename("config", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}

	err = cmd.MarkFlagDirname("rules")
	if err != nil {
		panic(fmt.Errorf("mark rules flag: %w", err))
	}
}

// loadConfig loads the active configuration, writing the default config files
// on first use. An unreadable config falls back to defaults; an invalid one is
// an error.
func loadConfig(configPath string) (*config.Config, error) {
	cfg := config.NewConfig()

	if configPath == "" {
		configPath = config.GetPath()
	}

	err := config.WriteDefaultConfig(configPath, false)
	if err != nil {
		slog.Error("write default config", slog.Any("err", err))
	}

	cl, err := config.NewConfigLoaderFromFile(configPath)
	if err != nil {
		slog.Warn("could not read config, using defaults", slog.Any("err", err))

		return cfg, nil
	}

	err = cl.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", configPath, err)
	}

	cfg, err = cl.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", configPath, err)
	}

	return cfg, nil
}

// findRulesRoot determines the rules root directory: the --rules flag wins,
// then a configured path, then discovery by walking up from the target.
func findRulesRoot(ra *RuleArgs, cfg *config.Config, target string) (string, error) {
	if ra.RulesPath != "" {
		return ra.RulesPath, nil
	}

	if cfg.Rules.Path != "" {
		return cfg.Rules.Path, nil
	}

	root, err := rule.FindRoot(target, cfg.Rules.RootNames)
	if err != nil {
		return "", fmt.Errorf("discover rules root: %w", err)
	}
	if root == "" {
		return "", fmt.Errorf("no rules directory found (tried %v, walking up from %q)", cfg.Rules.RootNames, target)
	}

	return root, nil
}

// openSource loads the rule set for the given target path.
func openSource(ra *RuleArgs, target string) (*rule.Source, error) {
	cfg, err := loadConfig(ra.ConfigPath)
	if err != nil {
		return nil, err
	}

	root, err := findRulesRoot(ra, cfg, target)
	if err != nil {
		return nil, err
	}

	src, err := rule.NewSource(root, rule.WithExtensions(cfg.Rules.Extensions...))
	if err != nil {
		return nil, fmt.Errorf("load rules from %q: %w", root, err)
	}

	for _, issue := range src.Get().Issues() {
		slog.Warn("rule document skipped", slog.Any("err", issue))
	}

	return src, nil
}

// tryGetRuleIDs loads the rule set to provide identifier completions. Unlike
// openSource it never writes config files, and any failure yields no
// completions.
func tryGetRuleIDs(ra *RuleArgs, target string) []cobra.Completion {
	cfg := config.NewConfig()

	configPath := ra.ConfigPath
	if configPath == "" {
		configPath = config.GetPath()
	}

	if cl, err := config.NewConfigLoaderFromFile(configPath); err == nil {
		if c, err := cl.Load(); err == nil {
			cfg = c
		}
	}

	root, err := findRulesRoot(ra, cfg, target)
	if err != nil {
		return nil
	}

	set, err := rule.Load(root, rule.WithExtensions(cfg.Rules.Extensions...))
	if err != nil {
		return nil
	}

	docs := set.Documents()
	completions := make([]cobra.Completion, 0, len(docs))
	for _, doc := range docs {
		completions = append(completions, cobra.CompletionWithDesc(doc.ID, doc.Description))
	}

	return completions
}

func ruleIDCompletion(ra *RuleArgs) cobra.CompletionFunc {
	return func(_ *cobra.Command, _ []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
		return tryGetRuleIDs(ra, "."), cobra.ShellCompDirectiveNoFileComp
	}
}
