package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rwoody/mdc/pkg/config"
	"github.com/rwoody/mdc/pkg/rule"
)

const (
	cmdExamples = `  # Cat the rules that apply to a file:
  mdc src/App.tsx

  # Include specific rules regardless of matching:
  mdc src/App.tsx --rule testing --rule security

  # Structured output:
  mdc src/App.tsx -o json

  # Watch the rules directory and re-resolve on changes:
  mdc src/App.tsx --watch

  # Use an explicit rules directory:
  mdc src/App.tsx --rules ./docs/rules`
)

type ResolveArgs struct {
	*RootArgs
	RuleArgs

	Target      string
	Output      string
	Rules       []string
	Watch       bool
	WriteConfig bool
	ShowConfig  bool
}

func NewResolveArgs(rootArgs *RootArgs) *ResolveArgs {
	return &ResolveArgs{
		RootArgs: rootArgs,
	}
}

func (ra *ResolveArgs) AddFlags(cmd *cobra.Command) {
	ra.RuleArgs.AddFlags(cmd)

	cmd.Flags().StringArrayVarP(&ra.Rules, "rule", "r", nil, "Rule identifier to include explicitly, repeatable")
	cmd.Flags().StringVarP(&ra.Output, "output", "o", outputText, fmt.Sprintf("Output format, one of: %v", outputFormats))
	cmd.Flags().BoolVarP(&ra.Watch, "watch", "w", false, "Watch the rules directory and re-resolve on changes")
	cmd.Flags().BoolVar(&ra.WriteConfig, "write-config", false, "Write the default configuration files and exit")
	cmd.Flags().BoolVar(&ra.ShowConfig, "show-config", false, "Print the active configuration and exit")

	err := cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(outputFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("rule", ruleIDCompletion(&ra.RuleArgs))
	if err != nil {
		panic(err)
	}
}

func NewResolveCmd(ra *ResolveArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "resolve [path]",
		Short:             "Default command, resolves and cats the rules applying to a path",
		Example:           cmdExamples,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: resolveCompletion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ra.Target = "."
			if len(args) > 0 {
				ra.Target = args[0]
			}

			return runResolve(cmd, ra)
		},
	}
	ra.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func resolveCompletion() cobra.CompletionFunc {
	return func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
		// First argument: target path completion.
		if len(args) == 0 {
			return nil, cobra.ShellCompDirectiveDefault
		}

		// No more arguments accepted.
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

func runResolve(cmd *cobra.Command, ra *ResolveArgs) error {
	if ra.WriteConfig {
		configPath := ra.ConfigPath
		if configPath == "" {
			configPath = config.GetPath()
		}

		return config.WriteDefaultConfig(configPath, true)
	}

	if ra.ShowConfig {
		cfg, err := loadConfig(ra.ConfigPath)
		if err != nil {
			return err
		}

		yamlBytes, err := cfg.MarshalYAML()
		if err != nil {
			return fmt.Errorf("marshal config yaml: %w", err)
		}

		mustN(fmt.Fprint(cmd.OutOrStdout(), string(yamlBytes)))

		return nil
	}

	src, err := openSource(&ra.RuleArgs, ra.Target)
	if err != nil {
		return err
	}

	// Skip the per-document headers when output is piped, so that plain
	// concatenation can be consumed directly.
	headers := term.IsTerminal(int(os.Stdout.Fd()))

	write := func(set *rule.RuleSet) error {
		matches := set.Resolve(ra.Target, ra.Rules)

		return writeMatches(cmd.OutOrStdout(), matches, ra.Output, headers)
	}

	err = write(src.Get())
	if err != nil {
		return err
	}

	if !ra.Watch {
		return nil
	}

	return watchAndResolve(cmd, src, write)
}

func watchAndResolve(cmd *cobra.Command, src *rule.Source, write func(*rule.RuleSet) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := rule.NewWatcher(src)
	if err != nil {
		return fmt.Errorf("watch rules: %w", err)
	}
	defer w.Close() //nolint:errcheck // Nothing to do with the error on shutdown.

	events := make(chan rule.EventReload, 1)
	w.Subscribe(events)

	go w.Watch(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt := <-events:
			if evt.Err != nil {
				slog.Error("reload rules", slog.Any("err", evt.Err))

				continue
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout()))

			err := write(evt.Set)
			if err != nil {
				return err
			}
		}
	}
}
