package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type ShowArgs struct {
	*RootArgs
	RuleArgs

	Output string
}

func NewShowArgs(rootArgs *RootArgs) *ShowArgs {
	return &ShowArgs{
		RootArgs: rootArgs,
	}
}

func (sa *ShowArgs) AddFlags(cmd *cobra.Command) {
	sa.RuleArgs.AddFlags(cmd)

	cmd.Flags().StringVarP(&sa.Output, "output", "o", outputText, fmt.Sprintf("Output format, one of: %v", outputFormats))

	err := cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(outputFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewShowCmd(sa *ShowArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "show <id>",
		Short:             "Print a single rule document by identifier",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: ruleIDCompletion(&sa.RuleArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openSource(&sa.RuleArgs, ".")
			if err != nil {
				return err
			}

			doc, ok := src.Get().Get(args[0])
			if !ok {
				return fmt.Errorf("rule %q not found in %q", args[0], src.Root())
			}

			if sa.Output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), newMatchDocument(doc, "", true))
			}

			mustN(fmt.Fprint(cmd.OutOrStdout(), doc.Body))

			return nil
		},
	}
	sa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}
