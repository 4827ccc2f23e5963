package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type ListArgs struct {
	*RootArgs
	RuleArgs

	Output string
}

func NewListArgs(rootArgs *RootArgs) *ListArgs {
	return &ListArgs{
		RootArgs: rootArgs,
	}
}

func (la *ListArgs) AddFlags(cmd *cobra.Command) {
	la.RuleArgs.AddFlags(cmd)

	cmd.Flags().StringVarP(&la.Output, "output", "o", outputText, fmt.Sprintf("Output format, one of: %v", outputFormats))

	err := cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(outputFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

func NewListCmd(la *ListArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "List all rule documents in the rules directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}

			src, err := openSource(&la.RuleArgs, target)
			if err != nil {
				return err
			}

			return writeDocumentList(cmd.OutOrStdout(), src.Get().Documents(), la.Output)
		},
	}
	la.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}
