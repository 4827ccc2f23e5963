package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rwoody/mdc/pkg/mcp"
	"github.com/rwoody/mdc/pkg/rule"
)

type MCPArgs struct {
	*RootArgs
	RuleArgs

	Address string
	Watch   bool
}

func NewMCPArgs(rootArgs *RootArgs) *MCPArgs {
	return &MCPArgs{
		RootArgs: rootArgs,
	}
}

func (ma *MCPArgs) AddFlags(cmd *cobra.Command) {
	ma.RuleArgs.AddFlags(cmd)

	cmd.Flags().StringVar(&ma.Address, "address", "", "Serve MCP over HTTP at the specified address instead of stdio")
	cmd.Flags().BoolVarP(&ma.Watch, "watch", "w", true, "Watch the rules directory and reload on changes")
}

func NewMCPCmd(ma *MCPArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp [path]",
		Short: "Serve rule documents over the Model Context Protocol",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}

			return runMCP(cmd, ma, target)
		},
	}
	ma.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runMCP(cmd *cobra.Command, ma *MCPArgs, target string) error {
	src, err := openSource(&ma.RuleArgs, target)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if ma.Watch {
		w, err := rule.NewWatcher(src)
		if err != nil {
			return fmt.Errorf("watch rules: %w", err)
		}
		defer w.Close() //nolint:errcheck // Nothing to do with the error on shutdown.

		go w.Watch(ctx)
	}

	server := mcp.NewServer(ma.Address, src)

	slog.InfoContext(ctx, "serving rules over MCP",
		slog.String("root", src.Root()),
		slog.Int("documents", src.Get().Len()),
	)

	err = server.Serve(ctx)
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}

	return nil
}
