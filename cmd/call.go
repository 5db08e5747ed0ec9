package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"adpilot/internal/app"
	"adpilot/internal/config"
	"adpilot/internal/core/port"
)

// bootstrap builds an App for a one-shot command. Logs go to stderr so
// stdout carries only the JSON result.
func bootstrap(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(ctx, cfg, cfg.Log.New(os.Stderr))
}

func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, t := range a.Tools.Tools() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.Kind, t.Description)
			}
			return tw.Flush()
		},
	}
}

func newCallCommand() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "call <tool> [json-args|-]",
		Short: "Run one tool and print its JSON result",
		Long: "Run one tool. Arguments are a JSON object given inline or on stdin with \"-\".\n" +
			"Without a shared Redis store a batch token only lives as long as the process,\n" +
			"so use --confirm to dispatch a proposed batch in the same run.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readArgs(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return call(cmd.Context(), a.Tools, cmd.OutOrStdout(), args[0], raw, confirm)
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm a proposed batch right away")
	return cmd
}

func readArgs(stdin io.Reader, rest []string) (json.RawMessage, error) {
	if len(rest) == 0 {
		return nil, nil
	}
	if rest[0] != "-" {
		return json.RawMessage(rest[0]), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read arguments: %w", err)
	}
	return json.RawMessage(strings.TrimSpace(string(b))), nil
}

func call(ctx context.Context, tools port.ToolUseCase, out io.Writer, name string, args json.RawMessage, confirm bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := tools.Call(ctx, name, args)
	if err == nil && confirm {
		if payload, ok := res.(*port.ConfirmationPayload); ok {
			token, _ := json.Marshal(map[string]string{"token": payload.BatchToken})
			res, err = tools.Call(ctx, "confirm_actions", token)
		}
	}
	if res != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return fmt.Errorf("encode result: %w", encErr)
		}
	}
	return err
}
