package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vigil-io/vigil/internal/config"
	"github.com/vigil-io/vigil/internal/redact"
)

var redactCmd = &cobra.Command{
	Use:   "redact [text]",
	Short: "Scrub secrets from text (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRedact,
}

func init() {
	rootCmd.AddCommand(redactCmd)
}

func runRedact(cmd *cobra.Command, args []string) error {
	_, span := tracer.Start(cmd.Context(), "redact")
	defer span.End()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var redactOpts []redact.Option
	if cfg.RuleFile != "" {
		redactOpts = append(redactOpts, redact.WithRuleFile(cfg.RuleFile))
	}
	redactor, err := redact.NewRedactor(redactOpts...)
	if err != nil {
		return fmt.Errorf("building redactor: %w", err)
	}

	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	out := redactor.Strings(text)
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
	return nil
}
