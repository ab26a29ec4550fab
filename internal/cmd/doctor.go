package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vigil-io/vigil/internal/doctor"
)

var (
	doctorJSON     bool
	doctorSkipPort bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and redaction rules before serving",
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "emit the report as JSON")
	doctorCmd.Flags().BoolVar(&doctorSkipPort, "skip-port", false, "skip the listen-port probe")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	_, span := tracer.Start(cmd.Context(), "doctor")
	defer span.End()

	report := doctor.Run(doctor.Options{SkipPortProbe: doctorSkipPort})

	if doctorJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, c := range report.Checks {
			line := fmt.Sprintf("[%s] %-16s %s", c.Status, c.Name, c.Message)
			if c.Fix != "" {
				line += " (fix: " + c.Fix + ")"
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d pass, %d warn, %d fail\n",
			report.Summary.Pass, report.Summary.Warn, report.Summary.Fail)
	}

	if report.Status == "fail" {
		return fmt.Errorf("doctor found failing checks")
	}
	return nil
}
