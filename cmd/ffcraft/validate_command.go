package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ffcraft/internal/validation"
)

type validateReport struct {
	Name   string            `json:"name"`
	Result validation.Result `json:"result"`
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var (
		presetIDs []string
		withCaps  bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "validate [state.json|-]...",
		Short: "Check encoding states for errors and warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := ctx.loadStates(cmd, args, presetIDs)
			if err != nil {
				return err
			}
			validator, err := ctx.newValidator(cmd.Context(), withCaps)
			if err != nil {
				return err
			}

			reports := make([]validateReport, 0, len(states))
			invalid := 0
			for _, s := range states {
				result := validator.Validate(s.State)
				if !result.Valid {
					invalid++
				}
				reports = append(reports, validateReport{Name: s.Name, Result: result})
			}

			if asJSON {
				if err := writeJSON(cmd, reports); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, report := range reports {
					rows := issueRows(report.Result)
					if len(rows) > 0 {
						fmt.Fprintln(out, renderTable([]string{"Level", "Field", "Message"}, rows, nil))
					}
					verdict := "valid"
					if !report.Result.Valid {
						verdict = "invalid"
					}
					fmt.Fprintf(out, "%s: %s (%d errors, %d warnings)\n",
						report.Name, verdict, len(report.Result.Errors), len(report.Result.Warnings))
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d states invalid", invalid, len(states))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&presetIDs, "preset", nil, "Validate a saved preset by ID (repeatable)")
	cmd.Flags().BoolVar(&withCaps, "caps", false, "Warn about encoders, muxers and filters missing from the installed ffmpeg")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
