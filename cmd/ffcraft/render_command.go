package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ffcraft/internal/command"
)

type renderedCommand struct {
	Name    string   `json:"name"`
	Command []string `json:"command"`
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		presetIDs []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "render [state.json|-]...",
		Short: "Print the ffmpeg command for encoding states",
		Long: "Render prints the ffmpeg invocation for each state without validating it,\n" +
			"so incomplete states can be previewed. Use `ffcraft validate` to check them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := ctx.loadStates(cmd, args, presetIDs)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry, err := ctx.hwRegistry()
			if err != nil {
				return err
			}
			generator := command.NewGenerator(cfg.FFmpeg.Binary, registry)

			if asJSON {
				rendered := make([]renderedCommand, 0, len(states))
				for _, s := range states {
					rendered = append(rendered, renderedCommand{Name: s.Name, Command: generator.Generate(s.State)})
				}
				return writeJSON(cmd, rendered)
			}
			out := cmd.OutOrStdout()
			for _, s := range states {
				if len(states) > 1 {
					fmt.Fprintf(out, "# %s\n", s.Name)
				}
				fmt.Fprintln(out, command.Format(generator.Generate(s.State)))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&presetIDs, "preset", nil, "Render a saved preset by ID (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output token arrays as JSON")
	return cmd
}
