package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ffcraft/internal/command"
	"ffcraft/internal/fileutil"
	"ffcraft/internal/presets"
)

func newPresetCommand(ctx *commandContext) *cobra.Command {
	presetCmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved encoding states",
	}

	presetCmd.AddCommand(newPresetSaveCommand(ctx))
	presetCmd.AddCommand(newPresetUpdateCommand(ctx))
	presetCmd.AddCommand(newPresetListCommand(ctx))
	presetCmd.AddCommand(newPresetShowCommand(ctx))
	presetCmd.AddCommand(newPresetSearchCommand(ctx))
	presetCmd.AddCommand(newPresetExportCommand(ctx))
	presetCmd.AddCommand(newPresetImportCommand(ctx))
	presetCmd.AddCommand(newPresetDeleteCommand(ctx))

	return presetCmd
}

func newPresetSaveCommand(ctx *commandContext) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "save <name> <state.json|->",
		Short: "Save a state under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readState(cmd, args[1])
			if err != nil {
				return err
			}
			return ctx.withPresets(func(store *presets.Store) error {
				preset, err := store.Save(cmd.Context(), args[0], description, state)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %s (%s)\n", preset.Name, preset.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Preset description")
	return cmd
}

func newPresetUpdateCommand(ctx *commandContext) *cobra.Command {
	var (
		name        string
		description string
	)
	cmd := &cobra.Command{
		Use:   "update <id> <state.json|->",
		Short: "Replace the state of a saved preset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := readState(cmd, args[1])
			if err != nil {
				return err
			}
			return ctx.withPresets(func(store *presets.Store) error {
				current, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("name") {
					name = current.Name
				}
				if !cmd.Flags().Changed("description") {
					description = current.Description
				}
				preset, err := store.Update(cmd.Context(), current.ID, name, description, state)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated preset %s (%s)\n", preset.Name, preset.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New preset name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New preset description")
	return cmd
}

func newPresetListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPresets(func(store *presets.Store) error {
				list, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				return printPresets(cmd, list, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newPresetSearchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find presets by name or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPresets(func(store *presets.Store) error {
				found, err := store.Search(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printPresets(cmd, found, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newPresetShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a preset and its rendered command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry, err := ctx.hwRegistry()
			if err != nil {
				return err
			}
			return ctx.withPresets(func(store *presets.Store) error {
				preset, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, preset)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:          %s\n", preset.ID)
				fmt.Fprintf(out, "Name:        %s\n", preset.Name)
				if preset.Description != "" {
					fmt.Fprintf(out, "Description: %s\n", preset.Description)
				}
				fmt.Fprintf(out, "Updated:     %s\n", preset.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
				state, err := json.MarshalIndent(preset.State, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s\n\n", state)
				generator := command.NewGenerator(cfg.FFmpeg.Binary, registry)
				fmt.Fprintln(out, command.Format(generator.Generate(preset.State)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newPresetExportCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a preset as a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPresets(func(store *presets.Store) error {
				target := strings.TrimSpace(output)
				if target == "" || target == "-" {
					return store.Export(cmd.Context(), args[0], cmd.OutOrStdout())
				}
				err := fileutil.WriteAtomic(target, 0o644, func(w io.Writer) error {
					return store.Export(cmd.Context(), args[0], w)
				})
				if err != nil {
					return fmt.Errorf("export to %s: %w", target, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported preset to %s\n", target)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default stdout)")
	return cmd
}

func newPresetImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import an exported preset document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer file.Close()
				r = file
			}
			return ctx.withPresets(func(store *presets.Store) error {
				preset, err := store.Import(cmd.Context(), r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported preset %s (%s)\n", preset.Name, preset.ID)
				return nil
			})
		},
	}
}

func newPresetDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPresets(func(store *presets.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %s\n", args[0])
				return nil
			})
		},
	}
}

func printPresets(cmd *cobra.Command, list []*presets.Preset, asJSON bool) error {
	if asJSON {
		if list == nil {
			list = []*presets.Preset{}
		}
		return writeJSON(cmd, list)
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No presets found")
		return nil
	}
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			p.State.VideoCodec.Codec,
			p.State.AudioCodec.Codec,
			p.State.Output.ResolvedFormat(),
			p.Description,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Video", "Audio", "Container", "Description"}, rows, nil))
	return nil
}
