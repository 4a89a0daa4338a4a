package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ffcraft/internal/capabilities"
)

func newCapsCommand(ctx *commandContext) *cobra.Command {
	var (
		list   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "caps",
		Short: "Show encoders, muxers, filters and hardware accelerators of the installed ffmpeg",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			table, err := capabilities.Probe(cmd.Context(), cfg.FFmpeg.Binary, capabilities.ExecRunner)
			if err != nil {
				return err
			}

			sets := map[string]map[string]struct{}{
				"encoders": table.Encoders,
				"muxers":   table.Muxers,
				"filters":  table.Filters,
				"hwaccels": table.HWAccels,
			}
			kinds := []string{"encoders", "muxers", "filters", "hwaccels"}

			if kind := strings.ToLower(strings.TrimSpace(list)); kind != "" {
				set, ok := sets[kind]
				if !ok {
					return fmt.Errorf("unknown capability kind %q (use %s)", list, strings.Join(kinds, ", "))
				}
				names := capabilities.Sorted(set)
				if asJSON {
					return writeJSON(cmd, names)
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			if asJSON {
				summary := make(map[string][]string, len(kinds))
				for _, kind := range kinds {
					summary[kind] = capabilities.Sorted(sets[kind])
				}
				return writeJSON(cmd, summary)
			}
			rows := make([][]string, 0, len(kinds))
			for _, kind := range kinds {
				rows = append(rows, []string{kind, strconv.Itoa(len(sets[kind]))})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Kind", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVar(&list, "list", "", "List names of one kind: encoders, muxers, filters, hwaccels")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
