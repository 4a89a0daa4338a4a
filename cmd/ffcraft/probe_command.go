package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ffcraft/internal/probe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Inspect the streams of a media file with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := probe.Inspect(cmd.Context(), cfg.FFmpeg.FFprobeBinary, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Duration: %s  Size: %d bytes  Bitrate: %d b/s\n",
				result.Duration().Truncate(time.Millisecond), result.SizeBytes(), result.BitRate())
			rows := make([][]string, 0, len(result.Streams))
			for _, s := range result.Streams {
				detail := ""
				switch s.CodecType {
				case "video":
					detail = fmt.Sprintf("%dx%d", s.Width, s.Height)
				case "audio":
					detail = fmt.Sprintf("%s Hz, %d ch %s", s.SampleRate, s.Channels, s.ChannelLayout)
				}
				rows = append(rows, []string{strconv.Itoa(s.Index), s.CodecType, s.CodecName, s.Language(), detail})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Type", "Codec", "Language", "Detail"}, rows,
				[]columnAlignment{alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
