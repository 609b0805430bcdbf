package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yyyoichi/steg_zero/imgio"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <image>...",
		Short: "Print the header of the message hidden in each image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.codec()
			if err != nil {
				return err
			}
			results := runBatch(cmd.Context(), args, a.cfg.Workers, func(_ context.Context, path string) (string, error) {
				img, _, err := imgio.Load(path)
				if err != nil {
					return "", err
				}
				info, err := s.Inspect(img)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s\tversion=%d bits=%d length=%d checksum=%t compressed=%t golay=%t alpha=%t\n",
					path, info.Version, info.BitsPerChannel, info.Length,
					info.Checksum, info.Compressed, info.Golay, info.Alpha), nil
			})
			return a.finish(results)
		},
	}
}
