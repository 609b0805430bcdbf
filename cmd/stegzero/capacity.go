package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yyyoichi/steg_zero/imgio"
)

func newCapacityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "capacity <image>...",
		Short: "Print how many message bytes each image can hold",
		Long: `Print how many message bytes each image can hold with the current
settings. Compression is not taken into account.`,
		Args: cobra.MinimumNArgs(1),
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
				n, err := s.Capacity(img)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s\t%d\n", path, n), nil
			})
			return a.finish(results)
		},
	}
}
