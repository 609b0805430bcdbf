package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	steg "github.com/yyyoichi/steg_zero"
	"github.com/yyyoichi/steg_zero/imgio"
)

func newReadCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "read <image>...",
		Short: "Recover the message hidden in each image",
		Long: `Recover the message hidden in each image and save it next to the
image as <name>.msg. Use -o - to print a single message to stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return fmt.Errorf("--output takes a single image, got %d", len(args))
			}
			s, err := a.codec()
			if err != nil {
				return err
			}
			results := runBatch(cmd.Context(), args, a.cfg.Workers, func(ctx context.Context, path string) (string, error) {
				return a.read(ctx, s, path, output)
			})
			return a.finish(results)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "message output path, - for stdout")
	return cmd
}

func (a *app) read(ctx context.Context, s *steg.Steg, path, output string) (string, error) {
	img, _, err := imgio.Load(path)
	if err != nil {
		return "", err
	}
	msg, err := s.Extract(ctx, img)
	if err != nil {
		return "", err
	}
	if output == "-" {
		return string(msg), nil
	}
	if output == "" {
		output = siblingPath(path, ".msg")
	}
	if err := os.WriteFile(output, msg, 0o644); err != nil {
		return "", err
	}
	a.log.Info().Str("path", path).Str("output", output).Int("bytes", len(msg)).Msg("message read")
	return "", nil
}
