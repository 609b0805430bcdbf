package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	steg "github.com/yyyoichi/steg_zero"
	"github.com/yyyoichi/steg_zero/imgio"
	"github.com/yyyoichi/steg_zero/internal/quality"
	"github.com/yyyoichi/steg_zero/pixbuf"
)

func newWriteCmd(a *app) *cobra.Command {
	var (
		messagePath string
		output      string
		report      bool
	)
	cmd := &cobra.Command{
		Use:   "write <image>...",
		Short: "Hide a message in each image",
		Long: `Hide the message in each image and save the result next to it as
<name>.steg.<ext>. WebP input is saved as PNG.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return fmt.Errorf("--output takes a single image, got %d", len(args))
			}
			msg, err := a.readMessage(messagePath)
			if err != nil {
				return fmt.Errorf("read message: %w", err)
			}
			s, err := a.codec()
			if err != nil {
				return err
			}
			results := runBatch(cmd.Context(), args, a.cfg.Workers, func(ctx context.Context, path string) (string, error) {
				return "", a.write(ctx, s, path, output, msg, report)
			})
			return a.finish(results)
		},
	}
	cmd.Flags().StringVarP(&messagePath, "message", "m", "", "file holding the message, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output image path")
	cmd.Flags().BoolVar(&report, "report", false, "log the PSNR of every output image")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func (a *app) write(ctx context.Context, s *steg.Steg, path, output string, msg []byte, report bool) error {
	img, format, err := imgio.Load(path)
	if err != nil {
		return err
	}
	src := pixbuf.FromImage(img, a.cfg.Alpha)
	capacity, err := s.CapacityBuffer(src)
	if err != nil {
		return err
	}
	dist, err := s.EmbedBuffer(ctx, src, msg)
	if err != nil {
		return err
	}
	if output == "" {
		output = stegPath(path, format)
	}
	if err := imgio.Save(output, dist.Image()); err != nil {
		return err
	}

	ev := a.log.Info().
		Str("path", path).
		Str("output", output).
		Int("bytes", len(msg)).
		Int("capacity", capacity)
	if report {
		r, err := quality.Compare(src, dist)
		if err != nil {
			return err
		}
		ev = ev.Float64("psnr", r.PSNR).Float64("luma_psnr", r.LumaPSNR).Int("changed", r.Changed)
	}
	ev.Msg("message written")
	return nil
}
