// Command cog_info prints summary metadata for a COG.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cogtile/cogtile/cmd/internal/cliutil"
	"github.com/cogtile/cogtile/cog"
	"github.com/cogtile/cogtile/cogconfig"
)

func main() {
	cmd := newCogInfoCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func newCogInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cog_info <url>",
		Short: "Print summary metadata for a Cloud-Optimized GeoTIFF",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0])
		},
	}
}

func run(ctx context.Context, url string) error {
	cfg := cogconfig.Load()
	c, src, err := cliutil.OpenCog(ctx, url, cfg)
	if err != nil {
		cliutil.Logger.Error("failed to open COG", "url", url, "error", err)
		return err
	}
	defer src.Close()

	primary := c.Primary()
	fmt.Printf("width=%d height=%d compression=%s photometric=%s ifds=%d\n",
		primary.Width, primary.Height, primary.Compression, primary.Photometric, len(c.Ifds))
	if primary.Geo.EPSG != 0 {
		fmt.Printf("epsg=%d\n", primary.Geo.EPSG)
	}
	for i, ifd := range c.Ifds {
		fmt.Printf("  ifd[%d]: %dx%d tile=%dx%d compression=%s pixel_size=%g\n",
			i, ifd.Width, ifd.Height, ifd.TileWidth, ifd.TileLength, ifd.Compression, ifd.PixelSizeAt())
		if !ifd.Compression.Supported() {
			return &cog.UnsupportedCompressionError{Compression: ifd.Compression, IFDIndex: i}
		}
	}
	return nil
}

// exitCodeFor maps an error to the exit code spec'd for cog_info: 3 for
// unsupported compression, 2 for any other error (an unreadable file
// included).
func exitCodeFor(err error) int {
	var unsupported *cog.UnsupportedCompressionError
	if errors.As(err, &unsupported) {
		return 3
	}
	return 2
}
