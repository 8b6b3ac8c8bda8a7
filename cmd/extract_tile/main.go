// Command extract_tile writes a single 256x256 web-mercator tile at (z, x,
// y) as PPM (img.ppm) or NPY (img.npy).
package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cogtile/cogtile/cmd/internal/cliutil"
	"github.com/cogtile/cogtile/cogconfig"
	"github.com/cogtile/cogtile/decode"
	"github.com/cogtile/cogtile/proj"
	"github.com/cogtile/cogtile/tileextract"
)

func main() {
	cmd := newExtractTileCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newExtractTileCommand() *cobra.Command {
	var asNPY bool
	cmd := &cobra.Command{
		Use:           "extract_tile <url> <z> <x> <y>",
		Short:         "Write a single 256x256 web-mercator tile",
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid z %q: %w", args[1], err)
			}
			x, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid x %q: %w", args[2], err)
			}
			y, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid y %q: %w", args[3], err)
			}
			return run(cmd.Context(), args[0], z, x, y, asNPY)
		},
	}
	cmd.Flags().BoolVar(&asNPY, "npy", false, "write img.npy instead of img.ppm")
	return cmd
}

func run(ctx context.Context, url string, z, x, y int, asNPY bool) error {
	cfg := cogconfig.Load()
	c, src, err := cliutil.OpenCog(ctx, url, cfg)
	if err != nil {
		cliutil.Logger.Error("failed to open COG", "url", url, "error", err)
		return err
	}
	defer src.Close()

	decoder, err := decode.NewDecoder(src, cfg.DecodedTileCacheSize)
	if err != nil {
		return err
	}
	extractor := tileextract.NewExtractor(c, decoder, proj.NewManager(),
		tileextract.WithMaxConcurrentFetches(cfg.MaxConcurrentFetches))

	tile, err := extractor.Extract(ctx, z, x, y)
	if err != nil {
		cliutil.Logger.Error("tile extraction failed", "z", z, "x", x, "y", y, "error", err)
		return err
	}

	if asNPY {
		return writeNPY(tile)
	}
	return writePPM(tile)
}

func writePPM(tile *tileextract.OutputTile) error {
	f, err := os.Create("img.ppm")
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprintf(w, "P6\n%d %d\n255\n", tile.Width, tile.Height)
	row := make([]byte, tile.Width*3)
	for y := 0; y < tile.Height; y++ {
		for x := 0; x < tile.Width; x++ {
			idx := (y*tile.Width + x) * 4
			off := x * 3
			row[off], row[off+1], row[off+2] = tile.Pix[idx], tile.Pix[idx+1], tile.Pix[idx+2]
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeNPY writes a minimal NPY v1.0 file holding a (H, W, 3) uint8 array,
// per NumPy's documented format: magic, version, a little-endian uint16
// header length, an ASCII dict header padded to a 16-byte boundary, then
// raw row-major data.
func writeNPY(tile *tileextract.OutputTile) error {
	f, err := os.Create("img.npy")
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	header := fmt.Sprintf("{'descr': '|u1', 'fortran_order': False, 'shape': (%d, %d, 3), }", tile.Height, tile.Width)
	const preludeLen = 10 // magic(6) + version(2) + header-length field(2)
	pad := 16 - (preludeLen+len(header)+1)%16
	if pad == 16 {
		pad = 0
	}
	header += spaces(pad) + "\n"

	w.Write([]byte("\x93NUMPY"))
	w.Write([]byte{1, 0})
	binary.Write(w, binary.LittleEndian, uint16(len(header)))
	w.Write([]byte(header))

	row := make([]byte, tile.Width*3)
	for y := 0; y < tile.Height; y++ {
		for x := 0; x < tile.Width; x++ {
			idx := (y*tile.Width + x) * 4
			off := x * 3
			row[off], row[off+1], row[off+2] = tile.Pix[idx], tile.Pix[idx+1], tile.Pix[idx+2]
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
