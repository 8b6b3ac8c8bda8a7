// Command to_ppm writes the full image at a given IFD level to img.ppm.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cogtile/cogtile/cmd/internal/cliutil"
	"github.com/cogtile/cogtile/cogconfig"
	"github.com/cogtile/cogtile/decode"
)

func main() {
	cmd := newToPPMCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newToPPMCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "to_ppm <url> <ifd_index>",
		Short:         "Write the full image at a given IFD level to img.ppm",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ifdIndex, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid ifd_index %q: %w", args[1], err)
			}
			return run(cmd.Context(), args[0], ifdIndex)
		},
	}
}

func run(ctx context.Context, url string, ifdIndex int) error {
	cfg := cogconfig.Load()
	c, src, err := cliutil.OpenCog(ctx, url, cfg)
	if err != nil {
		cliutil.Logger.Error("failed to open COG", "url", url, "error", err)
		return err
	}
	defer src.Close()

	if ifdIndex < 0 || ifdIndex >= len(c.Ifds) {
		return fmt.Errorf("ifd index %d out of range (have %d IFDs)", ifdIndex, len(c.Ifds))
	}
	ifd := c.Ifds[ifdIndex]

	decoder, err := decode.NewDecoder(src, cfg.DecodedTileCacheSize)
	if err != nil {
		return err
	}

	f, err := os.Create("img.ppm")
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprintf(w, "P6\n%d %d\n255\n", ifd.Width, ifd.Height)

	tilesAcross, tilesDown := ifd.TilesAcross(), ifd.TilesDown()
	tiles := make(map[[2]int]*decode.PixelBlock, tilesAcross*tilesDown)
	for row := 0; row < tilesDown; row++ {
		for col := 0; col < tilesAcross; col++ {
			block, err := decoder.Tile(ctx, ifdIndex, ifd, col, row)
			if err != nil {
				cliutil.Logger.Error("tile decode failed, substituting nodata", "col", col, "row", row, "error", err)
				block = nil
			}
			tiles[[2]int{col, row}] = block
		}
	}

	row := make([]byte, ifd.Width*3)
	for y := 0; y < ifd.Height; y++ {
		tileRow := y / ifd.TileLength
		localRow := y % ifd.TileLength
		for x := 0; x < ifd.Width; x++ {
			tileCol := x / ifd.TileWidth
			localCol := x % ifd.TileWidth
			block := tiles[[2]int{tileCol, tileRow}]
			off := x * 3
			if block == nil || block.Sparse {
				row[off], row[off+1], row[off+2] = 0, 0, 0
				continue
			}
			idx := (localRow*block.Width + localCol) * 4
			row[off], row[off+1], row[off+2] = block.Data[idx], block.Data[idx+1], block.Data[idx+2]
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
