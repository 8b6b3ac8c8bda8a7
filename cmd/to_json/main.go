// Command to_json writes full COG metadata as JSON.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/cogtile/cogtile/cmd/internal/cliutil"
	"github.com/cogtile/cogtile/cog"
	"github.com/cogtile/cogtile/cogconfig"
)

func main() {
	cmd := newToJSONCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newToJSONCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "to_json <url> <out.json>",
		Short:         "Write full COG metadata as JSON",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], args[1])
		},
	}
}

// geoKey is one resolved GeoTIFF key, JSON-serialized as {key, value}.
type geoKey struct {
	Key   int `json:"key"`
	Value int `json:"value"`
}

// ifdInfo is the JSON-serializable view of one cog.Ifd.
type ifdInfo struct {
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	TileWidth       int      `json:"tile_width"`
	TileLength      int      `json:"tile_length"`
	SamplesPerPixel int      `json:"samples_per_pixel"`
	BitsPerSample   []uint16 `json:"bits_per_sample"`
	Compression     string   `json:"compression"`
	Photometric     string   `json:"photometric"`
	Predictor       string   `json:"predictor"`
	EPSG            int      `json:"epsg,omitempty"`
	GeoKeys         []geoKey `json:"geo_keys,omitempty"`
}

type cogInfo struct {
	Ifds []ifdInfo `json:"ifds"`
}

func run(ctx context.Context, url, outPath string) error {
	cfg := cogconfig.Load()
	c, src, err := cliutil.OpenCog(ctx, url, cfg)
	if err != nil {
		cliutil.Logger.Error("failed to open COG", "url", url, "error", err)
		return err
	}
	defer src.Close()

	info := cogInfo{Ifds: make([]ifdInfo, len(c.Ifds))}
	for i, ifd := range c.Ifds {
		entry := ifdInfo{
			Width: ifd.Width, Height: ifd.Height,
			TileWidth: ifd.TileWidth, TileLength: ifd.TileLength,
			SamplesPerPixel: ifd.SamplesPerPixel, BitsPerSample: ifd.BitsPerSample,
			Compression: ifd.Compression.String(),
			Photometric: ifd.Photometric.String(),
			Predictor:   ifd.Predictor.String(),
			EPSG:        ifd.Geo.EPSG,
		}
		if ifd.Geo.EPSG != 0 {
			entry.GeoKeys = []geoKey{{Key: cogKeyKind(ifd), Value: ifd.Geo.EPSG}}
		}
		info.Ifds[i] = entry
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}

// cogKeyKind reports which GeoKey resolved the IFD's EPSG code: projected
// (3072) or geographic (2048).
func cogKeyKind(ifd *cog.Ifd) int {
	if ifd.Geo.EPSG >= 32767 {
		return int(cog.GeoKeyGeographicType)
	}
	return int(cog.GeoKeyProjectedCSType)
}
