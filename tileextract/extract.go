// Package tileextract implements the tile-extraction engine: overview
// selection, source-pixel window computation, concurrent tile fetch/decode,
// and nearest-neighbour resampling into a fixed 256x256 web-mercator
// OutputTile.
package tileextract

import (
	"context"
	"errors"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cogtile/cogtile/cog"
	"github.com/cogtile/cogtile/decode"
	"github.com/cogtile/cogtile/proj"
)

// An Extractor produces web-mercator OutputTiles from one open Cog.
type Extractor struct {
	cog           *cog.Cog
	decoder       *decode.Decoder
	transforms    *proj.Manager
	outputEPSG    int
	maxConcurrent int
}

// An ExtractorOption configures an Extractor at construction time.
type ExtractorOption func(*Extractor)

// WithMaxConcurrentFetches bounds how many source tiles Extract fetches and
// decodes concurrently for a single output tile.
func WithMaxConcurrentFetches(n int) ExtractorOption {
	return func(e *Extractor) {
		e.maxConcurrent = n
	}
}

// NewExtractor returns an Extractor serving tiles in EPSG:3857, bounding
// concurrent source-tile fetches to 8 unless overridden by
// WithMaxConcurrentFetches.
func NewExtractor(c *cog.Cog, decoder *decode.Decoder, transforms *proj.Manager, opts ...ExtractorOption) *Extractor {
	e := &Extractor{cog: c, decoder: decoder, transforms: transforms, outputEPSG: 3857, maxConcurrent: 8}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the 256x256 web-mercator OutputTile for (z, x, y). The
// overlapping source tiles are fetched and decoded concurrently; resampling
// only starts once all of them have landed.
func (e *Extractor) Extract(ctx context.Context, z, x, y int) (*OutputTile, error) {
	ifdIndex, err := SelectOverview(e.cog, z, x, y, e.outputEPSG, e.transforms)
	if err != nil {
		return nil, err
	}
	ifd := e.cog.Ifds[ifdIndex]

	window, err := ComputeWindow(ifd, z, x, y, e.outputEPSG, e.transforms)
	if err != nil {
		return nil, err
	}
	if window.Empty() {
		return nil, &NoOverlapError{Z: z, X: x, Y: y}
	}

	tileCoords := TileIndices(ifd, window)
	blocks := make(map[TileCoord]*decode.PixelBlock, len(tileCoords))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if e.maxConcurrent > 0 {
		g.SetLimit(e.maxConcurrent)
	}
	for _, tc := range tileCoords {
		tc := tc
		g.Go(func() error {
			block, err := e.decoder.Tile(gctx, ifdIndex, ifd, tc.Col, tc.Row)
			if err != nil {
				var decodeErr *decode.DecodeError
				if errors.As(err, &decodeErr) {
					// Leave the tile out of blocks: its pixels stay nodata.
					return nil
				}
				return err
			}
			mu.Lock()
			blocks[tc] = block
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	toSrc, err := e.transforms.Get(e.outputEPSG, srcEPSGOf(ifd, e.outputEPSG))
	if err != nil {
		return nil, err
	}

	minX, minY, maxX, maxY := TileBounds(z, x, y)
	outPixelSizeX := (maxX - minX) / float64(tileSize)
	outPixelSizeY := (maxY - minY) / float64(tileSize)

	out := NewOutputTile()
	for py := 0; py < tileSize; py++ {
		for px := 0; px < tileSize; px++ {
			outX := minX + (float64(px)+0.5)*outPixelSizeX
			outY := maxY - (float64(py)+0.5)*outPixelSizeY

			srcX, srcY, err := toSrc.Forward(outX, outY)
			if err != nil {
				continue // leave as nodata (transparent)
			}
			col, row, ok := ifd.Geo.Transform.Inverse(srcX, srcY)
			if !ok {
				continue
			}
			sampleCol, sampleRow := int(math.Floor(col)), int(math.Floor(row))
			if sampleCol < 0 || sampleCol >= ifd.Width || sampleRow < 0 || sampleRow >= ifd.Height {
				continue
			}

			tileCol, tileRow := sampleCol/ifd.TileWidth, sampleRow/ifd.TileLength
			block, ok := blocks[TileCoord{Col: tileCol, Row: tileRow}]
			if !ok || block.Sparse {
				continue
			}

			localCol, localRow := sampleCol%ifd.TileWidth, sampleRow%ifd.TileLength
			idx := (localRow*block.Width + localCol) * 4
			out.setRGBA(px, py, block.Data[idx], block.Data[idx+1], block.Data[idx+2], block.Data[idx+3])
		}
	}

	return out, nil
}

func srcEPSGOf(ifd *cog.Ifd, outputEPSG int) int {
	if ifd.Geo.EPSG == 0 {
		return outputEPSG
	}
	return ifd.Geo.EPSG
}
