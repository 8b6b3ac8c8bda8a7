// Package cog layers a typed, validated view over raw TIFF IFDs: a primary
// image plus an ordered list of overviews, with geometry, compression, and
// geospatial metadata resolved eagerly so later stages never touch a raw
// tag again.
package cog

import (
	"context"
	"math"

	"github.com/cogtile/cogtile/bytesrc"
	"github.com/cogtile/cogtile/tiff"
)

// A Cog is an open Cloud-Optimized GeoTIFF: a TIFF header, a non-empty
// ordered list of Ifds (index 0 is full resolution, 1..n are overviews in
// decreasing-resolution order), and the ByteSource it was read from. A Cog
// exclusively owns its Ifd list and its ByteSource.
type Cog struct {
	Source bytesrc.ByteSource
	Header *tiff.Header
	Ifds   []*Ifd
}

// Open parses the TIFF/BigTIFF header and IFD chain at src and builds a
// validated Cog. It rejects files whose primary IFD lacks a tile layout and
// overviews whose dimensions don't strictly decrease from their predecessor.
func Open(ctx context.Context, src bytesrc.ByteSource) (*Cog, error) {
	header, err := tiff.ParseHeader(ctx, src)
	if err != nil {
		return nil, err
	}
	rawIfds, err := tiff.ReadIFDs(ctx, src, header)
	if err != nil {
		return nil, err
	}

	ifds := make([]*Ifd, len(rawIfds))
	var prev *Ifd
	for i, raw := range rawIfds {
		ifd, err := buildIfd(i, raw, prev)
		if err != nil {
			return nil, err
		}
		ifds[i] = ifd
		prev = ifd
	}

	return &Cog{Source: src, Header: header, Ifds: ifds}, nil
}

// Primary returns the full-resolution IFD (index 0).
func (c *Cog) Primary() *Ifd {
	return c.Ifds[0]
}

// BoundsInCRS returns the min/max model-space corners of the primary image.
func (c *Cog) BoundsInCRS() (minX, minY, maxX, maxY float64) {
	ifd := c.Primary()
	x0, y0 := ifd.Geo.Transform.Forward(0, 0)
	x1, y1 := ifd.Geo.Transform.Forward(float64(ifd.Width), float64(ifd.Height))
	return math.Min(x0, x1), math.Min(y0, y1), math.Max(x0, x1), math.Max(y0, y1)
}

// PixelSizeAt returns the IFD's ground sample distance in CRS units,
// approximated as the mean of its X and Y pixel sizes (overviews typically
// keep square pixels, but this tolerates non-square source rasters).
func (ifd *Ifd) PixelSizeAt() float64 {
	return (ifd.PixelSizeX() + ifd.PixelSizeY()) / 2
}

// Close releases the underlying ByteSource.
func (c *Cog) Close() error {
	return c.Source.Close()
}
