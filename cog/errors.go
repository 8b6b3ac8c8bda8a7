package cog

import (
	"errors"
	"fmt"
)

var errGeoKeyParse = errors.New("cog: malformed GeoKeyDirectory")

// UnsupportedCompressionError is raised when an IFD uses a compression
// scheme this reader cannot decode.
type UnsupportedCompressionError struct {
	Compression Compression
	IFDIndex    int
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("cog: IFD %d uses unsupported compression %s", e.IFDIndex, e.Compression)
}

// NotTiledError is raised when the primary IFD lacks a tile layout.
type NotTiledError struct {
	IFDIndex int
}

func (e *NotTiledError) Error() string {
	return fmt.Sprintf("cog: IFD %d is not tiled (strip-based TIFFs are unsupported except where already tiled)", e.IFDIndex)
}

// MissingTagError is raised when a required tag is absent from an IFD.
type MissingTagError struct {
	IFDIndex int
	Tag      uint16
}

func (e *MissingTagError) Error() string {
	return fmt.Sprintf("cog: IFD %d missing required tag %d", e.IFDIndex, e.Tag)
}

// InconsistentOverviewError is raised when an overview's dimensions don't
// strictly decrease from the previous IFD.
type InconsistentOverviewError struct {
	IFDIndex int
}

func (e *InconsistentOverviewError) Error() string {
	return fmt.Sprintf("cog: overview IFD %d does not have strictly smaller dimensions than its predecessor", e.IFDIndex)
}

// TileCountMismatchError is raised when TileOffsets/TileByteCounts don't
// match the expected tile grid size.
type TileCountMismatchError struct {
	IFDIndex int
	Expected int
	Got      int
}

func (e *TileCountMismatchError) Error() string {
	return fmt.Sprintf("cog: IFD %d expected %d tiles, got %d", e.IFDIndex, e.Expected, e.Got)
}
