package decode

// A PixelBlock is the decoded, predictor-reversed, photometrically
// interpreted output of one source tile: width*height*samplesPerPixel
// samples of bitsPerSample bits each, chunky (interleaved) for
// PlanarConfiguration=1.
type PixelBlock struct {
	Width, Height   int
	SamplesPerPixel int
	BitsPerSample   int
	SampleFormat    int
	Data            []byte
	// Sparse marks a tile with TileByteCounts==0: callers must treat every
	// sample as nodata rather than reading Data (which is nil).
	Sparse bool
}

// Sample returns the little-endian bits-per-sample value at (x, y, band),
// widened to uint32. Only 8/16/32-bit integer samples are addressed this
// way; callers needing float32 samples should reinterpret Data directly.
func (p *PixelBlock) Sample(x, y, band int) uint32 {
	bytesPerSample := p.BitsPerSample / 8
	idx := (y*p.Width+x)*p.SamplesPerPixel + band
	off := idx * bytesPerSample
	var v uint32
	for i := 0; i < bytesPerSample; i++ {
		v |= uint32(p.Data[off+i]) << (8 * i)
	}
	return v
}
