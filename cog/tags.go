package cog

// TIFF/GeoTIFF tag codes recognized by the COG model.
const (
	tagImageWidth                = 256
	tagImageLength               = 257
	tagBitsPerSample             = 258
	tagCompression               = 259
	tagPhotometricInterpretation = 262
	tagSamplesPerPixel           = 277
	tagPlanarConfiguration       = 284
	tagPredictor                 = 317
	tagColorMap                  = 320
	tagTileWidth                 = 322
	tagTileLength                = 323
	tagTileOffsets               = 324
	tagTileByteCounts            = 325
	tagSampleFormat              = 339
	tagJPEGTables                = 347
	tagModelPixelScale           = 33550
	tagModelTiepoint             = 33922
	tagModelTransformation       = 34264
	tagGeoKeyDirectory           = 34735
	tagGeoDoubleParams           = 34736
	tagGeoAsciiParams            = 34737
	tagGDALNoData                = 42113
)

var requiredPrimaryTags = []uint16{
	tagImageWidth,
	tagImageLength,
	tagBitsPerSample,
	tagCompression,
	tagPhotometricInterpretation,
	tagSamplesPerPixel,
	tagPlanarConfiguration,
	tagTileWidth,
	tagTileLength,
	tagTileOffsets,
	tagTileByteCounts,
}
