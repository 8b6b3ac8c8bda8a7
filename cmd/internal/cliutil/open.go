// Package cliutil holds the boilerplate shared by the four CLI entry
// points: opening a COG from any supported URL scheme with the tunables
// from cogconfig, and a process-wide structured logger.
package cliutil

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cogtile/cogtile/bytesrc"
	"github.com/cogtile/cogtile/cog"
	"github.com/cogtile/cogtile/cogconfig"
)

// Logger is the process-wide structured logger, writing JSON to stderr so
// stdout stays reserved for command output (cog_info's metadata).
var Logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))

// OpenCog opens the COG at url using the tunables in cfg, returning both the
// parsed Cog and its ByteSource (the caller owns closing it).
func OpenCog(ctx context.Context, url string, cfg *cogconfig.Config) (*cog.Cog, bytesrc.ByteSource, error) {
	src, err := bytesrc.Open(ctx, url,
		bytesrc.WithChunkSize(uint64(cfg.ChunkSizeLocalBytes), uint64(cfg.ChunkSizeRemoteBytes)),
		bytesrc.WithCacheBudget(cfg.CacheBudgetBytes),
		bytesrc.WithMaxConcurrent(cfg.MaxConcurrentFetches),
		bytesrc.WithTimeout(time.Duration(cfg.RequestTimeoutSecs)*time.Second),
	)
	if err != nil {
		return nil, nil, err
	}

	c, err := cog.Open(ctx, src)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	return c, src, nil
}
