// Package dump reads every matching mapping of a process through the
// pipeline, stores the result on disk and reads it back.
package dump

import (
	"context"
	"memdump/pkg/logflags"
	"memdump/pkg/prowler"
	"time"

	"golang.org/x/sync/errgroup"
)

// Block is one mapping and the bytes that could be read from it. Data may be
// shorter than the mapping when the read stopped early.
type Block struct {
	Range prowler.MemoryRegion
	Data  []byte
}

// DefaultMaxRange is the largest mapping read in one piece.
const DefaultMaxRange = 1 << 30

type Dumper struct {
	prowler  *prowler.Prowler
	logger   logflags.Logger
	maxRange uint64
}

type Option func(*Dumper)

// WithMaxRange skips mappings larger than n bytes; each one would otherwise
// be held in memory in full.
func WithMaxRange(n uint64) Option {
	return func(d *Dumper) {
		d.maxRange = n
	}
}

func NewDumper(p *prowler.Prowler, logger logflags.Logger, opts ...Option) *Dumper {
	d := &Dumper{
		prowler:  p,
		logger:   logger,
		maxRange: DefaultMaxRange,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dump reads all mappings matching perms with one worker per slot. A mapping
// that cannot be read is logged and kept with whatever was read before the
// failure; only cancellation aborts the dump.
func (d *Dumper) Dump(ctx context.Context, perms string) ([]Block, error) {
	ranges, err := d.prowler.Ranges(perms)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	blocks := make([]Block, len(ranges))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.prowler.Slots())
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if r.Size() > d.maxRange {
				d.logger.Warnf("skipping %s: %d bytes exceed the %d byte range limit", r, r.Size(), d.maxRange)
				return nil
			}

			d.logger.Debugf("reading %s", r)
			data, err := d.prowler.ReadFull(r.Start, int(r.Size()))
			if err != nil {
				d.logger.Warnf("failed to read the memory %x:%x after %d bytes: %v", r.Start, r.Size(), len(data), err)
			}
			blocks[i] = Block{Range: r, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := blocks[:0]
	for _, b := range blocks {
		if len(b.Data) > 0 {
			kept = append(kept, b)
		}
	}
	d.logger.Infof("dumped %d of %d ranges in %s", len(kept), len(ranges), time.Since(start))

	return kept, nil
}
