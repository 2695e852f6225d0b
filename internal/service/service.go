// Package service runs extractions for the HTTP and MCP front ends.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/tsawler/slidetag"
	"github.com/tsawler/slidetag/format"
	"github.com/tsawler/slidetag/internal/cache"
	"github.com/tsawler/slidetag/tags"
)

// ErrUnsupportedFormat is returned for documents other than PPTX. It
// matches slidetag.ErrInvalidInput.
var ErrUnsupportedFormat = fmt.Errorf("%w: only .pptx documents can be extracted", slidetag.ErrInvalidInput)

// Recorder persists finished extractions.
type Recorder interface {
	Record(ctx context.Context, fileName, checksum string, slides []slidetag.SlideRecord, warnings []slidetag.Warning) error
}

// Options tune every extraction the service runs.
type Options struct {
	MaxDocumentBytes int64 // 0 means unlimited
	NormalizeUnicode bool
}

// Result is one extraction as returned to clients.
type Result struct {
	Checksum string                 `json:"checksum"`
	Cached   bool                   `json:"cached"`
	Slides   []slidetag.SlideRecord `json:"slides"`
	Warnings []slidetag.Warning     `json:"warnings"`
}

// Service extracts documents with the current tag mapping. It is safe for
// concurrent use; the mapping can be replaced while extractions run.
type Service struct {
	current    atomic.Pointer[mapping]
	generation atomic.Uint64
	opts       Options
	cache      *cache.Cache
	recorder   Recorder
	logger     *slog.Logger
}

// mapping is a resolver with the generation it was installed at. Cache keys
// carry the generation, so a result computed with a replaced resolver can
// never be served after the swap.
type mapping struct {
	resolver   *tags.Resolver
	generation uint64
}

// New returns a Service. cache and recorder may be nil.
func New(resolver *tags.Resolver, opts Options, c *cache.Cache, recorder Recorder, logger *slog.Logger) *Service {
	if resolver == nil {
		resolver = tags.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		opts:     opts,
		cache:    c,
		recorder: recorder,
		logger:   logger.With("component", "service"),
	}
	s.current.Store(&mapping{resolver: resolver})
	return s
}

// Resolver returns the mapping currently in effect.
func (s *Service) Resolver() *tags.Resolver {
	return s.current.Load().resolver
}

// SetMapping replaces the tag mapping. Cached results were produced with
// the old mapping and are dropped.
func (s *Service) SetMapping(m tags.Mapping) {
	r := tags.NewResolver(m)
	s.current.Store(&mapping{resolver: r, generation: s.generation.Add(1)})
	s.cache.Purge()
	s.logger.Info("tag mapping replaced", "entries", r.Len())
}

// Resolve maps a single label with the current mapping.
func (s *Service) Resolve(label string) string {
	return s.Resolver().Resolve(label)
}

// Extract runs an extraction over data. name is the client's file name and
// is used for format checks and persistence; an empty name skips the
// format check.
func (s *Service) Extract(ctx context.Context, name string, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name != "" && !format.Detect(name).Extractable() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
	}
	if s.opts.MaxDocumentBytes > 0 && int64(len(data)) > s.opts.MaxDocumentBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", slidetag.ErrTooLarge, len(data), s.opts.MaxDocumentBytes)
	}

	checksum := cache.Checksum(data)
	log := s.logger.With("file", name, "checksum", checksum)

	// One snapshot serves the lookup, the extraction and the insert.
	cur := s.current.Load()
	key := cacheKey(cur.generation, checksum)

	if entry, ok := s.cache.Get(key); ok {
		log.Debug("extraction served from cache")
		return newResult(checksum, true, entry.Slides, entry.Warnings), nil
	}

	ext := slidetag.FromBytes(data).
		Tags(cur.resolver).
		MaxSize(s.opts.MaxDocumentBytes)
	if s.opts.NormalizeUnicode {
		ext = ext.NormalizeUnicode()
	}

	slides, warnings, err := ext.Records()
	if err != nil {
		log.Warn("extraction failed", "error", err)
		return nil, err
	}
	log.Info("extraction finished", "slides", len(slides), "warnings", len(warnings))

	s.cache.Add(key, cache.Entry{Slides: slides, Warnings: warnings})

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, name, checksum, slides, warnings); err != nil {
			// The result is still good; persistence is best effort.
			log.Error("recording extraction failed", "error", err)
		}
	}

	return newResult(checksum, false, slides, warnings), nil
}

// ExtractFile reads and extracts the document at path.
func (s *Service) ExtractFile(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", slidetag.ErrInvalidInput, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", slidetag.ErrInvalidInput, path)
	}
	if s.opts.MaxDocumentBytes > 0 && info.Size() > s.opts.MaxDocumentBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", slidetag.ErrTooLarge, info.Size(), s.opts.MaxDocumentBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", slidetag.ErrInvalidInput, err)
	}
	return s.Extract(ctx, filepath.Base(path), data)
}

func cacheKey(generation uint64, checksum string) string {
	return strconv.FormatUint(generation, 10) + ":" + checksum
}

func newResult(checksum string, cached bool, slides []slidetag.SlideRecord, warnings []slidetag.Warning) *Result {
	if warnings == nil {
		warnings = []slidetag.Warning{}
	}
	return &Result{
		Checksum: checksum,
		Cached:   cached,
		Slides:   slides,
		Warnings: warnings,
	}
}
