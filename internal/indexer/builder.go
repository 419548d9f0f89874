// Package indexer builds the deep-content search index from the
// persisted store: saved tool states, snippets, workflow snapshots,
// clipboard history, and tool presets.
package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gdziedzic/toolsearch/internal/clock"
	"github.com/gdziedzic/toolsearch/internal/domain/index"
	"github.com/gdziedzic/toolsearch/internal/metrics"
	"github.com/gdziedzic/toolsearch/internal/store"
)

// Config wires a Builder.
type Config struct {
	Store    store.Store
	Redactor Redactor
	Clock    clock.Clock
	Logger   *zap.Logger
	// ClipboardLimit caps indexed clipboard items; defaults to
	// DefaultClipboardLimit.
	ClipboardLimit int
}

// Builder assembles index snapshots from the content sources. Each build
// is from scratch: the returned snapshot replaces any previous one
// wholesale.
type Builder struct {
	sources  []Source
	redactor Redactor
	clock    clock.Clock
	logger   *zap.Logger
}

// New creates a builder over the standard content sources.
func New(cfg Config) *Builder {
	if cfg.ClipboardLimit <= 0 {
		cfg.ClipboardLimit = DefaultClipboardLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	return &Builder{
		sources: []Source{
			&toolStateSource{store: cfg.Store},
			&snippetSource{store: cfg.Store},
			&workflowSource{store: cfg.Store},
			&clipboardSource{store: cfg.Store, limit: cfg.ClipboardLimit},
			&presetSource{store: cfg.Store},
		},
		redactor: cfg.Redactor,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
}

// Build reads every source and produces a fresh snapshot. A failing
// source is logged and skipped; it never aborts the build. Entries whose
// content trips the sensitive-keyword denylist are dropped entirely.
func (b *Builder) Build(ctx context.Context) *index.Snapshot {
	start := time.Now()

	if !b.redactor.Evaluable() {
		// Fail closed: with no denylist we cannot tell safe content
		// from sensitive, so nothing is indexed.
		b.logger.Error("sensitive keyword list is empty; refusing to index any content")
	}

	var entries []index.Entry
	redacted := 0
	for _, src := range b.sources {
		srcEntries, err := src.Entries(ctx)
		if err != nil {
			b.logger.Warn("content source failed, skipping",
				zap.String("source", string(src.Type())),
				zap.Error(err),
			)
			continue
		}
		for _, e := range srcEntries {
			if b.redactor.Blocked(e.Content) {
				redacted++
				continue
			}
			entries = append(entries, e)
		}
	}

	snap := index.NewSnapshot(entries, b.clock.Now())

	metrics.ObserveIndexBuild(time.Since(start).Seconds())
	metrics.AddRedactedEntries(redacted)
	metrics.SetIndexEntries(snap.Stats(b.clock.Now()).ByType)

	b.logger.Info("content index built",
		zap.Int("entries", snap.Len()),
		zap.Int("redacted", redacted),
		zap.Duration("elapsed", time.Since(start)),
	)
	return snap
}
