// Package snapshot wraps a run's results and hands them to blob sinks.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/board-crawler/internal/board"
	"github.com/JakeFAU/board-crawler/internal/metrics"
)

const contentType = "application/json; charset=utf-8"

// Snapshot is the persisted form of one run.
type Snapshot struct {
	RunID             string               `json:"runId,omitempty"`
	GeneratedAt       time.Time            `json:"generatedAt"`
	Mode              string               `json:"mode"`
	Pages             []int                `json:"pages"`
	MaxPostAgeMinutes float64              `json:"maxPostAgeMinutes"`
	Results           []board.ThreadResult `json:"results"`
}

// Build assembles a snapshot. With dropEmpty set, threads whose posts were
// all filtered out are left out.
func Build(
	runID string,
	generatedAt time.Time,
	mode string,
	pages []int,
	maxPostAgeMinutes float64,
	results []board.ThreadResult,
	dropEmpty bool,
) Snapshot {
	kept := make([]board.ThreadResult, 0, len(results))
	for _, r := range results {
		if dropEmpty && len(r.Posts) == 0 {
			continue
		}
		kept = append(kept, r)
	}
	if pages == nil {
		pages = []int{}
	}
	return Snapshot{
		RunID:             runID,
		GeneratedAt:       generatedAt.UTC(),
		Mode:              mode,
		Pages:             pages,
		MaxPostAgeMinutes: maxPostAgeMinutes,
		Results:           kept,
	}
}

// Marshal renders the snapshot as indented JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// Sink is a named destination for snapshots.
type Sink struct {
	Name  string
	Store board.BlobStore
}

// Published describes one successful upload.
type Published struct {
	Sink     string
	Location string
}

// Publisher writes a snapshot to every configured sink.
type Publisher struct {
	sinks    []Sink
	filename string
	hasher   board.Hasher
	logger   *zap.Logger
}

// NewPublisher constructs a Publisher. The hasher may be nil.
func NewPublisher(sinks []Sink, filename string, hasher board.Hasher, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		sinks:    sinks,
		filename: filename,
		hasher:   hasher,
		logger:   logger.Named("snapshot"),
	}
}

// Publish marshals the snapshot once and uploads it to each sink in order.
// The first failing sink aborts the publish.
func (p *Publisher) Publish(ctx context.Context, snap Snapshot) ([]Published, error) {
	data, err := snap.Marshal()
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("run_id", snap.RunID),
		zap.Int("bytes", len(data)),
		zap.Int("threads", len(snap.Results)),
	}
	if p.hasher != nil {
		digest, err := p.hasher.Hash(data)
		if err != nil {
			return nil, fmt.Errorf("hash snapshot: %w", err)
		}
		fields = append(fields, zap.String("sha256", digest))
	}

	published := make([]Published, 0, len(p.sinks))
	for _, sink := range p.sinks {
		location, err := sink.Store.PutObject(ctx, p.filename, contentType, bytes.NewReader(data))
		metrics.ObserveSnapshot(sink.Name, err)
		if err != nil {
			return published, fmt.Errorf("publish snapshot to %s: %w", sink.Name, err)
		}
		p.logger.Info("snapshot published",
			append(fields, zap.String("sink", sink.Name), zap.String("location", location))...,
		)
		published = append(published, Published{Sink: sink.Name, Location: location})
	}
	return published, nil
}
