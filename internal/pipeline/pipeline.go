// Package pipeline runs file contents through an ordered chain of stages and
// lets profiling handles observe each entity as it passes a lifecycle point.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoStages is returned when a pipeline is run without any stage
var ErrNoStages = errors.New("pipeline has no stages")

// Stage transforms the complete contents of one entity
type Stage interface {
	Process(ctx context.Context, entity string, in []byte) ([]byte, error)
}

// StageFunc adapts a function to Stage
type StageFunc func(ctx context.Context, entity string, in []byte) ([]byte, error)

// Process calls f
func (f StageFunc) Process(ctx context.Context, entity string, in []byte) ([]byte, error) {
	return f(ctx, entity, in)
}

// Chain runs stages in order as a single stage
func Chain(stages ...Stage) Stage {
	return StageFunc(func(ctx context.Context, entity string, in []byte) ([]byte, error) {
		out := in
		for _, s := range stages {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			var err error
			if out, err = s.Process(ctx, entity, out); err != nil {
				return nil, err
			}
		}
		return out, nil
	})
}

// Pipeline is an ordered set of stages shared by every entity
type Pipeline struct {
	stages  []Stage
	onStart []func(entity string)
	logger  zerolog.Logger
}

// New creates a pipeline
func New(logger zerolog.Logger, stages ...Stage) *Pipeline {
	return &Pipeline{
		stages: stages,
		logger: logger,
	}
}

// Use appends stages
func (p *Pipeline) Use(stages ...Stage) *Pipeline {
	p.stages = append(p.stages, stages...)
	return p
}

// OnStart registers fn to run before an entity's contents are read
func (p *Pipeline) OnStart(fn func(entity string)) *Pipeline {
	p.onStart = append(p.onStart, fn)
	return p
}

// Len returns the number of stages
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Run reads r to completion and passes the contents through every stage
func (p *Pipeline) Run(ctx context.Context, entity string, r io.Reader) ([]byte, error) {
	if len(p.stages) == 0 {
		return nil, ErrNoStages
	}
	for _, fn := range p.onStart {
		fn(entity)
	}

	started := time.Now()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", entity, err)
	}

	out, err := Chain(p.stages...).Process(ctx, entity, buf.Bytes())
	if err != nil {
		p.logger.Warn().Err(err).Str("entity", entity).Msg("pipeline failed")
		return nil, err
	}

	p.logger.Debug().
		Str("entity", entity).
		Int("bytes_in", buf.Len()).
		Int("bytes_out", len(out)).
		Dur("elapsed", time.Since(started)).
		Msg("entity complete")
	return out, nil
}

// RunFile runs the file at path, using the path as entity identity
func (p *Pipeline) RunFile(ctx context.Context, path string) ([]byte, error) {
	if len(p.stages) == 0 {
		return nil, ErrNoStages
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return p.Run(ctx, path, f)
}

// RunFiles runs every path with at most jobs files in flight.
// The first failure cancels the remaining files.
func (p *Pipeline) RunFiles(ctx context.Context, paths []string, jobs int) error {
	if jobs < 1 {
		jobs = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, path := range paths {
		g.Go(func() error {
			_, err := p.RunFile(ctx, path)
			return err
		})
	}
	return g.Wait()
}
