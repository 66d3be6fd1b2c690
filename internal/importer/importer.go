// Package importer bulk-creates listings from a file of submissions.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"

	"listing_intake/internal/app"
	"listing_intake/internal/category"
	"listing_intake/internal/domain"
	"listing_intake/internal/form"
)

type Creator interface {
	Create(ctx context.Context, sub *form.Submission, files []app.File) (domain.Listing, error)
}

// RejectionLog records items that were not stored. Optional.
type RejectionLog interface {
	LogRejection(ctx context.Context, source string, item int, reason string) error
}

type Summary struct {
	Created  int64
	Rejected int64
	Failed   int64
}

// Load reads a YAML or JSON document holding a list of submissions. Each
// entry is either flat bracket keys or nested prefix objects.
func Load(path string) ([]map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) ([]map[string]any, error) {
	var items []map[string]any
	if err := yaml.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("parse submissions: %w", err)
	}
	return items, nil
}

type Runner struct {
	Creator   Creator
	Rejection RejectionLog
	Workers   int
	Source    string
}

// Run creates every item with at most Workers in flight. Validation and
// decode failures count as rejected; anything else as failed.
func (r *Runner) Run(ctx context.Context, items []map[string]any) (Summary, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var sum Summary

	for i, item := range items {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return sum, err
		}
		wg.Add(1)
		go func(n int, raw map[string]any) {
			defer wg.Done()
			defer sem.Release(1)

			l, err := r.Creator.Create(ctx, form.SubmissionFromMap(raw), nil)
			if err == nil {
				atomic.AddInt64(&sum.Created, 1)
				log.Info().Int("item", n).Str("id", l.ID).Msg("import ok")
				return
			}
			if rejected(err) {
				atomic.AddInt64(&sum.Rejected, 1)
				log.Warn().Int("item", n).Err(err).Msg("import rejected")
				if r.Rejection != nil {
					if lerr := r.Rejection.LogRejection(ctx, r.Source, n, err.Error()); lerr != nil {
						log.Error().Err(lerr).Int("item", n).Msg("log rejection failed")
					}
				}
				return
			}
			atomic.AddInt64(&sum.Failed, 1)
			log.Error().Int("item", n).Err(err).Msg("import failed")
		}(i, item)
	}

	wg.Wait()
	return sum, nil
}

func rejected(err error) bool {
	var ve *category.ValidationError
	var pc *form.PathConflictError
	return errors.As(err, &ve) || errors.As(err, &pc) || errors.Is(err, form.ErrEmptyPath)
}
