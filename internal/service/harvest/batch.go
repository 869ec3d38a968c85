package harvest

import (
	"context"
	"errors"
	"fmt"

	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/LouYuanbo1/feedharvest/internal/infra/browser"
	"github.com/LouYuanbo1/feedharvest/param"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Acquirer hands out an exclusively owned session. release must be called
// once the run is done with it.
type Acquirer func(ctx context.Context) (session browser.Session, release func(), err error)

func PoolAcquirer(pool *browser.Pool) Acquirer {
	return func(ctx context.Context) (browser.Session, func(), error) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		return pool.Acquire()
	}
}

// Batch 并发采集多个主页,每个任务独占一个会话
type Batch struct {
	svc         *Service
	acquire     Acquirer
	parallelism int
	log         zerolog.Logger
}

func NewBatch(svc *Service, acquire Acquirer, parallelism int, log zerolog.Logger) *Batch {
	return &Batch{
		svc:         svc,
		acquire:     acquire,
		parallelism: max(parallelism, 1),
		log:         log.With().Str("component", "batch").Logger(),
	}
}

// Run harvests every job, at most parallelism at a time. A failing job does
// not stop the others; reports line up with jobs and the returned error
// joins every failure.
func (b *Batch) Run(ctx context.Context, jobs []*param.Job) ([]*model.Report, error) {
	reports := make([]*model.Report, len(jobs))
	errs := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(b.parallelism)
	for i, job := range jobs {
		g.Go(func() error {
			report, err := b.runOne(ctx, job)
			reports[i] = report
			if err != nil {
				b.log.Error().Err(err).Str("url", job.URL).Msg("job failed")
				errs[i] = fmt.Errorf("%s: %w", job.URL, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	b.log.Info().Int("jobs", len(jobs)).Int("failed", failed).Msg("batch finished")
	return reports, errors.Join(errs...)
}

func (b *Batch) runOne(ctx context.Context, job *param.Job) (*model.Report, error) {
	if err := job.IsValid(); err != nil {
		return failedReport(job, err), err
	}
	session, release, err := b.acquire(ctx)
	if err != nil {
		return failedReport(job, err), err
	}
	defer release()
	return b.svc.Harvest(ctx, session, job)
}

func failedReport(job *param.Job, err error) *model.Report {
	return &model.Report{URL: job.URL, Outcome: model.OutcomeNotLoaded, Error: err.Error()}
}
