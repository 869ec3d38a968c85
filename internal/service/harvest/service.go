// Package harvest ties navigation, convergence and artifact writing into a
// single run per profile. Every terminal path writes an artifact.
package harvest

import (
	"context"
	"time"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/LouYuanbo1/feedharvest/internal/infra/artifact"
	"github.com/LouYuanbo1/feedharvest/internal/infra/browser"
	"github.com/LouYuanbo1/feedharvest/internal/service/engine"
	"github.com/LouYuanbo1/feedharvest/internal/service/locator"
	"github.com/LouYuanbo1/feedharvest/internal/service/navigator"
	"github.com/LouYuanbo1/feedharvest/internal/service/poll"
	"github.com/LouYuanbo1/feedharvest/param"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const reportTimeout = 20 * time.Second

type ArtifactWriter interface {
	WriteSnapshot(containers []model.Container, limit int, outcome model.Outcome, path string) error
	WriteFullPage(page, path string) error
	WriteEmpty(path string) error
}

// ReportSink receives one report per run. es.TypedEsClient[*model.Report]
// satisfies it.
type ReportSink interface {
	IndexDocWithID(ctx context.Context, doc *model.Report) error
}

type Option func(*Service)

// WithPoller replaces the poller, and with it the sleeper, used by the
// navigator and the engine.
func WithPoller(p *poll.Poller) Option {
	return func(s *Service) { s.poller = p }
}

func WithReportSink(sink ReportSink) Option {
	return func(s *Service) { s.sink = sink }
}

func WithVisibility(v locator.VisibilityFunc) Option {
	return func(s *Service) { s.locatorOpts = append(s.locatorOpts, locator.WithVisibility(v)) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	cfg          config.Harvest
	saveFullPage bool
	// failurePage saves the page when the feed does not load.
	failurePage bool
	writer      ArtifactWriter
	sink        ReportSink
	poller      *poll.Poller
	locatorOpts []locator.Option
	now         func() time.Time
	base        zerolog.Logger
	log         zerolog.Logger

	locator   *locator.Locator
	navigator *navigator.Navigator
	engine    *engine.Engine
}

func NewService(cfg *config.Config, writer ArtifactWriter, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:          cfg.Harvest,
		saveFullPage: cfg.Output.SaveFullPage,
		failurePage:  true,
		writer:       writer,
		poller:       poll.New(),
		now:          time.Now,
		base:         log,
		log:          log.With().Str("component", "harvest").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.wire()
	return s
}

func (s *Service) wire() {
	s.locator = locator.New(s.cfg, s.base, s.locatorOpts...)
	s.navigator = navigator.New(s.cfg, s.locator, s.poller, s.base)
	s.engine = engine.New(s.cfg, s.locator, s.poller, s.base)
}

// Harvest runs one profile on a session the caller owns. The returned
// report is never nil; the error is non-nil when the feed could not be
// loaded or the snapshot could not be written.
func (s *Service) Harvest(ctx context.Context, session browser.Session, job *param.Job) (*model.Report, error) {
	report := &model.Report{
		RunID:     uuid.NewString(),
		URL:       job.URL,
		StartedAt: s.now(),
	}
	log := s.log.With().Str("run_id", report.RunID).Str("url", job.URL).Logger()
	err := s.harvest(ctx, log, session, job, report)
	report.FinishedAt = s.now()
	if err != nil {
		report.Error = err.Error()
	}
	s.emit(ctx, log, report)
	return report, err
}

func (s *Service) harvest(ctx context.Context, log zerolog.Logger, session browser.Session, job *param.Job, report *model.Report) error {
	ready, err := s.navigator.Load(ctx, session, job.URL)
	if err != nil {
		report.Outcome = model.OutcomeNotLoaded
		log.Error().Err(err).Msg("feed not loaded")
		if s.failurePage {
			s.writeFullPage(ctx, log, session, job.OutDir, model.OutcomeNotLoaded, report)
		}
		return err
	}

	if !ready.HasItems {
		report.Outcome = model.OutcomeEmpty
		path := artifact.PathFor(job.OutDir, model.OutcomeEmpty, 0)
		if err := s.writer.WriteEmpty(path); err != nil {
			return err
		}
		report.Artifacts = append(report.Artifacts, path)
		log.Info().Str("path", path).Msg("feed is empty")
		return nil
	}

	res := s.engine.Run(ctx, session)
	report.Apply(res.State)
	report.Outcome = res.State.StopReason.Outcome()
	path := artifact.PathFor(job.OutDir, report.Outcome, res.State.HighestIndexSeen)
	if err := s.writer.WriteSnapshot(res.Containers, s.cfg.Target, report.Outcome, path); err != nil {
		return err
	}
	report.Containers = min(len(res.Containers), s.cfg.Target)
	report.Artifacts = append(report.Artifacts, path)

	if s.saveFullPage {
		s.writeFullPage(ctx, log, session, job.OutDir, report.Outcome, report)
	}
	log.Info().
		Str("outcome", string(report.Outcome)).
		Int("highest", int(report.HighestIndexSeen)).
		Int("containers", report.Containers).
		Msg("harvest finished")
	return nil
}

// writeFullPage is best effort: a page that cannot be read or written is
// only logged.
func (s *Service) writeFullPage(ctx context.Context, log zerolog.Logger, session browser.Session, dir string, outcome model.Outcome, report *model.Report) {
	page, err := session.HTML(context.WithoutCancel(ctx))
	if err != nil {
		log.Warn().Err(err).Msg("read full page")
		return
	}
	path := artifact.FullPagePath(dir, outcome)
	if err := s.writer.WriteFullPage(page, path); err != nil {
		log.Warn().Err(err).Msg("write full page")
		return
	}
	report.Artifacts = append(report.Artifacts, path)
}

func (s *Service) emit(ctx context.Context, log zerolog.Logger, report *model.Report) {
	if s.sink == nil {
		return
	}
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()
	if err := s.sink.IndexDocWithID(reqCtx, report); err != nil {
		log.Warn().Err(err).Msg("store run report")
	}
}
