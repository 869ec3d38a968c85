package harvest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/LouYuanbo1/feedharvest/internal/infra/browser"
	"github.com/LouYuanbo1/feedharvest/internal/service/poll"
	"github.com/LouYuanbo1/feedharvest/param"
)

// Extract re-runs item location over a saved full-page snapshot and writes
// a fresh LatestPosts artifact to outDir. The saved document never changes,
// so a single check per phase and a single stale round are enough; scrolling
// the static document is a no-op.
func (s *Service) Extract(ctx context.Context, htmlPath, outDir string) (*model.Report, error) {
	f, err := os.Open(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("open saved page: %w", err)
	}
	defer f.Close()
	session, err := browser.NewStaticSession(f)
	if err != nil {
		return nil, err
	}
	job := &param.Job{
		Name:   param.NameFor(filepath.Base(htmlPath)),
		URL:    htmlPath,
		OutDir: outDir,
	}
	return s.offline().Harvest(ctx, session, job)
}

func (s *Service) offline() *Service {
	cfg := s.cfg
	cfg.NavRetries = 1
	cfg.NavDelay = 0
	cfg.ScanChecks = 1
	cfg.ScanDelay = 0
	cfg.ScrollSettle = 0
	cfg.StaleRounds = 1

	o := *s
	o.cfg = cfg
	o.saveFullPage = false
	o.failurePage = false
	o.poller = &poll.Poller{}
	o.log = s.log.With().Bool("offline", true).Logger()
	o.wire()
	return &o
}
