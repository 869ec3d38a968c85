package browser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/go-rod/rod"
	"github.com/rs/zerolog"
)

// Pool 浏览器池,每个采集任务独占一个浏览器,用完放回
type Pool struct {
	cfg         *config.Config
	size        int
	browserPool rod.Pool[rod.Browser]
	instanceCh  chan int
	log         zerolog.Logger
}

// NewPool prepares up to size browsers. With more than one browser each
// instance gets its own user data directory under cfg.Rod.UserDataDir
// because Chrome locks a profile directory per process; a single browser
// uses the directory itself. Browsers are launched lazily on first Acquire.
func NewPool(cfg *config.Config, size int, log zerolog.Logger) (*Pool, error) {
	instanceCh := make(chan int, size)
	for instanceID := range size {
		if cfg.Rod.UserDataDir != "" && size > 1 {
			dir := instanceDir(cfg.Rod.UserDataDir, instanceID)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create instance data dir: %w", err)
			}
		}
		instanceCh <- instanceID
	}
	return &Pool{
		cfg:         cfg,
		size:        size,
		browserPool: rod.NewBrowserPool(size),
		instanceCh:  instanceCh,
		log:         log.With().Str("component", "browser_pool").Logger(),
	}, nil
}

func instanceDir(base string, id int) string {
	return filepath.Join(base, fmt.Sprintf("instance_%d", id))
}

func (p *Pool) createBrowser() (*rod.Browser, error) {
	id := <-p.instanceCh
	dir := p.cfg.Rod.UserDataDir
	if dir != "" && p.size > 1 {
		dir = instanceDir(dir, id)
	}
	browser, err := connectBrowser(p.cfg, "", dir)
	if err != nil {
		p.instanceCh <- id
		return nil, err
	}
	p.log.Debug().Int("instance", id).Msg("browser launched")
	return browser, nil
}

// Acquire hands out a session on an exclusively owned browser. release closes
// the page and returns the browser to the pool.
func (p *Pool) Acquire() (Session, func(), error) {
	browser, err := p.browserPool.Get(p.createBrowser)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire browser: %w", err)
	}
	session, err := NewRodSession(browser, p.cfg.Rod.Stealth)
	if err != nil {
		p.browserPool.Put(browser)
		return nil, nil, err
	}
	release := func() {
		if err := session.Close(); err != nil {
			p.log.Warn().Err(err).Msg("close page")
		}
		p.browserPool.Put(browser)
	}
	return session, release, nil
}

func (p *Pool) Close() {
	p.browserPool.Cleanup(func(b *rod.Browser) {
		if err := b.Close(); err != nil {
			p.log.Warn().Err(err).Msg("close browser")
		}
	})
}
