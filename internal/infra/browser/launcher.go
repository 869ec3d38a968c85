package browser

import (
	"fmt"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

func newLauncher(cfg *config.Config, userDataDir string) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Rod.Headless).
		Leakless(cfg.Rod.Leakless).
		NoSandbox(cfg.Rod.NoSandbox).
		Set("no-first-run").
		Set("no-default-browser-check")
	if cfg.Rod.Bin != "" {
		l = l.Bin(cfg.Rod.Bin)
	}
	if userDataDir != "" {
		l = l.UserDataDir(userDataDir)
	}
	if cfg.Rod.DisableBlinkFeatures != "" {
		l = l.Set(flags.Flag("disable-blink-features"), cfg.Rod.DisableBlinkFeatures)
	}
	if cfg.Rod.Incognito {
		l = l.Set("incognito")
	}
	if cfg.Rod.DisableDevShmUsage {
		l = l.Set("disable-dev-shm-usage")
	}
	if cfg.Rod.UserAgent != "" {
		l = l.Set(flags.Flag("user-agent"), cfg.Rod.UserAgent)
	}
	return l
}

// Connect attaches to cfg.Rod.ControlURL, or launches a local browser on
// cfg.Rod.UserDataDir. The caller owns the returned browser.
func Connect(cfg *config.Config) (*rod.Browser, error) {
	return connectBrowser(cfg, cfg.Rod.ControlURL, cfg.Rod.UserDataDir)
}

// connectBrowser attaches to controlURL, or launches a local browser when it
// is empty.
func connectBrowser(cfg *config.Config, controlURL, userDataDir string) (*rod.Browser, error) {
	if controlURL == "" {
		u, err := newLauncher(cfg, userDataDir).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}
	browser := rod.New().ControlURL(controlURL).Trace(cfg.Rod.Trace)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return browser, nil
}
