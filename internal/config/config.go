package config

import (
	"fmt"
	"time"
)

type Config struct {
	Driver string `yaml:"driver" json:"driver"`

	Rod struct {
		ControlURL           string `yaml:"control_url" json:"control_url"`
		UserDataDir          string `yaml:"user_data_dir" json:"user_data_dir"`
		Headless             bool   `yaml:"headless" json:"headless"`
		DisableBlinkFeatures string `yaml:"disable_blink_features" json:"disable_blink_features"`
		Incognito            bool   `yaml:"incognito" json:"incognito"`
		DisableDevShmUsage   bool   `yaml:"disable_dev_shm_usage" json:"disable_dev_shm_usage"`
		NoSandbox            bool   `yaml:"no_sandbox" json:"no_sandbox"`
		UserAgent            string `yaml:"user_agent" json:"user_agent"`
		Leakless             bool   `yaml:"leakless" json:"leakless"`
		Bin                  string `yaml:"bin" json:"bin"`
		Stealth              bool   `yaml:"stealth" json:"stealth"`
		Trace                bool   `yaml:"trace" json:"trace"`
	} `yaml:"rod" json:"rod"`

	Chromedp struct {
		LifeTime             int    `yaml:"life_time" json:"life_time"`
		UserDataDir          string `yaml:"user_data_dir" json:"user_data_dir"`
		Headless             bool   `yaml:"headless" json:"headless"`
		DisableBlinkFeatures string `yaml:"disable_blink_features" json:"disable_blink_features"`
		Incognito            bool   `yaml:"incognito" json:"incognito"`
		DisableDevShmUsage   bool   `yaml:"disable_dev_shm_usage" json:"disable_dev_shm_usage"`
		NoSandbox            bool   `yaml:"no_sandbox" json:"no_sandbox"`
		UserAgent            string `yaml:"user_agent" json:"user_agent"`
		WindowWidth          int    `yaml:"window_width" json:"window_width"`
		WindowHeight         int    `yaml:"window_height" json:"window_height"`
	} `yaml:"chromedp" json:"chromedp"`

	Harvest Harvest `yaml:"harvest" json:"harvest"`

	Output struct {
		Directory    string `yaml:"directory" json:"directory"`
		SaveFullPage bool   `yaml:"save_full_page" json:"save_full_page"`
		Title        string `yaml:"title" json:"title"`
	} `yaml:"output" json:"output"`

	Logging struct {
		Level string `yaml:"level" json:"level"`
		File  string `yaml:"file" json:"file"`
	} `yaml:"logging" json:"logging"`

	Elasticsearch struct {
		Enabled  bool   `yaml:"enabled" json:"enabled"`
		Username string `yaml:"username" json:"username"`
		Password string `yaml:"password" json:"password"`
		Address  string `yaml:"address" json:"address"`
	} `yaml:"elasticsearch" json:"elasticsearch"`

	Batch struct {
		Parallelism int `yaml:"parallelism" json:"parallelism"`
	} `yaml:"batch" json:"batch"`
}

// Harvest 采集预算与选择器,所有等待时间按次数计算而不是按墙钟计算
type Harvest struct {
	Target          int           `yaml:"target" json:"target"`
	NavRetries      int           `yaml:"nav_retries" json:"nav_retries"`
	NavDelay        time.Duration `yaml:"nav_delay" json:"nav_delay"`
	ScanChecks      int           `yaml:"scan_checks" json:"scan_checks"`
	ScanDelay       time.Duration `yaml:"scan_delay" json:"scan_delay"`
	ScrollSettle    time.Duration `yaml:"scroll_settle" json:"scroll_settle"`
	MaxScrollRounds int           `yaml:"max_scroll_rounds" json:"max_scroll_rounds"`
	StaleRounds     int           `yaml:"stale_rounds" json:"stale_rounds"`
	ScrollMargin    float64       `yaml:"scroll_margin" json:"scroll_margin"`
	ScrollBase      float64       `yaml:"scroll_base" json:"scroll_base"`
	ScrollIncrement float64       `yaml:"scroll_increment" json:"scroll_increment"`

	MarkerSelector    string     `yaml:"marker_selector" json:"marker_selector"`
	EmptyFeedSelector string     `yaml:"empty_feed_selector" json:"empty_feed_selector"`
	Strategies        []Strategy `yaml:"strategies" json:"strategies"`
}

// Strategy one ancestor-resolution step, tried in list order.
type Strategy struct {
	Name     string `yaml:"name" json:"name"`
	Selector string `yaml:"selector" json:"selector"`
}

func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "update", Selector: "div.feed-shared-update-v2"},
		{Name: "article", Selector: `[role="article"]`},
		{Name: "card", Selector: "div.artdeco-card"},
	}
}

func Default() *Config {
	cfg := &Config{Driver: "rod"}
	cfg.Rod.Headless = true
	cfg.Rod.Leakless = true
	cfg.Rod.Stealth = true
	cfg.Rod.DisableBlinkFeatures = "AutomationControlled"
	cfg.Chromedp.LifeTime = 3600
	cfg.Chromedp.Headless = true
	cfg.Chromedp.DisableBlinkFeatures = "AutomationControlled"
	cfg.Chromedp.WindowWidth = 1280
	cfg.Chromedp.WindowHeight = 900
	cfg.Harvest = Harvest{
		Target:            10,
		NavRetries:        20,
		NavDelay:          2 * time.Second,
		ScanChecks:        10,
		ScanDelay:         15 * time.Second,
		ScrollSettle:      3 * time.Second,
		MaxScrollRounds:   12,
		StaleRounds:       3,
		ScrollMargin:      200,
		ScrollBase:        800,
		ScrollIncrement:   400,
		MarkerSelector:    "h2.visually-hidden",
		EmptyFeedSelector: "section.artdeco-empty-state, div.artdeco-empty-state",
		Strategies:        DefaultStrategies(),
	}
	cfg.Output.Directory = "output"
	cfg.Output.Title = "Latest Posts"
	cfg.Logging.Level = "info"
	cfg.Elasticsearch.Address = "http://localhost:9200"
	cfg.Batch.Parallelism = 1
	return cfg
}

func (c *Config) Validate() error {
	switch c.Driver {
	case "rod", "chromedp":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.Batch.Parallelism <= 0 {
		return fmt.Errorf("batch.parallelism must be positive, got %d", c.Batch.Parallelism)
	}
	return c.Harvest.Validate()
}

func (h *Harvest) Validate() error {
	counts := []struct {
		name  string
		value int
	}{
		{"target", h.Target},
		{"nav_retries", h.NavRetries},
		{"scan_checks", h.ScanChecks},
		{"max_scroll_rounds", h.MaxScrollRounds},
		{"stale_rounds", h.StaleRounds},
	}
	for _, c := range counts {
		if c.value <= 0 {
			return fmt.Errorf("harvest.%s must be positive, got %d", c.name, c.value)
		}
	}
	if h.NavDelay < 0 || h.ScanDelay < 0 || h.ScrollSettle < 0 {
		return fmt.Errorf("harvest delays must not be negative")
	}
	if h.MarkerSelector == "" {
		return fmt.Errorf("harvest.marker_selector is empty")
	}
	if len(h.Strategies) == 0 {
		return fmt.Errorf("harvest.strategies is empty")
	}
	for i, s := range h.Strategies {
		if s.Selector == "" {
			return fmt.Errorf("harvest.strategies[%d] has an empty selector", i)
		}
	}
	return nil
}
