package main

import (
	"path/filepath"
	"testing"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyHarvestFlags(t *testing.T) {
	cfg := config.Default()
	flags := harvestCmd.Flags()
	require.NoError(t, flags.Set("target", "25"))
	require.NoError(t, flags.Set("driver", "chromedp"))

	require.NoError(t, applyHarvestFlags(harvestCmd, cfg))
	assert.Equal(t, 25, cfg.Harvest.Target)
	assert.Equal(t, "chromedp", cfg.Driver)
	assert.Equal(t, 12, cfg.Harvest.MaxScrollRounds, "unset flags keep config values")

	require.NoError(t, flags.Set("stale-rounds", "0"))
	assert.Error(t, applyHarvestFlags(harvestCmd, cfg))
}

func TestCollectJobs(t *testing.T) {
	appcfg = config.Default()
	appcfg.Output.Directory = "out"

	jobs, err := collectJobs([]string{"https://www.linkedin.com/in/jane-doe/recent-activity/all/"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, filepath.Join("out", "jane-doe"), jobs[0].OutDir)

	_, err = collectJobs(nil)
	assert.Error(t, err)
}
