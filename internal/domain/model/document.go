package model

import (
	"time"

	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

const ReportIndex = "feedharvest-runs"

// Document 所有写入ES的文档结构体都要实现这些函数
type Document interface {
	GetID() string
	GetIndex() string
	GetTypeMapping() *types.TypeMapping
}

// Report 一次采集运行的记录
type Report struct {
	RunID            string    `json:"run_id"`
	URL              string    `json:"url"`
	Outcome          Outcome   `json:"outcome"`
	StopReason       string    `json:"stop_reason"`
	HighestIndexSeen ItemIndex `json:"highest_index_seen"`
	ScrollRounds     int       `json:"scroll_rounds"`
	StaleStreak      int       `json:"stale_streak"`
	Containers       int       `json:"containers"`
	Artifacts        []string  `json:"artifacts"`
	Error            string    `json:"error,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

func (r *Report) GetID() string {
	return r.RunID
}

func (r *Report) GetIndex() string {
	return ReportIndex
}

func (r *Report) GetTypeMapping() *types.TypeMapping {
	return &types.TypeMapping{
		Properties: map[string]types.Property{
			"run_id":             types.NewKeywordProperty(),
			"url":                types.NewKeywordProperty(),
			"outcome":            types.NewKeywordProperty(),
			"stop_reason":        types.NewKeywordProperty(),
			"highest_index_seen": types.NewIntegerNumberProperty(),
			"scroll_rounds":      types.NewIntegerNumberProperty(),
			"stale_streak":       types.NewIntegerNumberProperty(),
			"containers":         types.NewIntegerNumberProperty(),
			"artifacts":          types.NewKeywordProperty(),
			"error":              types.NewTextProperty(),
			"started_at":         types.NewDateProperty(),
			"finished_at":        types.NewDateProperty(),
		},
	}
}

// Apply copies the final engine state into the report.
func (r *Report) Apply(state FeedState) {
	r.StopReason = state.StopReason.String()
	r.HighestIndexSeen = state.HighestIndexSeen
	r.ScrollRounds = state.ScrollRound
	r.StaleStreak = state.StaleStreak
}
