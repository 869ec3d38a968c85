package es

import (
	"context"

	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types/enums/sortorder"
)

// RecentReports returns up to size matching run reports, newest first. An
// empty outcome matches every run.
func RecentReports(ctx context.Context, client TypedEsClient[*model.Report], outcome model.Outcome, size int) ([]*model.Report, int64, error) {
	query := &types.Query{MatchAll: &types.MatchAllQuery{}}
	if outcome != "" {
		query = &types.Query{
			Term: map[string]types.TermQuery{
				"outcome": {Value: string(outcome)},
			},
		}
	}
	newestFirst := &types.SortOptions{
		SortOptions: map[string]types.FieldSort{
			"started_at": {Order: &sortorder.Desc},
		},
	}
	return client.SearchDoc(ctx, query, 0, size, newestFirst)
}
