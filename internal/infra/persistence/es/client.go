package es

import (
	"context"

	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

// TypedEsClient 所有写入ES的文档结构体都要实现 model.Document
type TypedEsClient[D model.Document] interface {
	CreateIndexWithMapping(ctx context.Context) error
	IndexDocWithID(ctx context.Context, doc D) error
	// GetDoc returns the zero D without error when id does not exist.
	GetDoc(ctx context.Context, id string) (D, error)
	CountDocs(ctx context.Context) (int64, error)
	SearchDoc(ctx context.Context, query *types.Query, from, size int, sorts ...types.SortCombinationsVariant) ([]D, int64, error)
}
