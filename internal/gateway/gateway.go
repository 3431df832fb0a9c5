// Package gateway is the transport boundary to the record backend. The
// console never filters or aggregates records itself; it asks a Gateway.
package gateway

import (
	"context"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
)

// Gateway is the abstract record backend.
type Gateway interface {
	ListRecords(ctx context.Context, q domain.ListQuery) (domain.ListResult, error)
	CreateRecord(ctx context.Context, r models.Record) (models.Record, error)
	UpdateRecord(ctx context.Context, id int64, r models.Record) (models.Record, error)
	DeleteRecord(ctx context.Context, id int64) error
	BulkUpdateStatus(ctx context.Context, ids []int64, status models.Status) error
	GetSummary(ctx context.Context) (domain.Summary, error)
}
