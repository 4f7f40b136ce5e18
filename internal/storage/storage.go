package storage

import (
	"context"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

// Storage is a destination for weather reports: a file, a console,
// a remote HTTP endpoint or a search index.
type Storage interface {
	Store(ctx context.Context, report model.Report) error
	StoreBatch(ctx context.Context, reports []model.Report) error
	Close() error
}
