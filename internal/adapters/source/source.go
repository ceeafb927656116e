// Package source loads shift rows from CSV files and Postgres.
package source

import (
	"context"

	"github.com/okian/icetime/internal/domain/model"
)

// Source yields the shifts of a batch.
type Source interface {
	Load(ctx context.Context) ([]model.Shift, error)
}
