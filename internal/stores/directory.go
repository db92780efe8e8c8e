package stores

import (
	"context"
	"errors"

	"github.com/luminapos/backoffice/internal/lottery"
)

// Directory adapts the store catalog to the lottery close workflow.
type Directory struct {
	repo *Repository
}

// NewDirectory constructs a Directory.
func NewDirectory(repo *Repository) *Directory {
	return &Directory{repo: repo}
}

// GetStore implements lottery.StoreDirectory. A missing store is
// reported with the workflow's STORE_NOT_FOUND code.
func (d *Directory) GetStore(ctx context.Context, id string) (lottery.StoreRef, error) {
	store, err := d.repo.GetStore(ctx, id)
	if errors.Is(err, ErrStoreNotFound) {
		return lottery.StoreRef{}, &lottery.Error{
			Code:    lottery.CodeStoreNotFound,
			Message: "store " + id + " not found",
		}
	}
	if err != nil {
		return lottery.StoreRef{}, err
	}
	return lottery.StoreRef{ID: store.ID, Name: store.Name, Timezone: store.Timezone}, nil
}
