package unitofwork

import (
	"context"

	"multisite-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SiteTreeRepository() contract.SiteTreeRepository
}
