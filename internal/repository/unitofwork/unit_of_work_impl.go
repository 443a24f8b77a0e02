package unitofwork

import (
	"context"
	"fmt"

	"multisite-be/internal/repository/contract"
	"multisite-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUnitOfWork binds db to ctx so reads outside Begin carry the request's
// deadline and trace.
func NewUnitOfWork(ctx context.Context, db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db.WithContext(ctx),
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

// Rollback is a no-op after Commit, so it can always be deferred.
func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) SiteTreeRepository() contract.SiteTreeRepository {
	return implementation.NewSiteTreeRepository(u.getDB())
}
