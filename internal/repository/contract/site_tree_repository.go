package contract

import (
	"context"
	"errors"

	"multisite-be/internal/entity"
	"multisite-be/internal/repository/specification"
)

var (
	ErrNodeNotFound  = errors.New("site tree node not found")
	ErrDuplicateNode = errors.New("site tree node already exists")
)

type SiteTreeRepository interface {
	Create(ctx context.Context, node *entity.Node) error
	Update(ctx context.Context, node *entity.Node) error
	Publish(ctx context.Context, node *entity.Node) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Node, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Node, error)
	FindLive(ctx context.Context, id int64) (*entity.Node, error)
	// SyncLiveSite moves already published nodes to siteId without republishing them.
	SyncLiveSite(ctx context.Context, ids []int64, siteId int64) (int64, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
