package multisite

import (
	"context"

	"multisite-be/internal/entity"
)

// TreeReader is the read side of the tree storage.
// FindNodeByID returns (nil, nil) when no node has the id.
type TreeReader interface {
	FindNodeByID(ctx context.Context, id int64) (*entity.Node, error)
	ChildrenOf(ctx context.Context, id int64) ([]*entity.Node, error)
}

type TreeWriter interface {
	WriteNode(ctx context.Context, node *entity.Node) error
}

// TreeStore is everything the engine and the bootstrap guard need from storage.
type TreeStore interface {
	TreeReader
	TreeWriter
	CreateNode(ctx context.Context, node *entity.Node) error
	PublishNode(ctx context.Context, node *entity.Node) error
}

type Directory interface {
	DefaultSiteID(ctx context.Context) (int64, error)
	CurrentSiteID(ctx context.Context) (int64, bool)
}

// Refresher is implemented by directories that cache site lookups.
type Refresher interface {
	Refresh(ctx context.Context)
}
