package service

import (
	"context"

	"multisite-be/internal/entity"
	"multisite-be/internal/repository/contract"
	"multisite-be/internal/repository/specification"
)

// RepositoryTreeStore lets the multisite engine work on a (transactional) repository.
type RepositoryTreeStore struct {
	repo contract.SiteTreeRepository
}

func NewRepositoryTreeStore(repo contract.SiteTreeRepository) *RepositoryTreeStore {
	return &RepositoryTreeStore{repo: repo}
}

func (s *RepositoryTreeStore) FindNodeByID(ctx context.Context, id int64) (*entity.Node, error) {
	return s.repo.FindOne(ctx, specification.ByID{ID: id})
}

func (s *RepositoryTreeStore) ChildrenOf(ctx context.Context, id int64) ([]*entity.Node, error) {
	return s.repo.FindAll(ctx,
		specification.ByTreeParentID{ParentID: id},
		specification.OrderBy{Field: "id"},
	)
}

func (s *RepositoryTreeStore) CreateNode(ctx context.Context, node *entity.Node) error {
	return s.repo.Create(ctx, node)
}

func (s *RepositoryTreeStore) WriteNode(ctx context.Context, node *entity.Node) error {
	return s.repo.Update(ctx, node)
}

func (s *RepositoryTreeStore) PublishNode(ctx context.Context, node *entity.Node) error {
	return s.repo.Publish(ctx, node)
}
