package implementation_test

import (
	"context"
	"testing"

	"multisite-be/internal/entity"
	"multisite-be/internal/repository/contract"
	"multisite-be/internal/repository/implementation"
	"multisite-be/internal/repository/repotest"
	"multisite-be/internal/repository/specification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteTreeRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := implementation.NewSiteTreeRepository(repotest.NewDB(t))

	site := &entity.Node{Kind: entity.NodeKindSite, Title: "Main", Hosts: []string{"example.com"}, IsDefault: true}
	require.NoError(t, repo.Create(ctx, site))
	assert.NotZero(t, site.Id)
	assert.Equal(t, 1, site.Version)

	page := &entity.Node{Kind: entity.NodeKindPage, ParentId: site.Id, SiteId: site.Id, Title: "Home", URLSegment: "home"}
	require.NoError(t, repo.Create(ctx, page))

	found, err := repo.FindOne(ctx, specification.ByID{ID: site.Id})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entity.NodeKindSite, found.Kind)
	assert.Equal(t, []string{"example.com"}, found.Hosts)
	assert.True(t, found.IsDefault)

	def, err := repo.FindOne(ctx, specification.DefaultSite{})
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, site.Id, def.Id)

	children, err := repo.FindAll(ctx, specification.ByTreeParentID{ParentID: site.Id})
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "home", children[0].URLSegment)

	bySegment, err := repo.FindOne(ctx,
		specification.ByTreeParentID{ParentID: site.Id},
		specification.ByURLSegment{Segment: "home"},
	)
	require.NoError(t, err)
	require.NotNil(t, bySegment)
	assert.Equal(t, page.Id, bySegment.Id)

	count, err := repo.Count(ctx, specification.BySiteID{SiteID: site.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSiteTreeRepository_FindOneMissing(t *testing.T) {
	repo := implementation.NewSiteTreeRepository(repotest.NewDB(t))

	node, err := repo.FindOne(context.Background(), specification.ByID{ID: 42})
	assert.NoError(t, err)
	assert.Nil(t, node)
}

func TestSiteTreeRepository_ExplicitIdAndDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := implementation.NewSiteTreeRepository(repotest.NewDB(t))

	site := &entity.Node{Id: 1000000, Kind: entity.NodeKindSite, Title: "Default Site", IsDefault: true}
	require.NoError(t, repo.Create(ctx, site))
	assert.Equal(t, int64(1000000), site.Id)

	err := repo.Create(ctx, &entity.Node{Id: 1000000, Kind: entity.NodeKindSite, Title: "Again"})
	assert.ErrorIs(t, err, contract.ErrDuplicateNode)
}

func TestSiteTreeRepository_UpdateBumpsVersion(t *testing.T) {
	ctx := context.Background()
	repo := implementation.NewSiteTreeRepository(repotest.NewDB(t))

	page := &entity.Node{Kind: entity.NodeKindPage, ParentId: 7, SiteId: 7, Title: "A", URLSegment: "a"}
	require.NoError(t, repo.Create(ctx, page))

	page.SiteId = 9
	require.NoError(t, repo.Update(ctx, page))
	assert.Equal(t, 2, page.Version)

	stored, err := repo.FindOne(ctx, specification.ByID{ID: page.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(9), stored.SiteId)
	assert.Equal(t, 2, stored.Version)
	assert.NotNil(t, stored.UpdatedAt)

	assert.ErrorIs(t, repo.Update(ctx, &entity.Node{Kind: entity.NodeKindPage}), contract.ErrNodeNotFound)
}

func TestSiteTreeRepository_UpdateMissingNodeIsNotRecreated(t *testing.T) {
	ctx := context.Background()
	repo := implementation.NewSiteTreeRepository(repotest.NewDB(t))

	ghost := &entity.Node{Id: 777, Kind: entity.NodeKindPage, ParentId: 7, SiteId: 7, Title: "Gone", URLSegment: "gone"}
	assert.ErrorIs(t, repo.Update(ctx, ghost), contract.ErrNodeNotFound)

	stored, err := repo.FindOne(ctx, specification.ByID{ID: 777})
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSiteTreeRepository_PublishAndSyncLive(t *testing.T) {
	ctx := context.Background()
	repo := implementation.NewSiteTreeRepository(repotest.NewDB(t))

	a := &entity.Node{Kind: entity.NodeKindPage, ParentId: 1, SiteId: 1, Title: "A", URLSegment: "a"}
	b := &entity.Node{Kind: entity.NodeKindPage, ParentId: 1, SiteId: 1, Title: "B", URLSegment: "b"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	live, err := repo.FindLive(ctx, a.Id)
	require.NoError(t, err)
	assert.Nil(t, live, "nothing is live before publishing")

	require.NoError(t, repo.Publish(ctx, a))
	a.Title = "A2"
	require.NoError(t, repo.Publish(ctx, a))

	live, err = repo.FindLive(ctx, a.Id)
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, "A2", live.Title)

	synced, err := repo.SyncLiveSite(ctx, []int64{a.Id, b.Id}, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), synced, "only published rows move")

	live, err = repo.FindLive(ctx, a.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(5), live.SiteId)

	synced, err = repo.SyncLiveSite(ctx, nil, 5)
	assert.NoError(t, err)
	assert.Zero(t, synced)
}
