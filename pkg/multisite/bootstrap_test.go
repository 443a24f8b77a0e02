package multisite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"multisite-be/internal/entity"
	"multisite-be/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRefresher) Refresh(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

func enabledGuard(refresher Refresher) *BootstrapGuard {
	return NewBootstrapGuard(BootstrapConfig{Enabled: true, DefaultSiteID: defaultSiteID}, refresher, nil)
}

func TestBootstrapGuardCreatesDefaultSite(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSiteTreeStore()
	refresher := &countingRefresher{}
	engine := NewEngine(staticDirectory{defaultID: defaultSiteID}, enabledGuard(refresher), nil)

	page := &entity.Node{Kind: entity.NodeKindPage, Title: "About"}
	_, err := engine.OnBeforeWrite(ctx, store, page, 0)
	require.NoError(t, err)

	assert.Equal(t, defaultSiteID, page.SiteId)
	assert.Equal(t, defaultSiteID, page.ParentId)

	site, err := store.FindNodeByID(ctx, defaultSiteID)
	require.NoError(t, err)
	require.NotNil(t, site)
	assert.True(t, site.IsSite())
	assert.True(t, site.IsDefault)
	assert.Equal(t, DefaultSiteTitle, site.Title)
	assert.Zero(t, site.ParentId)

	_, published := store.Live(defaultSiteID)
	assert.True(t, published)
	assert.Equal(t, 1, refresher.calls)

	t.Run("second page reuses the site", func(t *testing.T) {
		store.ResetCounters()
		next := &entity.Node{Kind: entity.NodeKindPage, Title: "Contact"}
		_, err := engine.OnBeforeWrite(ctx, store, next, 0)
		require.NoError(t, err)
		assert.Equal(t, defaultSiteID, next.SiteId)
		assert.Zero(t, store.Creates())
		assert.Equal(t, 1, refresher.calls)
	})
}

func TestBootstrapGuardSkips(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		guard *BootstrapGuard
		node  *entity.Node
	}{
		{name: "nil guard", guard: nil, node: &entity.Node{Kind: entity.NodeKindPage}},
		{name: "disabled", guard: NewBootstrapGuard(BootstrapConfig{DefaultSiteID: defaultSiteID}, nil, nil), node: &entity.Node{Kind: entity.NodeKindPage}},
		{name: "page already has a site", guard: enabledGuard(nil), node: &entity.Node{Kind: entity.NodeKindPage, SiteId: 5}},
		{name: "node is a site", guard: enabledGuard(nil), node: &entity.Node{Kind: entity.NodeKindSite}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewSiteTreeStore()
			require.NoError(t, tt.guard.Ensure(ctx, store, tt.node))
			assert.Zero(t, store.Creates())
		})
	}
}

func TestBootstrapGuardKeepsExistingSite(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSiteTreeStore()
	require.NoError(t, store.CreateNode(ctx, &entity.Node{Id: defaultSiteID, Kind: entity.NodeKindSite, Title: "Main", IsDefault: true}))
	store.ResetCounters()

	page := &entity.Node{Kind: entity.NodeKindPage, ParentId: 77}
	require.NoError(t, enabledGuard(nil).Ensure(ctx, store, page))

	assert.Equal(t, defaultSiteID, page.SiteId)
	assert.Equal(t, int64(77), page.ParentId, "an explicit parent is kept")
	assert.Zero(t, store.Creates())
	assert.Zero(t, store.Publishes())
}

func TestBootstrapGuardConcurrentCallersCreateOneSite(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSiteTreeStore()
	guard := enabledGuard(nil)

	const callers = 64
	var wg sync.WaitGroup
	ids := make([]int64, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = guard.EnsureDefaultSite(ctx, store)
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, defaultSiteID, ids[i])
	}

	defaults := 0
	for _, n := range store.Nodes() {
		if n.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
	assert.Equal(t, int64(1), store.Creates())
}

func TestBootstrapGuardConfigurationErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  BootstrapConfig
	}{
		{
			name: "factory fails",
			cfg: BootstrapConfig{Enabled: true, DefaultSiteID: defaultSiteID, Factory: func() (*entity.Node, error) {
				return nil, errors.New("site type not registered")
			}},
		},
		{
			name: "factory returns a page",
			cfg: BootstrapConfig{Enabled: true, DefaultSiteID: defaultSiteID, Factory: func() (*entity.Node, error) {
				return &entity.Node{Kind: entity.NodeKindPage}, nil
			}},
		},
		{
			name: "no default site id",
			cfg:  BootstrapConfig{Enabled: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewSiteTreeStore()
			guard := NewBootstrapGuard(tt.cfg, nil, nil)
			err := guard.Ensure(ctx, store, &entity.Node{Kind: entity.NodeKindPage})
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Zero(t, store.Creates())
		})
	}
}
