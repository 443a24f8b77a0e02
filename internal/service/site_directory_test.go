package service

import (
	"context"
	"testing"

	"multisite-be/internal/repository/repotest"
	"multisite-be/internal/repository/unitofwork"
	"multisite-be/pkg/multisite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteDirectory_DefaultSiteID(t *testing.T) {
	ctx := context.Background()

	t.Run("configured id wins", func(t *testing.T) {
		d := NewSiteDirectory(nil, 77, nil, nil)
		id, err := d.DefaultSiteID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(77), id)
	})

	t.Run("falls back to the stored default site", func(t *testing.T) {
		f := newServiceFixture(t, false)
		main := f.site(t, "Main", true)

		d := NewSiteDirectory(f.uowFactory, 0, nil, nil)
		id, err := d.DefaultSiteID(ctx)
		require.NoError(t, err)
		assert.Equal(t, main.Id, id)
	})

	t.Run("nothing configured or stored", func(t *testing.T) {
		d := NewSiteDirectory(unitofwork.NewRepositoryFactory(repotest.NewDB(t)), 0, nil, nil)
		_, err := d.DefaultSiteID(ctx)
		assert.ErrorIs(t, err, multisite.ErrConfiguration)
	})
}

func TestSiteDirectory_CurrentSiteID(t *testing.T) {
	d := NewSiteDirectory(nil, 1, nil, nil)

	_, ok := d.CurrentSiteID(context.Background())
	assert.False(t, ok)

	id, ok := d.CurrentSiteID(WithCurrentSite(context.Background(), 12))
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)
}

func TestSiteDirectory_SiteForHost(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, false)

	main := f.site(t, "Main", true, "example.com")
	shop := f.site(t, "Shop", false, "shop.example.com", "store.test")

	tests := []struct {
		host string
		want int64
	}{
		{host: "example.com", want: main.Id},
		{host: "SHOP.example.com:8080", want: shop.Id},
		{host: "store.test.", want: shop.Id},
		{host: "unknown.test", want: main.Id},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			site, err := f.directory.SiteForHost(ctx, tt.host)
			require.NoError(t, err)
			require.NotNil(t, site)
			assert.Equal(t, tt.want, site.Id)
		})
	}

	// Cached lookups survive until Refresh.
	site, err := f.directory.SiteForHost(ctx, "store.test")
	require.NoError(t, err)
	assert.Equal(t, shop.Id, site.Id)

	f.directory.Refresh(ctx)
	site, err = f.directory.SiteForHost(ctx, "store.test")
	require.NoError(t, err)
	assert.Equal(t, shop.Id, site.Id)
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "example.com", normalizeHost(" Example.COM. "))
	assert.Equal(t, "example.com", normalizeHost("example.com:443"))
	assert.Equal(t, "localhost", normalizeHost("localhost"))
}
