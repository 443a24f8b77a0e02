package multisite

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"multisite-be/internal/entity"
	"multisite-be/internal/pkg/logger"
	"multisite-be/internal/repository/contract"

	"golang.org/x/sync/singleflight"
)

const DefaultSiteTitle = "Default Site"

// SiteFactory builds an empty site record. It exists so deployments that
// extend the site record can plug their own constructor in.
type SiteFactory func() (*entity.Node, error)

func NewSiteRecord() (*entity.Node, error) {
	return &entity.Node{Kind: entity.NodeKindSite}, nil
}

type BootstrapConfig struct {
	// Enabled turns the guard on. Outside fixture environments the default
	// site is provisioned ahead of time and the guard does nothing.
	Enabled       bool
	DefaultSiteID int64
	Title         string
	Factory       SiteFactory
}

// BootstrapGuard creates the default site the first time a page is written
// without one. Concurrent writers share a single creation.
type BootstrapGuard struct {
	enabled       bool
	defaultSiteID int64
	title         string
	factory       SiteFactory
	refresher     Refresher
	logger        logger.ILogger
	group         singleflight.Group
}

func NewBootstrapGuard(cfg BootstrapConfig, refresher Refresher, log logger.ILogger) *BootstrapGuard {
	if cfg.Title == "" {
		cfg.Title = DefaultSiteTitle
	}
	if cfg.Factory == nil {
		cfg.Factory = NewSiteRecord
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &BootstrapGuard{
		enabled:       cfg.Enabled,
		defaultSiteID: cfg.DefaultSiteID,
		title:         cfg.Title,
		factory:       cfg.Factory,
		refresher:     refresher,
		logger:        log,
	}
}

func (g *BootstrapGuard) Enabled() bool {
	return g != nil && g.enabled
}

// Ensure attaches a site-less page to the default site, creating the site
// first when it does not exist yet.
func (g *BootstrapGuard) Ensure(ctx context.Context, store TreeStore, node *entity.Node) error {
	if !g.Enabled() {
		return nil
	}
	if node.SiteId != 0 || node.IsSite() {
		return nil
	}

	siteID, err := g.EnsureDefaultSite(ctx, store)
	if err != nil {
		return err
	}
	node.SiteId = siteID
	if node.ParentId == 0 {
		node.ParentId = siteID
	}
	return nil
}

// EnsureDefaultSite returns the default site id, creating and publishing the
// site if needed. Callers racing on it wait for the one creation in flight.
func (g *BootstrapGuard) EnsureDefaultSite(ctx context.Context, store TreeStore) (int64, error) {
	if g.defaultSiteID == 0 {
		return 0, fmt.Errorf("%w: default site id is not set", ErrConfiguration)
	}
	key := strconv.FormatInt(g.defaultSiteID, 10)
	v, err, _ := g.group.Do(key, func() (interface{}, error) {
		return g.ensureDefaultSite(ctx, store)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (g *BootstrapGuard) ensureDefaultSite(ctx context.Context, store TreeStore) (int64, error) {
	existing, err := store.FindNodeByID(ctx, g.defaultSiteID)
	if err != nil {
		return 0, fmt.Errorf("find default site: %w", err)
	}
	if existing != nil && !existing.IsDeleted {
		return existing.Id, nil
	}

	site, err := g.factory()
	if err != nil {
		return 0, fmt.Errorf("%w: construct site record: %v", ErrConfiguration, err)
	}
	if site == nil || !site.IsSite() {
		return 0, fmt.Errorf("%w: site factory did not return a site record", ErrConfiguration)
	}
	site.Id = g.defaultSiteID
	site.ParentId = 0
	site.SiteId = 0
	site.Title = g.title
	site.IsDefault = true

	if err := store.CreateNode(ctx, site); err != nil {
		if errors.Is(err, contract.ErrDuplicateNode) {
			// Another process created it between our lookup and insert.
			return g.defaultSiteID, nil
		}
		return 0, fmt.Errorf("create default site: %w", err)
	}
	if err := store.PublishNode(ctx, site); err != nil {
		return 0, fmt.Errorf("publish default site: %w", err)
	}

	if g.refresher != nil {
		g.refresher.Refresh(ctx)
	}
	g.logger.Info(logModule, "Default site created", map[string]interface{}{
		"site_id": site.Id,
		"title":   site.Title,
	})
	return site.Id, nil
}
