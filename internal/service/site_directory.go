package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"multisite-be/internal/entity"
	"multisite-be/internal/pkg/logger"
	"multisite-be/internal/repository/specification"
	"multisite-be/internal/repository/unitofwork"
	"multisite-be/pkg/multisite"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	hostKeyPrefix   = "multisite:host:"
	defaultSiteKey  = "default-site"
	localHostTTL    = 5 * time.Minute
	sharedHostTTL   = 10 * time.Minute
	directoryModule = "SITE_DIRECTORY"
)

type currentSiteKey struct{}

// WithCurrentSite stores the site the request is served for.
func WithCurrentSite(ctx context.Context, siteID int64) context.Context {
	return context.WithValue(ctx, currentSiteKey{}, siteID)
}

// SiteDirectory answers which site is the default one and which one the
// current request belongs to. Host lookups are cached in process and, when a
// Redis client is configured, shared between instances.
type SiteDirectory struct {
	uowFactory    unitofwork.RepositoryFactory
	defaultSiteID int64
	local         *cache.Cache
	rdb           *redis.Client
	logger        logger.ILogger
}

func NewSiteDirectory(uowFactory unitofwork.RepositoryFactory, defaultSiteID int64, rdb *redis.Client, log logger.ILogger) *SiteDirectory {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &SiteDirectory{
		uowFactory:    uowFactory,
		defaultSiteID: defaultSiteID,
		local:         cache.New(localHostTTL, 10*time.Minute),
		rdb:           rdb,
		logger:        log,
	}
}

// DefaultSiteID returns the configured id, or the id of the site flagged as
// default when none was configured.
func (d *SiteDirectory) DefaultSiteID(ctx context.Context) (int64, error) {
	if d.defaultSiteID != 0 {
		return d.defaultSiteID, nil
	}
	if x, found := d.local.Get(defaultSiteKey); found {
		return x.(int64), nil
	}

	uow := d.uowFactory.NewUnitOfWork(ctx)
	site, err := uow.SiteTreeRepository().FindOne(ctx, specification.DefaultSite{})
	if err != nil {
		return 0, err
	}
	if site == nil {
		return 0, fmt.Errorf("%w: no default site configured or stored", multisite.ErrConfiguration)
	}
	d.local.Set(defaultSiteKey, site.Id, cache.NoExpiration)
	return site.Id, nil
}

func (d *SiteDirectory) CurrentSiteID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(currentSiteKey{}).(int64)
	return id, ok && id != 0
}

// SiteForHost finds the site serving host, falling back to the default site.
func (d *SiteDirectory) SiteForHost(ctx context.Context, host string) (*entity.Node, error) {
	host = normalizeHost(host)
	uow := d.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SiteTreeRepository()

	if id, ok := d.cachedHost(ctx, host); ok {
		site, err := repo.FindOne(ctx, specification.ByID{ID: id}, specification.ByKind{Kind: entity.NodeKindSite})
		if err != nil {
			return nil, err
		}
		if site != nil {
			return site, nil
		}
	}

	sites, err := repo.FindAll(ctx, specification.ByKind{Kind: entity.NodeKindSite}, specification.OrderBy{Field: "id"})
	if err != nil {
		return nil, err
	}

	var match, fallback *entity.Node
	defaultID, _ := d.DefaultSiteID(ctx)
	for _, site := range sites {
		if site.Id == defaultID || (fallback == nil && site.IsDefault) {
			fallback = site
		}
		for _, h := range site.Hosts {
			if normalizeHost(h) == host {
				match = site
			}
		}
		if match != nil {
			break
		}
	}
	if match == nil {
		match = fallback
	}
	if match == nil {
		return nil, nil
	}

	d.cacheHost(ctx, host, match.Id)
	return match, nil
}

// Refresh drops every cached lookup, e.g. after a site was created.
func (d *SiteDirectory) Refresh(ctx context.Context) {
	d.local.Flush()
	if d.rdb == nil {
		return
	}
	iter := d.rdb.Scan(ctx, 0, hostKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := d.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			d.logger.Warn(directoryModule, "Failed to drop cached host", map[string]interface{}{"key": iter.Val(), "error": err.Error()})
		}
	}
	if err := iter.Err(); err != nil {
		d.logger.Warn(directoryModule, "Failed to scan cached hosts", map[string]interface{}{"error": err.Error()})
	}
}

func (d *SiteDirectory) cachedHost(ctx context.Context, host string) (int64, bool) {
	if x, found := d.local.Get(hostKeyPrefix + host); found {
		return x.(int64), true
	}
	if d.rdb == nil {
		return 0, false
	}
	val, err := d.rdb.Get(ctx, hostKeyPrefix+host).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			d.logger.Warn(directoryModule, "Redis lookup failed", map[string]interface{}{"host": host, "error": err.Error()})
		}
		return 0, false
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	d.local.Set(hostKeyPrefix+host, id, cache.DefaultExpiration)
	return id, true
}

func (d *SiteDirectory) cacheHost(ctx context.Context, host string, siteID int64) {
	d.local.Set(hostKeyPrefix+host, siteID, cache.DefaultExpiration)
	if d.rdb == nil {
		return
	}
	if err := d.rdb.Set(ctx, hostKeyPrefix+host, strconv.FormatInt(siteID, 10), sharedHostTTL).Err(); err != nil {
		d.logger.Warn(directoryModule, "Redis write failed", map[string]interface{}{"host": host, "error": err.Error()})
	}
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
