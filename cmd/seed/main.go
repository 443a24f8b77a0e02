package main

import (
	"context"
	"errors"
	"os"
	"time"

	"multisite-be/internal/bootstrap"
	"multisite-be/internal/config"
	"multisite-be/internal/dto"
	"multisite-be/internal/repository/contract"
	"multisite-be/pkg/database"

	"github.com/fatih/color"
)

type seedPage struct {
	Title    string
	Segment  string
	Children []seedPage
}

var sampleTree = []seedPage{
	{Title: "Home", Segment: "home"},
	{Title: "About", Segment: "about", Children: []seedPage{
		{Title: "Team", Segment: "team"},
		{Title: "History", Segment: "history"},
	}},
	{Title: "Contact", Segment: "contact"},
}

func main() {
	cfg := config.Load()
	// The bootstrap guard creates the default site with the first page.
	cfg.Multisite.FixtureMode = true

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection,
		database.WithPool(database.PoolConfig{MaxIdleConns: 2, MaxOpenConns: 4, ConnMaxLifetime: time.Minute}),
	)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	container := bootstrap.NewContainer(db, cfg)
	defer container.Close()

	ctx := context.Background()

	color.Cyan("🌱 Seeding default site tree")
	created := 0
	for _, page := range sampleTree {
		n, err := seed(ctx, container, 0, page)
		created += n
		if err != nil {
			color.Red("Seeding stopped: %v", err)
			return
		}
	}

	site, err := container.SiteTreeService.Show(ctx, cfg.Multisite.DefaultSiteID)
	if err != nil {
		color.Red("Default site missing after seeding: %v", err)
		return
	}

	color.Green("Site #%d %q ready, %d pages created", site.Id, site.Title, created)
}

// seed creates page below parentId, 0 meaning the default site, then its
// children. Existing pages are skipped along with their subtree.
func seed(ctx context.Context, c *bootstrap.Container, parentId int64, page seedPage) (int, error) {
	res, err := c.SiteTreeService.CreatePage(ctx, &dto.CreatePageRequest{
		ParentId:   parentId,
		Title:      page.Title,
		URLSegment: page.Segment,
	})
	if err != nil {
		if errors.Is(err, contract.ErrDuplicateNode) {
			color.Yellow("  skip %s (already exists)", page.Segment)
			return 0, nil
		}
		return 0, err
	}
	color.White("  + %-10s #%d site=%d link=%s", page.Title, res.Id, res.SiteId, res.Link)

	created := 1
	for _, child := range page.Children {
		n, err := seed(ctx, c, res.Id, child)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}
