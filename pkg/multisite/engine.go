package multisite

import (
	"context"
	"fmt"

	"multisite-be/internal/entity"
	"multisite-be/internal/pkg/logger"
)

const logModule = "MULTISITE"

// WriteResult describes what OnBeforeWrite did besides mutating the node.
type WriteResult struct {
	PreviousSiteId int64
	SiteChanged    bool
	// Descendants are the nodes persisted during propagation.
	Descendants []*entity.Node
}

type Engine struct {
	directory Directory
	guard     *BootstrapGuard
	logger    logger.ILogger
}

// NewEngine wires the assignment engine. guard may be nil outside fixture environments.
func NewEngine(directory Directory, guard *BootstrapGuard, log logger.ILogger) *Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Engine{
		directory: directory,
		guard:     guard,
		logger:    log,
	}
}

// OnBeforeWrite must run right before a node is persisted, inside the same
// storage transaction. previousParentId is the parent the node had when it was
// loaded and is ignored for new nodes.
//
// New pages get their site and, when missing, a parent. A page whose parent
// changed gets the new site, and every descendant that changes site is written
// through store before OnBeforeWrite returns. Sites are forced to the top level.
func (e *Engine) OnBeforeWrite(ctx context.Context, store TreeStore, node *entity.Node, previousParentId int64) (*WriteResult, error) {
	result := &WriteResult{PreviousSiteId: node.SiteId}

	switch node.Kind {
	case entity.NodeKindSite:
		node.ParentId = 0
		node.SiteId = 0
		return result, nil
	case entity.NodeKindPage:
	default:
		return nil, fmt.Errorf("node %d: %w: %q", node.Id, ErrUnknownKind, node.Kind)
	}

	if err := e.guard.Ensure(ctx, store, node); err != nil {
		return nil, err
	}

	if node.IsNew() {
		if err := e.AssignOnCreate(ctx, store, node); err != nil {
			return nil, err
		}
		result.SiteChanged = node.SiteId != result.PreviousSiteId
		return result, nil
	}

	if node.ParentId == previousParentId {
		return result, nil
	}

	descendants, err := e.ReassignOnMove(ctx, store, node)
	if err != nil {
		return nil, err
	}
	result.Descendants = descendants
	result.SiteChanged = node.SiteId != result.PreviousSiteId
	return result, nil
}

// AssignOnCreate sets the site of a page that has not been persisted yet.
// A page without a usable parent is attached directly under the default site.
// It never writes, and running it again on a correct page changes nothing.
func (e *Engine) AssignOnCreate(ctx context.Context, reader TreeReader, node *entity.Node) error {
	parent, err := findParent(ctx, reader, node.ParentId)
	if err != nil {
		return err
	}
	if parent != nil {
		siteID, err := siteBeneath(parent)
		if err != nil {
			return err
		}
		node.SiteId = siteID
		return nil
	}

	defaultID, err := e.defaultSiteID(ctx)
	if err != nil {
		return err
	}
	node.SiteId = defaultID
	node.ParentId = defaultID
	return nil
}

// ReassignOnMove recomputes the site of an existing page after its parent
// changed and propagates it to the subtree. A parent that does not exist
// leaves everything as it was.
func (e *Engine) ReassignOnMove(ctx context.Context, store TreeStore, node *entity.Node) ([]*entity.Node, error) {
	parent, err := findParent(ctx, store, node.ParentId)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		e.logger.Debug(logModule, "Parent not found, site left unchanged", map[string]interface{}{
			"node_id":   node.Id,
			"parent_id": node.ParentId,
		})
		return nil, nil
	}

	siteID, err := siteBeneath(parent)
	if err != nil {
		return nil, err
	}

	plan, err := PlanReassignment(ctx, store, node, siteID)
	if err != nil {
		return nil, err
	}
	if len(plan) == 0 {
		return nil, nil
	}

	previous := node.SiteId
	written, err := ApplyAssignments(ctx, store, node, plan)
	if err != nil {
		return nil, err
	}

	e.logger.Debug(logModule, "Site propagated to subtree", map[string]interface{}{
		"node_id":          node.Id,
		"from_site_id":     previous,
		"to_site_id":       siteID,
		"descendant_count": len(written),
	})
	return written, nil
}

func (e *Engine) defaultSiteID(ctx context.Context) (int64, error) {
	if e.directory == nil {
		return 0, fmt.Errorf("%w: no site directory", ErrConfiguration)
	}
	id, err := e.directory.DefaultSiteID(ctx)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("%w: default site id is not set", ErrConfiguration)
	}
	return id, nil
}

func findParent(ctx context.Context, reader TreeReader, parentID int64) (*entity.Node, error) {
	if parentID == 0 {
		return nil, nil
	}
	parent, err := reader.FindNodeByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("find parent %d: %w", parentID, err)
	}
	if parent == nil || parent.IsDeleted {
		return nil, nil
	}
	return parent, nil
}

// siteBeneath is the site a direct child of parent belongs to.
func siteBeneath(parent *entity.Node) (int64, error) {
	switch parent.Kind {
	case entity.NodeKindSite:
		return parent.Id, nil
	case entity.NodeKindPage:
		return parent.SiteId, nil
	default:
		return 0, fmt.Errorf("node %d: %w: %q", parent.Id, ErrUnknownKind, parent.Kind)
	}
}
