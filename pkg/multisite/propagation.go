package multisite

import (
	"context"
	"fmt"

	"multisite-be/internal/entity"
)

// Assignment moves one node to a new site.
type Assignment struct {
	Node   *entity.Node
	SiteId int64
}

// PlanReassignment lists the nodes that must move to siteID when root does,
// root first, then its subtree depth-first. A child already on siteID is
// skipped together with its descendants, so the walk never leaves the part of
// the tree that actually changes. Nothing is written. A node reached twice
// fails the plan with ErrCycle.
func PlanReassignment(ctx context.Context, reader TreeReader, root *entity.Node, siteID int64) ([]Assignment, error) {
	if root.SiteId == siteID {
		return nil, nil
	}
	plan := []Assignment{{Node: root, SiteId: siteID}}
	if root.IsNew() {
		return plan, nil
	}
	seen := map[int64]struct{}{root.Id: {}}
	return collectReassignments(ctx, reader, root.Id, siteID, plan, seen)
}

func collectReassignments(ctx context.Context, reader TreeReader, parentID, siteID int64, plan []Assignment, seen map[int64]struct{}) ([]Assignment, error) {
	children, err := reader.ChildrenOf(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children of node %d: %w", parentID, err)
	}
	for _, child := range children {
		switch child.Kind {
		case entity.NodeKindSite:
			continue
		case entity.NodeKindPage:
		default:
			return nil, fmt.Errorf("node %d: %w: %q", child.Id, ErrUnknownKind, child.Kind)
		}
		if _, ok := seen[child.Id]; ok {
			return nil, fmt.Errorf("node %d below %d: %w", child.Id, parentID, ErrCycle)
		}
		seen[child.Id] = struct{}{}
		if child.SiteId == siteID {
			continue
		}
		plan = append(plan, Assignment{Node: child, SiteId: siteID})
		if plan, err = collectReassignments(ctx, reader, child.Id, siteID, plan, seen); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// ApplyAssignments sets the new site ids and persists every planned node
// except root, which the caller is about to write itself. It returns the
// nodes it wrote.
func ApplyAssignments(ctx context.Context, writer TreeWriter, root *entity.Node, plan []Assignment) ([]*entity.Node, error) {
	written := make([]*entity.Node, 0, len(plan))
	for _, a := range plan {
		a.Node.SiteId = a.SiteId
		if a.Node == root {
			continue
		}
		if err := writer.WriteNode(ctx, a.Node); err != nil {
			return written, fmt.Errorf("write node %d: %w", a.Node.Id, err)
		}
		written = append(written, a.Node)
	}
	return written, nil
}
