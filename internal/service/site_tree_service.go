package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"multisite-be/internal/dto"
	"multisite-be/internal/entity"
	"multisite-be/internal/pkg/logger"
	"multisite-be/internal/repository/contract"
	"multisite-be/internal/repository/specification"
	"multisite-be/internal/repository/unitofwork"
	"multisite-be/pkg/multisite"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const siteTreeModule = "SITE_TREE"

var tracer = otel.Tracer("multisite-be/internal/service")

var (
	ErrDefaultSiteExists = errors.New("a default site already exists")
	ErrSiteNotMovable    = errors.New("sites cannot be moved")
	ErrInvalidMove       = errors.New("a page cannot become its own parent")
	ErrCyclicMove        = errors.New("a page cannot move beneath its own descendant")
)

// ResolvedPath is the outcome of matching a request path against a site.
type ResolvedPath struct {
	Node *entity.Node
	// Action holds the path segments left over after the deepest matching page.
	Action string
	AtRoot bool
}

type ISiteTreeService interface {
	CreateSite(ctx context.Context, req *dto.CreateSiteRequest) (*dto.NodeResponse, error)
	CreatePage(ctx context.Context, req *dto.CreatePageRequest) (*dto.NodeResponse, error)
	MovePage(ctx context.Context, req *dto.MovePageRequest) (*dto.MovePageResponse, error)
	Show(ctx context.Context, id int64) (*dto.NodeResponse, error)
	Children(ctx context.Context, id int64) ([]*dto.NodeResponse, error)
	Publish(ctx context.Context, id int64) (*dto.NodeResponse, error)
	Resolve(ctx context.Context, siteId int64, path string) (*ResolvedPath, error)
	SiteOf(ctx context.Context, node *entity.Node) (*entity.Node, error)
	Link(ctx context.Context, node *entity.Node, action string) (string, error)
	AbsoluteLink(ctx context.Context, node *entity.Node, action string) (string, error)
	ToResponse(ctx context.Context, node *entity.Node) (*dto.NodeResponse, error)
}

type siteTreeService struct {
	uowFactory       unitofwork.RepositoryFactory
	engine           *multisite.Engine
	directory        multisite.Directory
	homePolicy       multisite.HomePolicy
	publisherService IPublisherService
	baseURL          string
	defaultSiteId    int64
	logger           logger.ILogger
}

func NewSiteTreeService(
	uowFactory unitofwork.RepositoryFactory,
	engine *multisite.Engine,
	directory multisite.Directory,
	homePolicy multisite.HomePolicy,
	publisherService IPublisherService,
	baseURL string,
	defaultSiteId int64,
	log logger.ILogger,
) ISiteTreeService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &siteTreeService{
		uowFactory:       uowFactory,
		engine:           engine,
		directory:        directory,
		homePolicy:       homePolicy,
		publisherService: publisherService,
		baseURL:          strings.TrimRight(baseURL, "/"),
		defaultSiteId:    defaultSiteId,
		logger:           log,
	}
}

func (s *siteTreeService) CreateSite(ctx context.Context, req *dto.CreateSiteRequest) (*dto.NodeResponse, error) {
	site := &entity.Node{
		Kind:      entity.NodeKindSite,
		Title:     req.Title,
		Hosts:     req.Hosts,
		IsDefault: req.IsDefault,
		CreatedAt: time.Now(),
	}

	if req.IsDefault {
		count, err := s.uowFactory.NewUnitOfWork(ctx).SiteTreeRepository().Count(ctx, specification.DefaultSite{})
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrDefaultSiteExists
		}
		// The first default site takes the well-known id so pages created
		// before it existed keep pointing at it.
		site.Id = s.defaultSiteId
	}

	if _, err := s.write(ctx, site, 0, true); err != nil {
		return nil, err
	}

	if refresher, ok := s.directory.(multisite.Refresher); ok {
		refresher.Refresh(ctx)
	}

	return s.ToResponse(ctx, site)
}

func (s *siteTreeService) CreatePage(ctx context.Context, req *dto.CreatePageRequest) (*dto.NodeResponse, error) {
	page := &entity.Node{
		Kind:       entity.NodeKindPage,
		ParentId:   req.ParentId,
		Title:      req.Title,
		URLSegment: req.URLSegment,
		CreatedAt:  time.Now(),
	}

	if _, err := s.write(ctx, page, 0, true); err != nil {
		return nil, err
	}

	return s.ToResponse(ctx, page)
}

func (s *siteTreeService) MovePage(ctx context.Context, req *dto.MovePageRequest) (*dto.MovePageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	page, err := uow.SiteTreeRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, contract.ErrNodeNotFound
	}
	if page.IsSite() {
		return nil, ErrSiteNotMovable
	}
	if req.ParentId == page.Id {
		return nil, ErrInvalidMove
	}

	previousParentId := page.ParentId
	now := time.Now()
	page.ParentId = req.ParentId
	page.UpdatedAt = &now

	result, err := s.write(ctx, page, previousParentId, false)
	if err != nil {
		return nil, err
	}

	res := &dto.MovePageResponse{
		Id:             page.Id,
		ParentId:       page.ParentId,
		SiteId:         page.SiteId,
		PreviousSiteId: result.PreviousSiteId,
		SiteChanged:    result.SiteChanged,
		DescendantIds:  make([]int64, 0, len(result.Descendants)),
	}
	for _, d := range result.Descendants {
		res.DescendantIds = append(res.DescendantIds, d.Id)
	}

	if result.SiteChanged {
		s.announceReassignment(ctx, res)
	}

	return res, nil
}

func (s *siteTreeService) Show(ctx context.Context, id int64) (*dto.NodeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	node, err := uow.SiteTreeRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, contract.ErrNodeNotFound
	}

	return s.ToResponse(ctx, node)
}

// Children lists the direct children of a node. For a site these are its
// top-level pages.
func (s *siteTreeService) Children(ctx context.Context, id int64) ([]*dto.NodeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	parent, err := uow.SiteTreeRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, contract.ErrNodeNotFound
	}

	children, err := NewRepositoryTreeStore(uow.SiteTreeRepository()).ChildrenOf(ctx, id)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.NodeResponse, 0, len(children))
	for _, child := range children {
		res, err := s.ToResponse(ctx, child)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, nil
}

func (s *siteTreeService) Publish(ctx context.Context, id int64) (*dto.NodeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	node, err := uow.SiteTreeRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, contract.ErrNodeNotFound
	}

	if err := uow.SiteTreeRepository().Publish(ctx, node); err != nil {
		return nil, err
	}

	return s.ToResponse(ctx, node)
}

// Resolve walks path segment by segment below the site. An empty path
// resolves to the site's home page.
func (s *siteTreeService) Resolve(ctx context.Context, siteId int64, path string) (*ResolvedPath, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).SiteTreeRepository()

	segments := splitPath(path)
	if len(segments) == 0 {
		home, err := repo.FindOne(ctx,
			specification.ByTreeParentID{ParentID: siteId},
			specification.ByKind{Kind: entity.NodeKindPage},
			specification.ByURLSegment{Segment: s.homePolicy.HomeSegment},
		)
		if err != nil {
			return nil, err
		}
		if home == nil {
			return nil, contract.ErrNodeNotFound
		}
		return &ResolvedPath{Node: home, AtRoot: true}, nil
	}

	var current *entity.Node
	parentId := siteId
	for i, segment := range segments {
		child, err := repo.FindOne(ctx,
			specification.ByTreeParentID{ParentID: parentId},
			specification.ByKind{Kind: entity.NodeKindPage},
			specification.ByURLSegment{Segment: segment},
		)
		if err != nil {
			return nil, err
		}
		if child == nil {
			if current == nil {
				return nil, contract.ErrNodeNotFound
			}
			return &ResolvedPath{Node: current, Action: strings.Join(segments[i:], "/")}, nil
		}
		current = child
		parentId = child.Id
	}

	return &ResolvedPath{Node: current}, nil
}

// SiteOf returns the site owning node. Nodes without a site, such as
// synthetic pages, fall back to the current site.
func (s *siteTreeService) SiteOf(ctx context.Context, node *entity.Node) (*entity.Node, error) {
	if node.IsSite() {
		return node, nil
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).SiteTreeRepository()
	if node.SiteId != 0 {
		site, err := repo.FindOne(ctx, specification.ByID{ID: node.SiteId}, specification.ByKind{Kind: entity.NodeKindSite})
		if err != nil {
			return nil, err
		}
		if site != nil {
			return site, nil
		}
	}

	currentId, ok := s.directory.CurrentSiteID(ctx)
	if !ok {
		return nil, nil
	}
	return repo.FindOne(ctx, specification.ByID{ID: currentId}, specification.ByKind{Kind: entity.NodeKindSite})
}

// Link is the site-relative link of node. The home page lives on "/".
func (s *siteTreeService) Link(ctx context.Context, node *entity.Node, action string) (string, error) {
	action = strings.Trim(action, "/")
	if node.IsSite() || (action == "" && s.homePolicy.IsHome(node)) {
		return joinLink(nil, action), nil
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).SiteTreeRepository()
	segments := []string{node.URLSegment}
	visited := map[int64]bool{node.Id: true}
	parentId := node.ParentId
	for parentId != 0 && !visited[parentId] {
		visited[parentId] = true
		parent, err := repo.FindOne(ctx, specification.ByID{ID: parentId})
		if err != nil {
			return "", err
		}
		if parent == nil || parent.IsSite() {
			break
		}
		segments = append([]string{parent.URLSegment}, segments...)
		parentId = parent.ParentId
	}

	return joinLink(segments, action), nil
}

// AbsoluteLink prefixes the base URL only for nodes of the current site;
// pages of other sites keep their relative link.
func (s *siteTreeService) AbsoluteLink(ctx context.Context, node *entity.Node, action string) (string, error) {
	link, err := s.Link(ctx, node, action)
	if err != nil {
		return "", err
	}

	currentId, ok := s.directory.CurrentSiteID(ctx)
	if ok && node.SiteId != 0 && node.SiteId == currentId {
		return s.baseURL + link, nil
	}
	return link, nil
}

func (s *siteTreeService) ToResponse(ctx context.Context, node *entity.Node) (*dto.NodeResponse, error) {
	res := &dto.NodeResponse{
		Id:         node.Id,
		ParentId:   node.ParentId,
		SiteId:     node.SiteId,
		Kind:       string(node.Kind),
		Title:      node.Title,
		URLSegment: node.URLSegment,
		Hosts:      node.Hosts,
		IsDefault:  node.IsDefault,
		Version:    node.Version,
		CreatedAt:  node.CreatedAt,
		UpdatedAt:  node.UpdatedAt,
	}
	if node.IsSite() {
		return res, nil
	}

	link, err := s.Link(ctx, node, "")
	if err != nil {
		return nil, err
	}
	absolute, err := s.AbsoluteLink(ctx, node, "")
	if err != nil {
		return nil, err
	}
	res.Link = link
	res.AbsoluteLink = absolute
	return res, nil
}

// write runs the assignment engine and persists node in one transaction, so
// a failure also discards every descendant written during propagation.
func (s *siteTreeService) write(ctx context.Context, node *entity.Node, previousParentId int64, create bool) (result *multisite.WriteResult, err error) {
	ctx, span := tracer.Start(ctx, "SiteTree.write")
	span.SetAttributes(
		attribute.String("node.kind", string(node.Kind)),
		attribute.Int64("node.parent_id", node.ParentId),
		attribute.Bool("node.create", create),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.Int64("node.id", node.Id),
				attribute.Int64("node.site_id", node.SiteId),
				attribute.Int("propagation.writes", len(result.Descendants)),
			)
		}
		span.End()
	}()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	store := NewRepositoryTreeStore(uow.SiteTreeRepository())

	if !create && node.IsPage() && node.ParentId != previousParentId {
		if err := ensureNotBeneathItself(ctx, store, node); err != nil {
			return nil, err
		}
	}

	result, err = s.engine.OnBeforeWrite(ctx, store, node, previousParentId)
	if err != nil {
		s.logger.Error(siteTreeModule, "Site assignment failed", map[string]interface{}{
			"node_id":   node.Id,
			"parent_id": node.ParentId,
			"error":     err.Error(),
		})
		return nil, err
	}

	if create {
		err = store.CreateNode(ctx, node)
	} else {
		err = store.WriteNode(ctx, node)
	}
	if err != nil {
		return nil, fmt.Errorf("save node: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// ensureNotBeneathItself walks up from node's new parent to the enclosing
// site and fails if node is on the way.
func ensureNotBeneathItself(ctx context.Context, reader multisite.TreeReader, node *entity.Node) error {
	visited := map[int64]struct{}{}
	for id := node.ParentId; id != 0; {
		if id == node.Id {
			return ErrCyclicMove
		}
		if _, ok := visited[id]; ok {
			return fmt.Errorf("ancestors of node %d: %w", node.Id, multisite.ErrCycle)
		}
		visited[id] = struct{}{}

		ancestor, err := reader.FindNodeByID(ctx, id)
		if err != nil {
			return err
		}
		if ancestor == nil || ancestor.IsSite() {
			return nil
		}
		id = ancestor.ParentId
	}
	return nil
}

func (s *siteTreeService) announceReassignment(ctx context.Context, res *dto.MovePageResponse) {
	if s.publisherService == nil {
		return
	}
	msg := dto.SiteReassignedMessage{
		NodeId:        res.Id,
		ParentId:      res.ParentId,
		FromSiteId:    res.PreviousSiteId,
		ToSiteId:      res.SiteId,
		DescendantIds: res.DescendantIds,
		OccurredAt:    time.Now(),
	}
	msgJson, _ := json.Marshal(msg)
	// The move is committed; a lost notification only delays the live sync.
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		s.logger.Error(siteTreeModule, "Failed to publish site reassignment", map[string]interface{}{
			"node_id": res.Id,
			"error":   err.Error(),
		})
	}
}

func splitPath(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

func joinLink(segments []string, action string) string {
	if action != "" {
		segments = append(segments, action)
	}
	if len(segments) == 0 {
		return multisite.RootPath
	}
	return "/" + strings.Join(segments, "/") + "/"
}
