package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"multisite-be/internal/entity"
	"multisite-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// SiteTreeStore keeps the site tree in process memory. It backs fixture
// environments and tests and counts every write it receives.
type SiteTreeStore struct {
	stage *cache.Cache
	live  *cache.Cache

	mu     sync.Mutex
	nextID int64

	creates   atomic.Int64
	writes    atomic.Int64
	publishes atomic.Int64
}

func NewSiteTreeStore() *SiteTreeStore {
	// Nodes never expire and there is nothing to purge.
	return &SiteTreeStore{
		stage:  cache.New(cache.NoExpiration, 0),
		live:   cache.New(cache.NoExpiration, 0),
		nextID: 1,
	}
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *SiteTreeStore) FindNodeByID(ctx context.Context, id int64) (*entity.Node, error) {
	if x, found := s.stage.Get(key(id)); found {
		return x.(*entity.Node).Clone(), nil
	}
	return nil, nil
}

func (s *SiteTreeStore) ChildrenOf(ctx context.Context, id int64) ([]*entity.Node, error) {
	children := make([]*entity.Node, 0)
	for _, item := range s.stage.Items() {
		n := item.Object.(*entity.Node)
		if n.ParentId == id && n.Id != id {
			children = append(children, n.Clone())
		}
	}
	slices.SortFunc(children, func(a, b *entity.Node) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return children, nil
}

// CreateNode assigns the next free id unless the node already carries one.
func (s *SiteTreeStore) CreateNode(ctx context.Context, node *entity.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node.Id == 0 {
		node.Id = s.nextID
	}
	if err := s.stage.Add(key(node.Id), node.Clone(), cache.NoExpiration); err != nil {
		return fmt.Errorf("node %d: %w", node.Id, contract.ErrDuplicateNode)
	}
	if node.Id >= s.nextID {
		s.nextID = node.Id + 1
	}
	s.creates.Add(1)
	return nil
}

func (s *SiteTreeStore) WriteNode(ctx context.Context, node *entity.Node) error {
	if err := s.stage.Replace(key(node.Id), node.Clone(), cache.NoExpiration); err != nil {
		return fmt.Errorf("node %d: %w", node.Id, contract.ErrNodeNotFound)
	}
	s.writes.Add(1)
	return nil
}

func (s *SiteTreeStore) PublishNode(ctx context.Context, node *entity.Node) error {
	if _, found := s.stage.Get(key(node.Id)); !found {
		return fmt.Errorf("node %d: %w", node.Id, contract.ErrNodeNotFound)
	}
	s.live.Set(key(node.Id), node.Clone(), cache.NoExpiration)
	s.publishes.Add(1)
	return nil
}

// Live returns the published copy of a node, if any.
func (s *SiteTreeStore) Live(id int64) (*entity.Node, bool) {
	if x, found := s.live.Get(key(id)); found {
		return x.(*entity.Node).Clone(), true
	}
	return nil, false
}

// Nodes returns every stored node ordered by id.
func (s *SiteTreeStore) Nodes() []*entity.Node {
	nodes := make([]*entity.Node, 0, s.stage.ItemCount())
	for _, item := range s.stage.Items() {
		nodes = append(nodes, item.Object.(*entity.Node).Clone())
	}
	slices.SortFunc(nodes, func(a, b *entity.Node) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return nodes
}

func (s *SiteTreeStore) Creates() int64   { return s.creates.Load() }
func (s *SiteTreeStore) Writes() int64    { return s.writes.Load() }
func (s *SiteTreeStore) Publishes() int64 { return s.publishes.Load() }

func (s *SiteTreeStore) ResetCounters() {
	s.creates.Store(0)
	s.writes.Store(0)
	s.publishes.Store(0)
}
