package entity

import "time"

type NodeKind string

const (
	NodeKindSite NodeKind = "Site"
	NodeKindPage NodeKind = "Page"
)

// Node is an element of the site tree. Sites are top-level; every page
// belongs to exactly one site through SiteId.
type Node struct {
	Id         int64
	ParentId   int64
	SiteId     int64
	Kind       NodeKind
	Title      string
	URLSegment string
	Hosts      []string // Site only
	IsDefault  bool     // Site only
	Version    int
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}

func (n *Node) IsSite() bool {
	return n.Kind == NodeKindSite
}

func (n *Node) IsPage() bool {
	return n.Kind == NodeKindPage
}

func (n *Node) IsNew() bool {
	return n.Id == 0
}

// Clone returns a detached copy, so stores never share state with callers.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Hosts != nil {
		c.Hosts = append([]string(nil), n.Hosts...)
	}
	return &c
}
