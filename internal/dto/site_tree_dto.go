package dto

import "time"

type CreateSiteRequest struct {
	Title     string   `json:"title" validate:"required,max=255"`
	Hosts     []string `json:"hosts" validate:"dive,hostname_rfc1123"`
	IsDefault bool     `json:"is_default"`
}

type CreatePageRequest struct {
	ParentId   int64  `json:"parent_id" validate:"gte=0"`
	Title      string `json:"title" validate:"required,max=255"`
	URLSegment string `json:"url_segment" validate:"required,max=255,excludesall=/?#"`
}

type MovePageRequest struct {
	Id       int64
	ParentId int64 `json:"parent_id" validate:"gte=0"`
}

type MovePageResponse struct {
	Id             int64   `json:"id"`
	ParentId       int64   `json:"parent_id"`
	SiteId         int64   `json:"site_id"`
	PreviousSiteId int64   `json:"previous_site_id"`
	SiteChanged    bool    `json:"site_changed"`
	DescendantIds  []int64 `json:"descendant_ids"`
}

type NodeResponse struct {
	Id           int64      `json:"id"`
	ParentId     int64      `json:"parent_id"`
	SiteId       int64      `json:"site_id"`
	Kind         string     `json:"kind"`
	Title        string     `json:"title"`
	URLSegment   string     `json:"url_segment,omitempty"`
	Hosts        []string   `json:"hosts,omitempty"`
	IsDefault    bool       `json:"is_default,omitempty"`
	Version      int        `json:"version"`
	Link         string     `json:"link,omitempty"`
	AbsoluteLink string     `json:"absolute_link,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// SiteReassignedMessage travels over the in-process bus after a move changed sites.
type SiteReassignedMessage struct {
	NodeId        int64     `json:"node_id"`
	ParentId      int64     `json:"parent_id"`
	FromSiteId    int64     `json:"from_site_id"`
	ToSiteId      int64     `json:"to_site_id"`
	DescendantIds []int64   `json:"descendant_ids"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type ContentResponse struct {
	Page   *NodeResponse `json:"page"`
	Action string        `json:"action,omitempty"`
}
