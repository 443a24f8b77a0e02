package mapper

import (
	"time"

	"multisite-be/internal/entity"
	"multisite-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SiteTreeMapper struct{}

func NewSiteTreeMapper() *SiteTreeMapper {
	return &SiteTreeMapper{}
}

func (m *SiteTreeMapper) ToEntity(n *model.SiteTree) *entity.Node {
	if n == nil {
		return nil
	}
	var deletedAt *time.Time
	if n.DeletedAt.Valid {
		t := n.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt
		updatedAt = &t
	}

	var hosts []string
	if len(n.Hosts) > 0 {
		hosts = append(hosts, n.Hosts...)
	}

	return &entity.Node{
		Id:         n.Id,
		ParentId:   n.ParentId,
		SiteId:     n.SiteId,
		Kind:       entity.NodeKind(n.ClassName),
		Title:      n.Title,
		URLSegment: n.URLSegment,
		Hosts:      hosts,
		IsDefault:  n.IsDefault,
		Version:    n.Version,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  n.DeletedAt.Valid,
	}
}

func (m *SiteTreeMapper) ToModel(n *entity.Node) *model.SiteTree {
	if n == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if n.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *n.DeletedAt, Valid: true}
	} else if n.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if n.UpdatedAt != nil {
		updatedAt = *n.UpdatedAt
	}

	version := n.Version
	if version == 0 {
		version = 1
	}

	return &model.SiteTree{
		Id:         n.Id,
		ParentId:   n.ParentId,
		SiteId:     n.SiteId,
		ClassName:  string(n.Kind),
		Title:      n.Title,
		URLSegment: n.URLSegment,
		Hosts:      datatypes.JSONSlice[string](n.Hosts),
		IsDefault:  n.IsDefault,
		Version:    version,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

// ToLiveModel snapshots a stage record for the live table.
func (m *SiteTreeMapper) ToLiveModel(n *entity.Node, publishedAt time.Time) *model.SiteTreeLive {
	if n == nil {
		return nil
	}
	stage := m.ToModel(n)
	return &model.SiteTreeLive{
		Id:          stage.Id,
		ParentId:    stage.ParentId,
		SiteId:      stage.SiteId,
		ClassName:   stage.ClassName,
		Title:       stage.Title,
		URLSegment:  stage.URLSegment,
		Hosts:       stage.Hosts,
		IsDefault:   stage.IsDefault,
		Version:     stage.Version,
		PublishedAt: publishedAt,
	}
}

func (m *SiteTreeMapper) ToEntities(nodes []*model.SiteTree) []*entity.Node {
	entities := make([]*entity.Node, len(nodes))
	for i, n := range nodes {
		entities[i] = m.ToEntity(n)
	}
	return entities
}
