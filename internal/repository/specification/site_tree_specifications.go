package specification

import (
	"multisite-be/internal/entity"

	"gorm.io/gorm"
)

type ByTreeParentID struct {
	ParentID int64
}

func (s ByTreeParentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("parent_id = ?", s.ParentID)
}

type BySiteID struct {
	SiteID int64
}

func (s BySiteID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("site_id = ?", s.SiteID)
}

type ByKind struct {
	Kind entity.NodeKind
}

func (s ByKind) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("class_name = ?", string(s.Kind))
}

type ByURLSegment struct {
	Segment string
}

func (s ByURLSegment) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("url_segment = ?", s.Segment)
}

// DefaultSite matches the site flagged as the default one.
type DefaultSite struct{}

func (s DefaultSite) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("class_name = ? AND is_default = ?", string(entity.NodeKindSite), true)
}
