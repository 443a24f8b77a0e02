package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SiteTree is the stage table. Sites and pages share it, ClassName tells them apart.
type SiteTree struct {
	Id         int64                       `gorm:"primaryKey;autoIncrement"`
	ParentId   int64                       `gorm:"not null;default:0;index"`
	SiteId     int64                       `gorm:"not null;default:0;index"`
	ClassName  string                      `gorm:"type:varchar(32);not null;index"`
	Title      string                      `gorm:"type:varchar(255)"`
	URLSegment string                      `gorm:"column:url_segment;type:varchar(255);index"`
	Hosts      datatypes.JSONSlice[string] `gorm:"type:json"`
	IsDefault  bool                        `gorm:"not null;default:false"`
	Version    int                         `gorm:"not null;default:1"`
	CreatedAt  time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt  time.Time                   `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt              `gorm:"index"`
}

func (SiteTree) TableName() string {
	return "site_tree"
}

// SiteTreeLive holds the published copy of each node.
type SiteTreeLive struct {
	Id          int64                       `gorm:"primaryKey;autoIncrement:false"`
	ParentId    int64                       `gorm:"not null;default:0;index"`
	SiteId      int64                       `gorm:"not null;default:0;index"`
	ClassName   string                      `gorm:"type:varchar(32);not null"`
	Title       string                      `gorm:"type:varchar(255)"`
	URLSegment  string                      `gorm:"column:url_segment;type:varchar(255)"`
	Hosts       datatypes.JSONSlice[string] `gorm:"type:json"`
	IsDefault   bool                        `gorm:"not null;default:false"`
	Version     int                         `gorm:"not null;default:1"`
	PublishedAt time.Time
}

func (SiteTreeLive) TableName() string {
	return "site_tree_live"
}
