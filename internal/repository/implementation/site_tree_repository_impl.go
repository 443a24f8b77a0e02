package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"multisite-be/internal/entity"
	"multisite-be/internal/mapper"
	"multisite-be/internal/model"
	"multisite-be/internal/repository/contract"
	"multisite-be/internal/repository/specification"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

type SiteTreeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SiteTreeMapper
}

func NewSiteTreeRepository(db *gorm.DB) contract.SiteTreeRepository {
	return &SiteTreeRepositoryImpl{
		db:     db,
		mapper: mapper.NewSiteTreeMapper(),
	}
}

func (r *SiteTreeRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SiteTreeRepositoryImpl) Create(ctx context.Context, node *entity.Node) error {
	m := r.mapper.ToModel(node)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err)
	}
	*node = *r.mapper.ToEntity(m)
	return nil
}

// Update writes every column, zero values included, and bumps the version.
// A node missing from storage is reported, never recreated.
func (r *SiteTreeRepositoryImpl) Update(ctx context.Context, node *entity.Node) error {
	if node.Id == 0 {
		return fmt.Errorf("update site tree node: %w", contract.ErrNodeNotFound)
	}
	m := r.mapper.ToModel(node)
	m.Version++
	res := r.db.WithContext(ctx).Model(m).Select("*").Updates(m)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update site tree node %d: %w", node.Id, contract.ErrNodeNotFound)
	}
	*node = *r.mapper.ToEntity(m)
	return nil
}

// Publish copies the stage record into the live table.
func (r *SiteTreeRepositoryImpl) Publish(ctx context.Context, node *entity.Node) error {
	if node.Id == 0 {
		return fmt.Errorf("publish site tree node: %w", contract.ErrNodeNotFound)
	}
	live := r.mapper.ToLiveModel(node, time.Now())
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(live).Error
}

func (r *SiteTreeRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Node, error) {
	var m model.SiteTree
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SiteTreeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Node, error) {
	var models []*model.SiteTree
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SiteTreeRepositoryImpl) FindLive(ctx context.Context, id int64) (*entity.Node, error) {
	var live model.SiteTreeLive
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&live).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity.Node{
		Id:         live.Id,
		ParentId:   live.ParentId,
		SiteId:     live.SiteId,
		Kind:       entity.NodeKind(live.ClassName),
		Title:      live.Title,
		URLSegment: live.URLSegment,
		Hosts:      []string(live.Hosts),
		IsDefault:  live.IsDefault,
		Version:    live.Version,
	}, nil
}

func (r *SiteTreeRepositoryImpl) SyncLiveSite(ctx context.Context, ids []int64, siteId int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.SiteTreeLive{}).
		Where("id IN ?", ids).
		Update("site_id", siteId)
	return result.RowsAffected, result.Error
}

func (r *SiteTreeRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.SiteTree{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, contract.ErrDuplicateNode)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return contract.ErrDuplicateNode
	}
	return err
}
