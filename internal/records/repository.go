package records

import (
	"context"
	"errors"

	"github.com/dmarcana/marketplace-analytics-backend/pkg/db/models"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/enums"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/pagination"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Repository exposes persistence helpers for marketplace ping records.
// Records are append-only: there is deliberately no update or delete surface.
type Repository interface {
	Create(ctx context.Context, record *models.MarketplaceResponse) error
	FindAll(ctx context.Context, limit, offset int) ([]models.MarketplaceResponse, error)
	FindAllByCategory(ctx context.Context, category enums.Category, limit, offset int) ([]models.MarketplaceResponse, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.MarketplaceResponse, error)
	FindLatest(ctx context.Context) (*models.MarketplaceResponse, error)
	GetStats(ctx context.Context) (types.ResponseStats, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a marketplace record repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, record *models.MarketplaceResponse) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repositoryImpl) FindAll(ctx context.Context, limit, offset int) ([]models.MarketplaceResponse, error) {
	return r.list(r.db.WithContext(ctx), limit, offset)
}

func (r *repositoryImpl) FindAllByCategory(ctx context.Context, category enums.Category, limit, offset int) ([]models.MarketplaceResponse, error) {
	tx := r.db.WithContext(ctx).
		Where(datatypes.JSONQuery("marketplace_data").Equals(category.String(), "category"))
	return r.list(tx, limit, offset)
}

func (r *repositoryImpl) list(tx *gorm.DB, limit, offset int) ([]models.MarketplaceResponse, error) {
	limit = pagination.NormalizeLimit(limit)
	offset = pagination.NormalizeOffset(offset)

	var records []models.MarketplaceResponse
	err := tx.
		Model(&models.MarketplaceResponse{}).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.MarketplaceResponse, error) {
	var record models.MarketplaceResponse
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repositoryImpl) FindLatest(ctx context.Context) (*models.MarketplaceResponse, error) {
	var record models.MarketplaceResponse
	err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repositoryImpl) GetStats(ctx context.Context) (types.ResponseStats, error) {
	return computeStats(ctx, r.db, &models.MarketplaceResponse{})
}

// computeStats runs the three independent counts plus the response-time
// average shared by both record shapes. Codes outside [200,400) and below 400
// (1xx, for instance) count toward neither successful nor failed.
func computeStats(ctx context.Context, db *gorm.DB, model any) (types.ResponseStats, error) {
	var stats types.ResponseStats

	if err := db.WithContext(ctx).Model(model).Count(&stats.Total).Error; err != nil {
		return types.ResponseStats{}, err
	}
	if err := db.WithContext(ctx).Model(model).
		Where("status_code >= 200 AND status_code < 400").
		Count(&stats.Successful).Error; err != nil {
		return types.ResponseStats{}, err
	}
	if err := db.WithContext(ctx).Model(model).
		Where("status_code >= 400").
		Count(&stats.Failed).Error; err != nil {
		return types.ResponseStats{}, err
	}

	if stats.Total == 0 {
		return stats, nil
	}

	if err := db.WithContext(ctx).Model(model).
		Select("COALESCE(AVG(response_time), 0)").
		Scan(&stats.AverageResponseTime).Error; err != nil {
		return types.ResponseStats{}, err
	}

	stats.SuccessRate = float64(stats.Successful) / float64(stats.Total) * 100
	return stats, nil
}
