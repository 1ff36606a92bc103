package records

import (
	"context"
	"errors"

	"github.com/dmarcana/marketplace-analytics-backend/pkg/db/models"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/pagination"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GenericRepository covers the legacy collection of plain outcome records. It
// is a narrower subset of Repository: no lookup by id.
type GenericRepository interface {
	Create(ctx context.Context, record *models.Response) error
	FindAll(ctx context.Context, limit, offset int) ([]models.Response, error)
	FindLatest(ctx context.Context) (*models.Response, error)
	GetStats(ctx context.Context) (types.ResponseStats, error)
}

type genericRepositoryImpl struct {
	db *gorm.DB
}

// NewGenericRepository returns a legacy record repository bound to the provided database.
func NewGenericRepository(db *gorm.DB) GenericRepository {
	return &genericRepositoryImpl{db: db}
}

func (r *genericRepositoryImpl) Create(ctx context.Context, record *models.Response) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *genericRepositoryImpl) FindAll(ctx context.Context, limit, offset int) ([]models.Response, error) {
	limit = pagination.NormalizeLimit(limit)
	offset = pagination.NormalizeOffset(offset)

	var records []models.Response
	err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *genericRepositoryImpl) FindLatest(ctx context.Context) (*models.Response, error) {
	var record models.Response
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

func (r *genericRepositoryImpl) GetStats(ctx context.Context) (types.ResponseStats, error) {
	return computeStats(ctx, r.db, &models.Response{})
}
