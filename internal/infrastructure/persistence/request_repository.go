package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/disciplinario/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRequestRepository implements disciplinary.RequestRepository using GORM
type GormRequestRepository struct {
	db *gorm.DB
}

// NewGormRequestRepository creates a new GormRequestRepository
func NewGormRequestRepository(db *gorm.DB) *GormRequestRepository {
	return &GormRequestRepository{db: db}
}

// FindByID finds a request by ID
func (r *GormRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*disciplinary.Request, error) {
	var model models.DisciplinaryRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds requests matching the filter. A PageSize of zero returns
// every matching row.
func (r *GormRequestRepository) FindAll(ctx context.Context, filter disciplinary.ListFilter) ([]disciplinary.Request, error) {
	var rows []models.DisciplinaryRequestModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DisciplinaryRequestModel{}), filter)

	query = query.Order(orderBy(filter.OrderBy, filter.OrderDir, requestSortColumns, "created_at"))

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainRequests(rows), nil
}

// Count returns the number of requests matching the filter
func (r *GormRequestRepository) Count(ctx context.Context, filter disciplinary.ListFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DisciplinaryRequestModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List returns every request, newest first
func (r *GormRequestRepository) List(ctx context.Context) ([]disciplinary.Request, error) {
	var rows []models.DisciplinaryRequestModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainRequests(rows), nil
}

// Create inserts a new request
func (r *GormRequestRepository) Create(ctx context.Context, request *disciplinary.Request) error {
	model := models.DisciplinaryRequestModelFromDomain(request)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save updates an existing request. The aggregate has already bumped its
// version, so the stored row must still carry the previous one.
func (r *GormRequestRepository) Save(ctx context.Context, request *disciplinary.Request) error {
	model := models.DisciplinaryRequestModelFromDomain(request)
	result := r.db.WithContext(ctx).
		Model(&models.DisciplinaryRequestModel{}).
		Where("id = ? AND version = ?", request.ID, request.Version-1).
		Select("*").
		Omit("id", "created_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The request has been modified by another user")
	}
	return nil
}

// Delete deletes a request by ID
func (r *GormRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DisciplinaryRequestModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Areas returns the distinct worker areas, sorted
func (r *GormRequestRepository) Areas(ctx context.Context) ([]string, error) {
	var areas []string
	if err := r.db.WithContext(ctx).
		Model(&models.DisciplinaryRequestModel{}).
		Where("worker_area <> ''").
		Distinct("worker_area").
		Order("worker_area ASC").
		Pluck("worker_area", &areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

// applyFilter applies area, status and search conditions. The search term
// arrives already case-folded and is matched against the lower-cased worker
// name and national ID.
func (r *GormRequestRepository) applyFilter(query *gorm.DB, filter disciplinary.ListFilter) *gorm.DB {
	if filter.Area != "" {
		query = query.Where("worker_area = ?", filter.Area)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		query = query.Where(`(LOWER(worker_name) LIKE ? ESCAPE '\' OR LOWER(worker_national_id) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return query
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func toDomainRequests(rows []models.DisciplinaryRequestModel) []disciplinary.Request {
	requests := make([]disciplinary.Request, len(rows))
	for i := range rows {
		requests[i] = *rows[i].ToDomain()
	}
	return requests
}
