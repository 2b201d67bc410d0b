package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
	apperrors "github.com/coreadability/coreadability-api/internal/pkg/errors"
)

// ParentChildRepo implements repository.ParentChildRepository
type ParentChildRepo struct {
	db *gorm.DB
}

// NewParentChildRepo creates a new relationship repository
func NewParentChildRepo(db *gorm.DB) *ParentChildRepo {
	return &ParentChildRepo{db: db}
}

// GetByChildID returns the relationship of a child
func (r *ParentChildRepo) GetByChildID(ctx context.Context, childID uint) (*entity.ParentChildRelationship, error) {
	var rel entity.ParentChildRelationship
	err := r.db.WithContext(ctx).Where("child_id = ?", childID).First(&rel).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &rel, nil
}

// GetByParentAndChild returns the relationship only when the child belongs to the parent
func (r *ParentChildRepo) GetByParentAndChild(ctx context.Context, parentID, childID uint) (*entity.ParentChildRelationship, error) {
	var rel entity.ParentChildRelationship
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND child_id = ?", parentID, childID).
		First(&rel).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &rel, nil
}

// ListByParent returns every child relationship of a parent
func (r *ParentChildRepo) ListByParent(ctx context.Context, parentID uint) ([]entity.ParentChildRelationship, error) {
	var rels []entity.ParentChildRelationship
	err := r.db.WithContext(ctx).Where("parent_id = ?", parentID).Order("child_id").Find(&rels).Error
	return rels, err
}

// UpdateTimeLimit stores a new daily limit; nil clears it
func (r *ParentChildRepo) UpdateTimeLimit(ctx context.Context, parentID, childID uint, minutes *int) error {
	result := r.db.WithContext(ctx).
		Model(&entity.ParentChildRelationship{}).
		Where("parent_id = ? AND child_id = ?", parentID, childID).
		Update("timeLimitMinute", minutes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
