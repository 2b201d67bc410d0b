package repository

import (
	"context"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
)

// ParentChildRepository defines access to parent-child relationships
type ParentChildRepository interface {
	// GetByChildID returns the relationship of a child or apperrors.ErrNotFound
	GetByChildID(ctx context.Context, childID uint) (*entity.ParentChildRelationship, error)
	// GetByParentAndChild returns the relationship only when it belongs to parentID
	GetByParentAndChild(ctx context.Context, parentID, childID uint) (*entity.ParentChildRelationship, error)
	ListByParent(ctx context.Context, parentID uint) ([]entity.ParentChildRelationship, error)
	UpdateTimeLimit(ctx context.Context, parentID, childID uint, minutes *int) error
}
