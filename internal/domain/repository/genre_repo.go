package repository

import (
	"context"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
)

// GenreRepository defines access to the genre catalog
type GenreRepository interface {
	List(ctx context.Context) ([]entity.Genre, error)
	GetByID(ctx context.Context, id uint) (*entity.Genre, error)
}

// BlockedGenreRepository defines access to per-child genre blocks
type BlockedGenreRepository interface {
	ListIDs(ctx context.Context, childID uint) ([]uint, error)
	// Block returns apperrors.ErrConflict when the genre is already blocked
	Block(ctx context.Context, childID, genreID uint) error
	Unblock(ctx context.Context, childID, genreID uint) error
}

// ChildDetailsRepository defines access to a child's favorite genres
type ChildDetailsRepository interface {
	// GetFavoriteGenres returns an empty list when the child has not finished setup
	GetFavoriteGenres(ctx context.Context, childID uint) ([]string, error)
	SaveFavoriteGenres(ctx context.Context, childID uint, names []string) error
}
