package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
)

// GenreRepo implements repository.GenreRepository
type GenreRepo struct {
	db *gorm.DB
}

// NewGenreRepo creates a new genre catalog repository
func NewGenreRepo(db *gorm.DB) *GenreRepo {
	return &GenreRepo{db: db}
}

// List returns the whole catalog ordered by name
func (r *GenreRepo) List(ctx context.Context) ([]entity.Genre, error) {
	var genres []entity.Genre
	err := r.db.WithContext(ctx).Order("genrename").Find(&genres).Error
	return genres, err
}

// GetByID returns a genre by gid
func (r *GenreRepo) GetByID(ctx context.Context, id uint) (*entity.Genre, error) {
	var genre entity.Genre
	if err := r.db.WithContext(ctx).First(&genre, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &genre, nil
}

// BlockedGenreRepo implements repository.BlockedGenreRepository
type BlockedGenreRepo struct {
	db *gorm.DB
}

// NewBlockedGenreRepo creates a new blocked genre repository
func NewBlockedGenreRepo(db *gorm.DB) *BlockedGenreRepo {
	return &BlockedGenreRepo{db: db}
}

// ListIDs returns the genre ids blocked for a child
func (r *BlockedGenreRepo) ListIDs(ctx context.Context, childID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&entity.BlockedGenre{}).
		Where("child_id = ?", childID).
		Order("genreid").
		Pluck("genreid", &ids).Error
	return ids, err
}

// Block adds a genre to the child's blocked set
func (r *BlockedGenreRepo) Block(ctx context.Context, childID, genreID uint) error {
	err := r.db.WithContext(ctx).Create(&entity.BlockedGenre{ChildID: childID, GenreID: genreID}).Error
	return translateError(err)
}

// Unblock removes a genre from the child's blocked set; missing rows are not an error
func (r *BlockedGenreRepo) Unblock(ctx context.Context, childID, genreID uint) error {
	return r.db.WithContext(ctx).
		Where("child_id = ? AND genreid = ?", childID, genreID).
		Delete(&entity.BlockedGenre{}).Error
}

// ChildDetailsRepo implements repository.ChildDetailsRepository
type ChildDetailsRepo struct {
	db *gorm.DB
}

// NewChildDetailsRepo creates a new child details repository
func NewChildDetailsRepo(db *gorm.DB) *ChildDetailsRepo {
	return &ChildDetailsRepo{db: db}
}

// GetFavoriteGenres returns the stored favorites or an empty list
func (r *ChildDetailsRepo) GetFavoriteGenres(ctx context.Context, childID uint) ([]string, error) {
	var details entity.ChildDetails
	err := r.db.WithContext(ctx).Where("child_id = ?", childID).Limit(1).Find(&details).Error
	if err != nil {
		return nil, err
	}
	return []string(details.FavouriteGenres), nil
}

// SaveFavoriteGenres upserts the child's favorites
func (r *ChildDetailsRepo) SaveFavoriteGenres(ctx context.Context, childID uint, names []string) error {
	details := entity.ChildDetails{ChildID: childID, FavouriteGenres: entity.StringArray(names)}
	return r.db.WithContext(ctx).Save(&details).Error
}
