package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
	"github.com/coreadability/coreadability-api/internal/handler/dto"
	"github.com/coreadability/coreadability-api/internal/middleware"
	"github.com/coreadability/coreadability-api/internal/service/recommend"
)

const maxRandomGenres = 10

// GenreCatalog is the genre preference part of the recommender
type GenreCatalog interface {
	ListGenres(ctx context.Context, childID uint) ([]entity.Genre, error)
	GetFavoriteGenres(ctx context.Context, childID uint) ([]string, error)
	SetFavoriteGenres(ctx context.Context, childID uint, names []string) ([]string, error)
	GetRandomGenres(ctx context.Context, childID uint, count int, excluded []string) []string
}

// TurnProcessor runs the heuristic over the session's stored state
type TurnProcessor interface {
	Turn(ctx context.Context, childID uint, sessionID, message, lastBotMessage string) (string, recommend.TurnResult, error)
	SelectGenre(ctx context.Context, childID uint, sessionID string) (string, error)
}

// GenreHandler serves the genre catalog, favorites and recommendation endpoints
type GenreHandler struct {
	catalog GenreCatalog
	turns   TurnProcessor
}

// NewGenreHandler creates a new genre handler
func NewGenreHandler(catalog GenreCatalog, turns TurnProcessor) *GenreHandler {
	return &GenreHandler{catalog: catalog, turns: turns}
}

// ListGenres handles GET /api/genres. Children never see genres blocked for them;
// the response also carries the chat button questions.
func (h *GenreHandler) ListGenres(c *gin.Context) {
	var childID uint
	if c.GetString(middleware.ContextRole) == entity.RoleChild {
		childID, _ = middleware.AccountID(c)
	}

	genres, err := h.catalog.ListGenres(c.Request.Context(), childID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"genres":               dto.NewGenreResponses(genres),
		"predefined_questions": recommend.PredefinedQuestions(),
	})
}

// GetFavorites handles GET /api/me/favorite-genres
func (h *GenreHandler) GetFavorites(c *gin.Context) {
	childID, _ := middleware.AccountID(c)
	names, err := h.catalog.GetFavoriteGenres(c.Request.Context(), childID)
	if err != nil {
		handleError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, dto.FavoriteGenresResponse{Genres: names})
}

// SetFavorites handles PUT /api/me/favorite-genres
func (h *GenreHandler) SetFavorites(c *gin.Context) {
	var req dto.FavoriteGenresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	childID, _ := middleware.AccountID(c)
	saved, err := h.catalog.SetFavoriteGenres(c.Request.Context(), childID, req.Genres)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FavoriteGenresResponse{Genres: saved})
}

// Turn handles POST /api/recommendations/turn
func (h *GenreHandler) Turn(c *gin.Context) {
	var req dto.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	childID, _ := middleware.AccountID(c)
	sessionID, result, err := h.turns.Turn(c.Request.Context(), childID, req.SessionID, req.Text(), req.LastBotMessage)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "genres": result})
}

// Select handles POST /api/recommendations/select
func (h *GenreHandler) Select(c *gin.Context) {
	var req dto.SelectGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	childID, _ := middleware.AccountID(c)
	sessionID, err := h.turns.SelectGenre(c.Request.Context(), childID, req.SessionID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "genre": req.Genre})
}

// Random handles GET /api/recommendations/random?count=3; the child's favorites are excluded
func (h *GenreHandler) Random(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "3"))
	if err != nil || count < 1 || count > maxRandomGenres {
		badRequest(c, fmt.Errorf("count must be between 1 and %d", maxRandomGenres))
		return
	}

	childID, _ := middleware.AccountID(c)
	// favorites are only an exclusion list here, so a failed read is not fatal
	favorites, err := h.catalog.GetFavoriteGenres(c.Request.Context(), childID)
	if err != nil {
		favorites = nil
	}

	genres := h.catalog.GetRandomGenres(c.Request.Context(), childID, count, favorites)
	c.JSON(http.StatusOK, dto.RandomGenresResponse{Genres: genres})
}
