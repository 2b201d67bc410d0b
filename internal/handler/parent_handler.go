package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
	"github.com/coreadability/coreadability-api/internal/handler/dto"
	"github.com/coreadability/coreadability-api/internal/middleware"
	"github.com/coreadability/coreadability-api/internal/service"
)

// ParentControls is the part of the screen-time limiter used by parents
type ParentControls interface {
	ListChildren(ctx context.Context, parentID uint) ([]service.ChildOverview, error)
	UpdateTimeLimit(ctx context.Context, parentID, childID uint, minutes int) error
	ResetTodayUsage(ctx context.Context, parentID, childID uint) (int64, error)
	ChildStatus(ctx context.Context, parentID, childID uint) (service.TimeLimitStatus, error)
	UsageReport(ctx context.Context, parentID, childID uint, days int) ([]entity.DailyUsage, error)
}

// GenreBlocker manages the genres a parent blocked for a child
type GenreBlocker interface {
	ListBlockedGenres(ctx context.Context, parentID, childID uint) ([]entity.Genre, error)
	BlockGenre(ctx context.Context, parentID, childID, genreID uint) error
	UnblockGenre(ctx context.Context, parentID, childID, genreID uint) error
}

// ParentHandler serves the parental-control endpoints
type ParentHandler struct {
	controls ParentControls
	genres   GenreBlocker
}

// NewParentHandler creates a new parent handler
func NewParentHandler(controls ParentControls, genres GenreBlocker) *ParentHandler {
	return &ParentHandler{controls: controls, genres: genres}
}

func parentAndChild(c *gin.Context) (uint, uint) {
	parentID, _ := middleware.AccountID(c)
	return parentID, c.GetUint(middleware.ContextChildID)
}

// ListChildren handles GET /api/parents/children
func (h *ParentHandler) ListChildren(c *gin.Context) {
	parentID, _ := middleware.AccountID(c)
	children, err := h.controls.ListChildren(c.Request.Context(), parentID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"children": children})
}

// UpdateTimeLimit handles PUT /api/parents/children/:id/time-limit
func (h *ParentHandler) UpdateTimeLimit(c *gin.Context) {
	var req dto.UpdateTimeLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	parentID, childID := parentAndChild(c)
	if err := h.controls.UpdateTimeLimit(c.Request.Context(), parentID, childID, *req.Minutes); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"child_id": childID, "time_limit": *req.Minutes})
}

// ResetUsage handles POST /api/parents/children/:id/usage/reset
func (h *ParentHandler) ResetUsage(c *gin.Context) {
	parentID, childID := parentAndChild(c)
	deleted, err := h.controls.ResetTodayUsage(c.Request.Context(), parentID, childID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ResetUsageResponse{Deleted: deleted})
}

// ChildStatus handles GET /api/parents/children/:id/status
func (h *ParentHandler) ChildStatus(c *gin.Context) {
	parentID, childID := parentAndChild(c)
	status, err := h.controls.ChildStatus(c.Request.Context(), parentID, childID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// UsageReport handles GET /api/parents/children/:id/usage?days=7&format=json|xlsx
func (h *ParentHandler) UsageReport(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid days"))
		return
	}
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "xlsx" {
		badRequest(c, fmt.Errorf("format must be json or xlsx"))
		return
	}

	parentID, childID := parentAndChild(c)
	report, err := h.controls.UsageReport(c.Request.Context(), parentID, childID, days)
	if err != nil {
		handleError(c, err)
		return
	}

	if format == "xlsx" {
		h.exportXLSX(c, childID, report)
		return
	}
	c.JSON(http.StatusOK, dto.NewUsageReportResponse(childID, report))
}

// exportXLSX writes the report as a spreadsheet using the excelize stream writer
func (h *ParentHandler) exportXLSX(c *gin.Context, childID uint, report []entity.DailyUsage) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Usage"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		handleError(c, err)
		return
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		handleError(c, fmt.Errorf("create stream writer: %w", err))
		return
	}

	if err := sw.SetRow("A1", []interface{}{"Date", "Minutes", "Seconds"}); err != nil {
		handleError(c, err)
		return
	}
	for i, d := range report {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{entity.ISODate(d.Day), fmt.Sprintf("%.1f", d.Minutes()), d.Seconds}
		if err := sw.SetRow(cell, row); err != nil {
			handleError(c, err)
			return
		}
	}
	if err := sw.Flush(); err != nil {
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("screen-time-child-%d.xlsx", childID)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Error().Err(err).Str("component", "http").Uint("child_id", childID).Msg("failed to write xlsx")
	}
}

// ListBlockedGenres handles GET /api/parents/children/:id/blocked-genres
func (h *ParentHandler) ListBlockedGenres(c *gin.Context) {
	parentID, childID := parentAndChild(c)
	genres, err := h.genres.ListBlockedGenres(c.Request.Context(), parentID, childID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": dto.NewGenreResponses(genres)})
}

// BlockGenre handles POST /api/parents/children/:id/blocked-genres
func (h *ParentHandler) BlockGenre(c *gin.Context) {
	var req dto.BlockGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	parentID, childID := parentAndChild(c)
	if err := h.genres.BlockGenre(c.Request.Context(), parentID, childID, req.GenreID); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"child_id": childID, "genre_id": req.GenreID})
}

// UnblockGenre handles DELETE /api/parents/children/:id/blocked-genres/:genreId
func (h *ParentHandler) UnblockGenre(c *gin.Context) {
	parentID, childID := parentAndChild(c)
	genreID := c.GetUint(middleware.ContextGenreID)
	if err := h.genres.UnblockGenre(c.Request.Context(), parentID, childID, genreID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
