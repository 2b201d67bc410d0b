package dto

import (
	"github.com/coreadability/coreadability-api/internal/domain/entity"
)

// UpdateTimeLimitRequest sets a child's daily limit; 0 means unlimited
type UpdateTimeLimitRequest struct {
	Minutes *int `json:"minutes" binding:"required"`
}

// ResetUsageResponse reports how many usage rows a parent reset removed
type ResetUsageResponse struct {
	Deleted int64 `json:"deleted"`
}

// EndSessionResponse reports the seconds flushed when a session ended
type EndSessionResponse struct {
	FlushedSeconds int `json:"flushed_seconds"`
}

// DailyUsageResponse is one day of a usage report
type DailyUsageResponse struct {
	Date    string  `json:"date"`
	Seconds int64   `json:"seconds"`
	Minutes float64 `json:"minutes"`
}

// UsageReportResponse is a parent's view of a child's recent usage
type UsageReportResponse struct {
	ChildID uint                 `json:"child_id"`
	Days    []DailyUsageResponse `json:"days"`
}

// NewUsageReportResponse converts the per-day totals
func NewUsageReportResponse(childID uint, days []entity.DailyUsage) UsageReportResponse {
	out := UsageReportResponse{ChildID: childID, Days: make([]DailyUsageResponse, len(days))}
	for i, d := range days {
		out.Days[i] = DailyUsageResponse{
			Date:    entity.ISODate(d.Day),
			Seconds: d.Seconds,
			Minutes: d.Minutes(),
		}
	}
	return out
}
