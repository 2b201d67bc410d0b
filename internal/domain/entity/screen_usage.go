package entity

import "time"

// UsageRecord is one tracked usage interval of a child
type UsageRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChildID   uint      `gorm:"column:child_id;not null;index:idx_screen_usage_child_date" json:"child_id"`
	Duration  int       `gorm:"column:duration;not null" json:"duration"` // seconds
	UsageDate time.Time `gorm:"column:usage_date;not null;index:idx_screen_usage_child_date" json:"usage_date"`
}

// TableName defines the table name for GORM
func (UsageRecord) TableName() string {
	return "screen_usage"
}

// DailyUsage is the aggregated usage of one calendar day
type DailyUsage struct {
	Day     time.Time `json:"day"`
	Seconds int64     `json:"seconds"`
}

// Minutes converts the aggregated seconds to minutes
func (d DailyUsage) Minutes() float64 {
	return float64(d.Seconds) / 60.0
}

// DayBounds returns the UTC start of the day containing t and the start of the next day.
// Usage for a day is every record with start <= usage_date < end.
func DayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// ISODate formats the UTC calendar date of t as YYYY-MM-DD
func ISODate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
