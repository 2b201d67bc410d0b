package entity

// UnlimitedSentinelMinutes is the limit value at or above which a child is treated as unlimited
const UnlimitedSentinelMinutes = 1000

// ParentChildRelationship links a parent account to a child account and
// carries the child's daily time limit.
type ParentChildRelationship struct {
	ID              uint `gorm:"primaryKey" json:"id"`
	ParentID        uint `gorm:"column:parent_id;not null;index" json:"parent_id"`
	ChildID         uint `gorm:"column:child_id;not null;uniqueIndex" json:"child_id"`
	TimeLimitMinute *int `gorm:"column:timeLimitMinute" json:"timeLimitMinute"` // nil or 0 means unlimited
}

// TableName defines the table name for GORM
func (ParentChildRelationship) TableName() string {
	return "isparentof"
}

// IsUnlimited reports whether the stored limit means "no limit".
// nil, zero, negative and the sentinel (>= 1000) all count as unlimited.
func (r *ParentChildRelationship) IsUnlimited() bool {
	return LimitIsUnlimited(r.TimeLimitMinute)
}

// LimitIsUnlimited applies the unlimited rule to a raw limit value
func LimitIsUnlimited(limit *int) bool {
	if limit == nil {
		return true
	}
	return *limit <= 0 || *limit >= UnlimitedSentinelMinutes
}
