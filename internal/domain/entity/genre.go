package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// MaxFavoriteGenres is how many favorites a child may pick during setup
const MaxFavoriteGenres = 3

// StringArray is a custom type for JSONB string lists
type StringArray []string

// Scan implements sql.Scanner so GORM can read JSONB columns
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte or string")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value implements driver.Valuer; nil is written as an empty JSON array, not null
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Genre is a catalog entry used to tag content and as a preference
type Genre struct {
	ID   uint   `gorm:"column:gid;primaryKey" json:"gid"`
	Name string `gorm:"column:genrename;size:100;not null;uniqueIndex" json:"genrename"`
}

// TableName defines the table name for GORM
func (Genre) TableName() string {
	return "temp_genre"
}

// BlockedGenre is a genre a parent has disallowed for a child
type BlockedGenre struct {
	ChildID uint `gorm:"column:child_id;primaryKey" json:"child_id"`
	GenreID uint `gorm:"column:genreid;primaryKey" json:"genreid"`
}

// TableName defines the table name for GORM
func (BlockedGenre) TableName() string {
	return "blockedgenres"
}

// ChildDetails holds the child's favorite genre names picked at first-time setup
type ChildDetails struct {
	ChildID         uint        `gorm:"column:child_id;primaryKey" json:"child_id"`
	FavouriteGenres StringArray `gorm:"column:favourite_genres;type:jsonb;not null" json:"favourite_genres"`
}

// TableName defines the table name for GORM
func (ChildDetails) TableName() string {
	return "child_details"
}

// NormalizeGenreName is the comparison key for genre names
func NormalizeGenreName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
