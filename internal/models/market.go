package models

import (
	"time"
)

// Market represents a collection site (public market, plaza, route stop)
type Market struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex" json:"name"`
	Address     *string   `json:"address"`
	ScheduleDay *string   `json:"schedule_day"` // e.g. "monday", collection day for this site
	Notes       *string   `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations
	Customers []Customer `gorm:"foreignKey:MarketID" json:"customers,omitempty"`
}

// TableName specifies the table name for Market
func (Market) TableName() string {
	return "markets"
}
