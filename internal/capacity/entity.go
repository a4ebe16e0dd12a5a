package capacity

import (
	"time"

	"github.com/pulsehub/scheduler/pkg/civil"
)

// Entry declares how many hours a user can work in one week,
// independent of any sprint. WeekStart is always a Monday.
type Entry struct {
	ID        string     `yaml:"id" json:"id"`
	AccountID string     `yaml:"account_id" json:"account_id"`
	UserID    string     `yaml:"user_id" json:"user_id"`
	WeekStart civil.Date `yaml:"week_start" json:"week_start"`
	Hours     int        `yaml:"hours" json:"hours"`
	CreatedAt time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time  `yaml:"updated_at" json:"updated_at"`
}
