package holiday

import (
	"time"

	"github.com/pulsehub/scheduler/pkg/civil"
)

type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

func (s Scope) Valid() bool {
	return s == ScopeGlobal || s == ScopeProject
}

// Holiday marks a non-working day. Global holidays apply to every
// project of the account; project holidays only to their project.
type Holiday struct {
	ID        string     `yaml:"id" json:"id"`
	AccountID string     `yaml:"account_id" json:"account_id"`
	ProjectID string     `yaml:"project_id,omitempty" json:"project_id,omitempty"`
	Date      civil.Date `yaml:"date" json:"date"`
	Name      string     `yaml:"name" json:"name"`
	Scope     Scope      `yaml:"scope" json:"scope"`
	CreatedAt time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time  `yaml:"updated_at" json:"updated_at"`
}
