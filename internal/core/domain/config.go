package domain

import (
	"errors"
	"time"
)

// Well-known configuration keys.
const (
	ConfigMaintenanceMode = "maintenance_mode"
)

var ErrConfigNotFound = errors.New("configuration key not found")

// ConfigEntry is one global, versioned key-value setting. Entries are seeded
// with defaults and only ever overwritten, never deleted. Values are stored
// as strings; readers coerce them on their side.
type ConfigEntry struct {
	Key       string    `json:"key" bson:"_id"`
	Value     string    `json:"value" bson:"value"`
	Category  string    `json:"category,omitempty" bson:"category,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// LiveConfigKeys is the hot subset distributed through the fast polling tier.
var LiveConfigKeys = []string{
	ConfigMaintenanceMode,
	"registration_enabled",
	"helpdesk_enabled",
}

// IsLiveKey reports whether key belongs to the fast polling tier.
func IsLiveKey(key string) bool {
	for _, k := range LiveConfigKeys {
		if k == key {
			return true
		}
	}
	return false
}
