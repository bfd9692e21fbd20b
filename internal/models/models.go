package models

import "time"

// DetectedAtLayout is the format of Device.DetectedAt.
const DetectedAtLayout = "2006-01-02 15:04:05"

// Device represents a discovered network device in the inventory
type Device struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	IPAddress  string   `json:"ip_address"`
	Location   *string  `json:"location"`
	Status     *string  `json:"status"`
	DetectedAt string   `json:"detected_at"` // server assigned, see DetectedAtLayout
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// StringOr returns the pointed-to value or fallback when p is nil.
func StringOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

// Activity levels, mirrored in the activity_logs.level column.
const (
	LevelInfo     = "info"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// ActivityLog is one entry of the activity feed shown on the dashboard
type ActivityLog struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Threat is a known-bad IP address. Devices created with a listed IP are blocked.
type Threat struct {
	IPAddress  string    `json:"ip_address"`
	ThreatType string    `json:"threat_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusBlocked is forced onto devices whose IP is in the threat list.
const StatusBlocked = "Blocked"
