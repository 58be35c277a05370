package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Message is one anonymous submission together with its best-effort
// enrichment. Rows are append-only: sub-records are written once at insert
// and never updated.
type Message struct {
	ID         int           `db:"id" json:"id"`
	Content    string        `db:"content" json:"content"`
	IPAddress  string        `db:"ip_address" json:"ipAddress"`
	Location   *LocationInfo `db:"location" json:"location,omitempty"`
	DeviceInfo *DeviceInfo   `db:"device_info" json:"deviceInfo,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"timestamp"`
}

// LocationInfo keeps every raw location signal alongside the reconciled
// result, so the provenance of the reported place stays auditable.
type LocationInfo struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Timezone string `json:"timezone"`

	GPSLatitude  *float64 `json:"gpsLatitude"`
	GPSLongitude *float64 `json:"gpsLongitude"`
	GPSAccuracy  *float64 `json:"gpsAccuracy"`

	BrowserTimezone string `json:"browserTimezone"`
	BrowserLanguage string `json:"browserLanguage"`

	FinalCountry string `json:"finalCountry"`
	FinalCity    string `json:"finalCity"`
	Source       string `json:"source"`
}

// Value implements driver.Valuer so the record persists as a JSONB column.
func (l LocationInfo) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// DeviceInfo is the classified device profile plus the client-reported
// capability data it was derived from. Heuristic fields fall back to
// "Unknown" for unmatched user agents.
type DeviceInfo struct {
	UserAgent string `json:"userAgent"`
	Platform  string `json:"platform"`

	IsMobile  bool `json:"isMobile"`
	IsTablet  bool `json:"isTablet"`
	IsDesktop bool `json:"isDesktop"`

	DeviceType      string `json:"deviceType"`
	DeviceBrand     string `json:"deviceBrand"`
	DeviceModel     string `json:"deviceModel"`
	OperatingSystem string `json:"operatingSystem"`
	OSVersion       string `json:"osVersion"`
	Browser         string `json:"browser"`
	BrowserVersion  string `json:"browserVersion"`

	ScreenWidth  *int     `json:"screenWidth"`
	ScreenHeight *int     `json:"screenHeight"`
	ColorDepth   *int     `json:"colorDepth"`
	PixelRatio   *float64 `json:"pixelRatio"`

	ConnectionType string `json:"connectionType"`

	TouchSupport   bool `json:"touchSupport"`
	CookiesEnabled bool `json:"cookiesEnabled"`
	SensorSupport  bool `json:"sensorSupport"`
	BatterySupport bool `json:"batterySupport"`
}

// Value implements driver.Valuer so the record persists as a JSONB column.
func (d DeviceInfo) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// SubmitMessageRequest is the submission payload as posted by the form page.
// It is validated before any Message is constructed and stays decoupled from
// the storage model.
type SubmitMessageRequest struct {
	Message         string            `json:"message"`
	GPSLatitude     *float64          `json:"gps_latitude"`
	GPSLongitude    *float64          `json:"gps_longitude"`
	GPSAccuracy     *float64          `json:"gps_accuracy"`
	BrowserTimezone string            `json:"browser_timezone"`
	BrowserLanguage string            `json:"browser_language"`
	Device          *ClientDeviceInfo `json:"deviceInfo"`
}

// ClientDeviceInfo is the capability bundle reported by the browser. All
// fields are optional; absent values keep their zero value.
type ClientDeviceInfo struct {
	UserAgent      string   `json:"userAgent"`
	Platform       string   `json:"platform"`
	IsMobile       bool     `json:"isMobile"`
	IsTablet       bool     `json:"isTablet"`
	ScreenWidth    *int     `json:"screenWidth"`
	ScreenHeight   *int     `json:"screenHeight"`
	ColorDepth     *int     `json:"colorDepth"`
	PixelRatio     *float64 `json:"pixelRatio"`
	ConnectionType string   `json:"connectionType"`
	TouchSupport   bool     `json:"touchSupport"`
	CookiesEnabled bool     `json:"cookiesEnabled"`
	SensorSupport  bool     `json:"sensorSupport"`
	BatterySupport bool     `json:"batterySupport"`
}
