// Package domain defines the sync orchestrator's documents and ports
package domain

// Task names tagged onto async writes; the dispatch path keys its logging
// and the journal lines on these
const (
	TaskDailyData  = "daily_data"
	TaskLocation   = "location"
	TaskDeviceInfo = "device_info"
)

// DailyDocument is the date-scoped aggregate written at
// devices/{deviceID}/data/{date}
type DailyDocument struct {
	BillboardID      string `json:"billboard_id"`
	Date             string `json:"date"`
	DailyImpressions int64  `json:"daily_impressions"`
	LastUpdated      string `json:"last_updated"`
}

// LocationDocument is written at devices/{deviceID}/device_info/Location.
// Field names and string rendering match the fleet backend's schema
type LocationDocument struct {
	Lat  string `json:"Lat"`
	Long string `json:"Long"`
}

// DeviceDocument is the static device record published once at bring-up at
// devices/{deviceID}/device_info
type DeviceDocument struct {
	BillboardID string           `json:"billboard_id"`
	DeviceName  string           `json:"device_name"`
	Firmware    string           `json:"firmware"`
	MACAddress  string           `json:"mac_address"`
	SetupTime   string           `json:"setup_time"`
	Status      string           `json:"status"`
	Location    LocationDocument `json:"Location"`
}
