package wssmodels

import "time"

// WallSummary is the per-wall row of the walls view. DeviceCount comes from
// the last-inserted reading of the wall, which is not necessarily the one
// holding LatestReading.
type WallSummary struct {
	WallID        string    `bson:"wall_id" json:"wall_id"`
	LatestReading time.Time `bson:"latest_reading" json:"latest_reading"`
	DeviceCount   int64     `bson:"device_count" json:"device_count"`
}
