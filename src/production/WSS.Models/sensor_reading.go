package wssmodels

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SensorReading is one device-count observation relayed by a gateway.
// ServerTimestamp and CreatedAt are assigned at ingestion and never
// accepted from callers.
type SensorReading struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	WallID          string             `bson:"wall_id" json:"wall_id"`
	DeviceCount     int64              `bson:"device_count" json:"device_count"`
	Timestamp       int64              `bson:"timestamp" json:"timestamp"`
	GatewayID       *string            `bson:"gateway_id,omitempty" json:"gateway_id,omitempty"`
	RSSI            *float64           `bson:"rssi,omitempty" json:"rssi,omitempty"`
	SNR             *float64           `bson:"snr,omitempty" json:"snr,omitempty"`
	ReceivedAt      *int64             `bson:"received_at,omitempty" json:"received_at,omitempty"`
	ServerTimestamp time.Time          `bson:"server_timestamp" json:"server_timestamp"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
