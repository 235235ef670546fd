package validation

import (
	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
)

// ReadingSchema is the accepted shape of an inbound sensor reading.
var ReadingSchema = Schema{Fields: []Field{
	{Name: "wall_id", Kind: String, Checks: []Check{
		{Tag: "min=1", Message: "String must contain at least 1 character(s)"},
	}},
	{Name: "device_count", Kind: Integer, Checks: []Check{
		{Tag: "gte=0", Message: "Number must be greater than or equal to 0"},
	}},
	{Name: "timestamp", Kind: Integer, Checks: []Check{
		{Tag: "gt=0", Message: "Number must be greater than 0"},
	}},
	{Name: "gateway_id", Kind: String, Optional: true},
	{Name: "rssi", Kind: Number, Optional: true},
	{Name: "snr", Kind: Number, Optional: true},
	{Name: "received_at", Kind: Integer, Optional: true},
}}

// ParseReading validates raw and returns the normalized reading, or a
// Violations error listing every failure. System-assigned fields are left
// zero.
func ParseReading(raw map[string]any) (wssmodels.SensorReading, error) {
	fields, violations := ReadingSchema.Parse(raw)
	if len(violations) > 0 {
		return wssmodels.SensorReading{}, violations
	}

	reading := wssmodels.SensorReading{
		WallID:      fields["wall_id"].(string),
		DeviceCount: fields["device_count"].(int64),
		Timestamp:   fields["timestamp"].(int64),
	}
	if v, ok := fields["gateway_id"].(string); ok {
		reading.GatewayID = &v
	}
	if v, ok := fields["rssi"].(float64); ok {
		reading.RSSI = &v
	}
	if v, ok := fields["snr"].(float64); ok {
		reading.SNR = &v
	}
	if v, ok := fields["received_at"].(int64); ok {
		reading.ReceivedAt = &v
	}
	return reading, nil
}
