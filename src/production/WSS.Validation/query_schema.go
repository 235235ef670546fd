package validation

import (
	"net/url"
	"time"

	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
)

// ReadingQuerySchema is the accepted shape of GET /sensor-data parameters.
// The default limit is applied by the query builder, not here.
var ReadingQuerySchema = Schema{Fields: []Field{
	{Name: "wall_id", Kind: String, Optional: true},
	{Name: "start_time", Kind: DateTimeString, Optional: true},
	{Name: "end_time", Kind: DateTimeString, Optional: true},
	{Name: "limit", Kind: IntegerString, Optional: true, Checks: []Check{
		{Tag: "min=1", Message: "Number must be greater than or equal to 1"},
		{Tag: "max=1000", Message: "Number must be less than or equal to 1000"},
	}},
}}

// ParseReadingQuery validates URL query parameters. Only the first value of
// a repeated key is considered and empty values count as absent.
func ParseReadingQuery(values url.Values) (wssmodels.ReadingQuery, error) {
	raw := make(map[string]any, len(ReadingQuerySchema.Fields))
	for _, field := range ReadingQuerySchema.Fields {
		if v := values.Get(field.Name); v != "" {
			raw[field.Name] = v
		}
	}

	fields, violations := ReadingQuerySchema.Parse(raw)
	if len(violations) > 0 {
		return wssmodels.ReadingQuery{}, violations
	}

	var query wssmodels.ReadingQuery
	if v, ok := fields["wall_id"].(string); ok {
		query.WallID = &v
	}
	if v, ok := fields["start_time"].(time.Time); ok {
		query.StartTime = &v
	}
	if v, ok := fields["end_time"].(time.Time); ok {
		query.EndTime = &v
	}
	if v, ok := fields["limit"].(int); ok {
		query.Limit = &v
	}
	return query, nil
}
