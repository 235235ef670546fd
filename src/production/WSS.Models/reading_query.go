package wssmodels

import "time"

// ReadingQuery holds validated query parameters. Nil means "not supplied".
type ReadingQuery struct {
	WallID    *string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     *int
}
