package validation

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadingQueryEmpty(t *testing.T) {
	query, err := ParseReadingQuery(url.Values{})
	require.NoError(t, err)

	assert.Nil(t, query.WallID)
	assert.Nil(t, query.StartTime)
	assert.Nil(t, query.EndTime)
	assert.Nil(t, query.Limit, "default limit belongs to the query builder")
}

func TestParseReadingQueryAllFields(t *testing.T) {
	values := url.Values{
		"wall_id":    {"lead-east"},
		"start_time": {"2024-05-01T10:00:00Z"},
		"end_time":   {"2024-05-01T12:30:00.250+02:00"},
		"limit":      {"25"},
		"ignored":    {"x"},
	}

	query, err := ParseReadingQuery(values)
	require.NoError(t, err)

	require.NotNil(t, query.WallID)
	assert.Equal(t, "lead-east", *query.WallID)
	require.NotNil(t, query.StartTime)
	assert.True(t, query.StartTime.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	require.NotNil(t, query.EndTime)
	assert.True(t, query.EndTime.Equal(time.Date(2024, 5, 1, 10, 30, 0, 250_000_000, time.UTC)))
	assert.Equal(t, time.UTC, query.EndTime.Location())
	require.NotNil(t, query.Limit)
	assert.Equal(t, 25, *query.Limit)
}

func TestParseReadingQueryLimitBounds(t *testing.T) {
	tests := []struct {
		limit   string
		message string
	}{
		{limit: "0", message: "Number must be greater than or equal to 1"},
		{limit: "-3", message: "Number must be greater than or equal to 1"},
		{limit: "1001", message: "Number must be less than or equal to 1000"},
		{limit: "ten", message: `Expected integer, received "ten"`},
		{limit: "2.5", message: `Expected integer, received "2.5"`},
	}

	for _, tt := range tests {
		t.Run(tt.limit, func(t *testing.T) {
			_, err := ParseReadingQuery(url.Values{"limit": {tt.limit}})
			violations, ok := AsViolations(err)
			require.True(t, ok)
			assert.Equal(t, Violations{{Path: "limit", Message: tt.message}}, violations)
		})
	}

	for _, limit := range []string{"1", "1000"} {
		query, err := ParseReadingQuery(url.Values{"limit": {limit}})
		require.NoError(t, err)
		require.NotNil(t, query.Limit)
	}
}

func TestParseReadingQueryReportsEveryViolation(t *testing.T) {
	values := url.Values{
		"start_time": {"yesterday"},
		"end_time":   {"2024-13-01T00:00:00Z"},
		"limit":      {"5000"},
	}

	_, err := ParseReadingQuery(values)
	violations, ok := AsViolations(err)
	require.True(t, ok)
	assert.Equal(t, Violations{
		{Path: "start_time", Message: "Invalid datetime"},
		{Path: "end_time", Message: "Invalid datetime"},
		{Path: "limit", Message: "Number must be less than or equal to 1000"},
	}, violations)
}

func TestParseReadingQueryUsesFirstValue(t *testing.T) {
	query, err := ParseReadingQuery(url.Values{"wall_id": {"a", "b"}, "limit": {""}})
	require.NoError(t, err)
	require.NotNil(t, query.WallID)
	assert.Equal(t, "a", *query.WallID)
	assert.Nil(t, query.Limit)
}
