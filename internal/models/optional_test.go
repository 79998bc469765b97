package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobResultPatchDistinguishesAbsentNullAndValue(t *testing.T) {
	raw := `{"startTs":"2025-03-01T09:30:00Z","travelTimeSec":null,"pathLengthCells":0,"result":"Success","failReason":""}`

	var patch JobResultPatch
	require.NoError(t, json.Unmarshal([]byte(raw), &patch))

	start, ok := patch.StartTs.Get()
	require.True(t, ok)
	assert.True(t, start.Equal(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)))

	assert.False(t, patch.TravelTimeSec.Present(), "null is absent")
	assert.False(t, patch.HandleTimeSec.Present(), "omitted is absent")

	length, ok := patch.PathLengthCells.Get()
	assert.True(t, ok, "zero is a value")
	assert.Equal(t, 0, length)

	assert.True(t, NonEmpty(patch.Result))
	assert.True(t, patch.FailReason.Present())
	assert.False(t, NonEmpty(patch.FailReason), "empty string is absent")
	assert.False(t, patch.Empty())
}

func TestJobResultPatchEmpty(t *testing.T) {
	var patch JobResultPatch
	require.NoError(t, json.Unmarshal([]byte(`{"result":"","robotName":null}`), &patch))
	assert.True(t, patch.Empty())
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var patch JobResultPatch
	assert.Error(t, json.Unmarshal([]byte(`{"pathLengthCells":"far"}`), &patch))
	assert.Error(t, json.Unmarshal([]byte(`{"startTs":"yesterday"}`), &patch))
	assert.Error(t, json.Unmarshal([]byte(`{"endTs":42}`), &patch))
}

func TestOptionalTimestampWithoutOffsetIsUTC(t *testing.T) {
	cases := map[string]time.Time{
		`"2025-01-01T00:00:00"`:            time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		`"2025-01-01T08:15:30.250"`:        time.Date(2025, 1, 1, 8, 15, 30, 250_000_000, time.UTC),
		`"2025-01-01 08:15:30"`:            time.Date(2025, 1, 1, 8, 15, 30, 0, time.UTC),
		`"2025-01-01T10:00:00+02:00"`:      time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		`"2025-01-01T08:00:00.000000001Z"`: time.Date(2025, 1, 1, 8, 0, 0, 1, time.UTC),
	}
	for raw, want := range cases {
		var patch JobResultPatch
		require.NoError(t, json.Unmarshal([]byte(`{"startTs":`+raw+`}`), &patch), raw)
		got, ok := patch.StartTs.Get()
		require.True(t, ok, raw)
		assert.True(t, got.Equal(want), "%s parsed as %s", raw, got)
	}
}

func TestNewPageRoundsUp(t *testing.T) {
	assert.Equal(t, int64(3), NewPage(1, 20, 41).TotalPages)
	assert.Equal(t, int64(2), NewPage(1, 20, 40).TotalPages)
	assert.Equal(t, int64(0), NewPage(1, 20, 0).TotalPages)
}
