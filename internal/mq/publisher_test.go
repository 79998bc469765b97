package mq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeStampsMetadata(t *testing.T) {
	payload := map[string]any{"run_id": 7}
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("KST", 9*3600))

	body, err := Envelope(RunCreated, payload, now)
	require.NoError(t, err)

	var event map[string]any
	require.NoError(t, json.Unmarshal(body, &event))
	assert.Equal(t, RunCreated, event["routing_key"])
	assert.Equal(t, "2025-01-01T18:04:05Z", event["ts_utc"])
	assert.EqualValues(t, 7, event["run_id"])
	_, err = uuid.Parse(event["event_id"].(string))
	assert.NoError(t, err)

	assert.Len(t, payload, 1, "caller payload must not be mutated")
}

func TestEnvelopeRejectsUnencodablePayload(t *testing.T) {
	_, err := Envelope(JobsCreated, map[string]any{"bad": make(chan int)}, time.Now())
	assert.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	var n Noop
	assert.NoError(t, n.Publish(LayoutCreated, nil))
	assert.NoError(t, n.Close())
}
