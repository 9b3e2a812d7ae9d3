package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicForDerivesFromEventNamePrefix(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "rental.events.v1", w.topicFor("rental.paid"))
	assert.Equal(t, "invoice.events.v1", w.topicFor("invoice.issued"))
	assert.Equal(t, "payment.events.v1", w.topicFor("payment.settled"))
	assert.Equal(t, "heartbeat.events.v1", w.topicFor("heartbeat"))
}

func TestTopicForAppliesPrefix(t *testing.T) {
	w := &Worker{TopicPrefix: "staging."}
	assert.Equal(t, "staging.rental.events.v1", w.topicFor("rental.accepted"))
}

func TestFormatPayloadWrapsCloudEventsEnvelope(t *testing.T) {
	w := &Worker{Source: "app://gearshare-test"}
	occurred := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	doc := &EventDocument{
		ID:         "evt-1",
		Name:       "rental.paid",
		Payload:    []byte(`{"rental_id":"rent-1"}`),
		OccurredAt: occurred,
		Aggregate:  "rent-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}

	payload, headers, err := w.formatPayload(doc)
	require.NoError(t, err)
	assert.Equal(t, "application/cloudevents+json", headers["content-type"])
	assert.Equal(t, "00-abc-def-01", headers["traceparent"])

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(payload, &envelope))
	assert.Equal(t, "1.0", envelope["specversion"])
	assert.Equal(t, "rental.paid.v1", envelope["type"])
	assert.Equal(t, "app://gearshare-test", envelope["source"])
	assert.Equal(t, "00-abc-def-01", envelope["traceparent"])
	assert.NotEmpty(t, envelope["id"])

	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rent-1", data["rental_id"])
}

func TestFormatPayloadRejectsNonObjectPayloads(t *testing.T) {
	w := &Worker{}
	doc := &EventDocument{ID: "evt-1", Name: "rental.paid", Payload: []byte(`"flat"`)}
	_, _, err := w.formatPayload(doc)
	assert.Error(t, err)
}

func TestNextRetryFollowsBackoffLadder(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}}
	now := time.Now()
	assert.WithinDuration(t, now.Add(time.Second), w.nextRetry(0), time.Second)
	assert.WithinDuration(t, now.Add(5*time.Second), w.nextRetry(1), time.Second)
	assert.WithinDuration(t, now.Add(30*time.Second), w.nextRetry(2), time.Second)
	// Past the ladder the last step repeats.
	assert.WithinDuration(t, now.Add(30*time.Second), w.nextRetry(9), time.Second)
}
