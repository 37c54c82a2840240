package nats

import (
	"testing"
	"time"

	"ai-recipe-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTripKeepsTypeAndTime(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	data, err := encode(events.New(events.SubscriptionActivated, at, map[string]interface{}{"user_id": "u-1"}))
	require.NoError(t, err)

	got, err := decode(Subject(events.SubscriptionActivated), data)
	require.NoError(t, err)
	assert.Equal(t, events.SubscriptionActivated, got.EventType())
	assert.True(t, at.Equal(got.Timestamp()))
	assert.Equal(t, "u-1", events.StringField(got, "user_id"))
}

func TestDecodeFallsBackToSubject(t *testing.T) {
	got, err := decode("events.SUBSCRIPTION_CANCELLED", []byte(`{"data":{"user_id":"u-2"}}`))
	require.NoError(t, err)
	assert.Equal(t, events.SubscriptionCancelled, got.EventType())
	assert.False(t, got.Timestamp().IsZero())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decode("events.X", []byte("not json"))
	assert.Error(t, err)
}
