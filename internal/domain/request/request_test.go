package request

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	eventID := uuid.New()
	requesterID := uuid.New()

	r := New(eventID, requesterID, StatusPending)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, eventID, r.EventID)
	assert.Equal(t, requesterID, r.RequesterID)
	assert.Equal(t, StatusPending, r.Status)
	assert.False(t, r.Created.IsZero())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusConfirmed.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCanceled.Terminal())
}

func TestStatusModerationTarget(t *testing.T) {
	assert.True(t, StatusConfirmed.ModerationTarget())
	assert.True(t, StatusRejected.ModerationTarget())
	assert.False(t, StatusPending.ModerationTarget())
	assert.False(t, StatusCanceled.ModerationTarget())
}

func TestStatusSerialization(t *testing.T) {
	data, err := StatusConfirmed.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"CONFIRMED"`, string(data))

	var s Status
	assert.NoError(t, s.UnmarshalJSON([]byte(`"REJECTED"`)))
	assert.Equal(t, StatusRejected, s)

	assert.Error(t, s.UnmarshalJSON([]byte(`"APPROVED"`)))
}

func TestStatusScan(t *testing.T) {
	var s Status
	assert.NoError(t, s.Scan("CANCELED"))
	assert.Equal(t, StatusCanceled, s)

	assert.Error(t, s.Scan(42))
}
