package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gravadigital/afisha-api/internal/apperrors"
)

func newTestEvent(state State) *Event {
	e := New(
		"Open air jazz night",
		"An evening of live jazz in the park with local bands",
		"Full description of the jazz night, lineup and schedule for the whole evening",
		uuid.New(),
		uuid.New(),
		time.Now().Add(48*time.Hour),
		55.75,
		37.61,
	)
	e.State = state
	return e
}

func TestApplyAction_Transitions(t *testing.T) {
	now := time.Now()
	farDate := now.Add(48 * time.Hour)

	tests := []struct {
		name      string
		from      State
		action    StateAction
		wantState State
		wantErr   bool
	}{
		{"publish pending", StatePending, ActionPublishEvent, StatePublished, false},
		{"publish published", StatePublished, ActionPublishEvent, StatePublished, true},
		{"publish canceled", StateCanceled, ActionPublishEvent, StateCanceled, true},
		{"reject pending", StatePending, ActionRejectEvent, StateCanceled, false},
		{"reject canceled", StateCanceled, ActionRejectEvent, StateCanceled, false},
		{"reject published", StatePublished, ActionRejectEvent, StatePublished, true},
		{"send to review canceled", StateCanceled, ActionSendToReview, StatePending, false},
		{"send to review pending", StatePending, ActionSendToReview, StatePending, true},
		{"send to review published", StatePublished, ActionSendToReview, StatePublished, true},
		{"cancel review pending", StatePending, ActionCancelReview, StateCanceled, false},
		{"cancel review published", StatePublished, ActionCancelReview, StatePublished, true},
		{"cancel review canceled", StateCanceled, ActionCancelReview, StateCanceled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEvent(tt.from)
			err := e.ApplyAction(tt.action, farDate, now)

			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, apperrors.IsConflict(err), "lifecycle violations must be conflicts")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, e.State)
		})
	}
}

func TestApplyAction_PublishSetsPublishedOn(t *testing.T) {
	now := time.Now()
	e := newTestEvent(StatePending)
	assert.Nil(t, e.PublishedOn)

	err := e.ApplyAction(ActionPublishEvent, now.Add(2*time.Hour), now)
	assert.NoError(t, err)
	assert.NotNil(t, e.PublishedOn)
	assert.Equal(t, now, e.PublishedOn.Time)
}

func TestApplyAction_PublishLeadTimeGuard(t *testing.T) {
	now := time.Now()

	e := newTestEvent(StatePending)
	err := e.ApplyAction(ActionPublishEvent, now.Add(30*time.Minute), now)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, StatePending, e.State)
	assert.Nil(t, e.PublishedOn)

	// Exactly one hour out satisfies the guard.
	e = newTestEvent(StatePending)
	err = e.ApplyAction(ActionPublishEvent, now.Add(PublishLeadTime), now)
	assert.NoError(t, err)
	assert.Equal(t, StatePublished, e.State)
}

func TestApplyAction_RejectAfterFailedPublishKeepsPublishedOnEmpty(t *testing.T) {
	now := time.Now()
	e := newTestEvent(StatePending)

	_ = e.ApplyAction(ActionPublishEvent, now.Add(10*time.Minute), now)
	err := e.ApplyAction(ActionRejectEvent, e.EventDate.Time, now)
	assert.NoError(t, err)
	assert.Equal(t, StateCanceled, e.State)
	assert.Nil(t, e.PublishedOn)
}

func TestEditable(t *testing.T) {
	assert.True(t, newTestEvent(StatePending).Editable())
	assert.True(t, newTestEvent(StateCanceled).Editable())
	assert.False(t, newTestEvent(StatePublished).Editable())
}

func TestUnlimited(t *testing.T) {
	e := newTestEvent(StatePending)
	assert.True(t, e.Unlimited())

	e.ParticipantLimit = 5
	assert.False(t, e.Unlimited())
}

func TestNewDefaults(t *testing.T) {
	e := newTestEvent(StatePending)

	assert.False(t, e.Paid)
	assert.Equal(t, 0, e.ParticipantLimit)
	assert.True(t, e.RequestModeration)
	assert.Nil(t, e.PublishedOn)
}

func TestValidate(t *testing.T) {
	e := newTestEvent(StatePending)
	assert.NoError(t, e.Validate())

	e.ParticipantLimit = -1
	err := e.Validate()
	assert.True(t, apperrors.IsValidation(err))

	e = newTestEvent(StatePending)
	e.LocationLat = 120
	assert.True(t, apperrors.IsValidation(e.Validate()))
}

func TestStateSerialization(t *testing.T) {
	data, err := StatePublished.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"PUBLISHED"`, string(data))

	var s State
	assert.NoError(t, s.UnmarshalJSON([]byte(`"CANCELED"`)))
	assert.Equal(t, StateCanceled, s)

	assert.Error(t, s.UnmarshalJSON([]byte(`"DRAFT"`)))
}

func TestActionFromString(t *testing.T) {
	action, ok := ActionFromString("PUBLISH_EVENT")
	assert.True(t, ok)
	assert.True(t, action.AdminOnly())

	action, ok = ActionFromString("CANCEL_REVIEW")
	assert.True(t, ok)
	assert.False(t, action.AdminOnly())

	_, ok = ActionFromString("ARCHIVE_EVENT")
	assert.False(t, ok)
}
