package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusNext(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		want   Status
		ok     bool
	}{
		{StatusSeekingAgent, ActionClaim, StatusOpen, true},
		{StatusSeekingAgent, ActionInvite, StatusPendingAgent, true},
		{StatusPendingAgent, ActionAcceptInvite, StatusOpen, true},
		{StatusPendingAgent, ActionRejectInvite, StatusSeekingAgent, true},
		{StatusOpen, ActionFill, StatusFilled, true},
		{StatusOpen, ActionComplete, StatusCompleted, true},
		{StatusFilled, ActionComplete, StatusCompleted, true},
		{StatusPendingAgent, ActionClaim, StatusPendingAgent, false},
		{StatusFilled, ActionFill, StatusFilled, false},
		{StatusCompleted, ActionComplete, StatusCompleted, false},
	}

	for _, tc := range cases {
		got, err := tc.from.Next(tc.action)
		if tc.ok {
			require.NoError(t, err, "%s/%s", tc.from, tc.action)
		} else {
			require.ErrorIs(t, err, ErrInvalidTransition, "%s/%s", tc.from, tc.action)
		}
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.ok, tc.from.Can(tc.action))
	}
}

func TestJobApplyLeavesStatusOnError(t *testing.T) {
	j := Job{Status: StatusCompleted}
	require.Error(t, j.Apply(ActionClaim))
	assert.Equal(t, StatusCompleted, j.Status)

	j.Status = StatusSeekingAgent
	require.NoError(t, j.Apply(ActionClaim))
	assert.Equal(t, StatusOpen, j.Status)
}

func TestCents(t *testing.T) {
	assert.Equal(t, "150.00", Cents(15000).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "-1.50", Cents(-150).String())

	assert.Equal(t, Cents(13500), DefaultWorkerPayRate(15000))
	// 90% of 0.05 is 0.045, rounded half up.
	assert.Equal(t, Cents(5), DefaultWorkerPayRate(5))
	assert.Equal(t, Cents(1), Cents(1).Percent(90))
	assert.Equal(t, Cents(15), Cents(17).Percent(90))
}

func TestCentsBounds(t *testing.T) {
	assert.True(t, Cents(1).Valid())
	assert.True(t, MaxCents.Valid())
	assert.False(t, (MaxCents + 1).Valid())
	assert.False(t, Cents(0).Valid())
	assert.False(t, Cents(-5).Valid())

	rate := DefaultWorkerPayRate(MaxCents)
	assert.Positive(t, int64(rate))
	assert.Less(t, int64(rate), int64(MaxCents))
	assert.Equal(t, MaxCents, MaxCents.Percent(100))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusFilled.Valid())
	assert.False(t, Status("CANCELLED").Valid())
}
