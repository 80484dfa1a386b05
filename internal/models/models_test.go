package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to FulfillmentStatus
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusRefunded, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusRefunded, true},
		{StatusShipped, StatusPending, false},
		{StatusDelivered, StatusRefunded, true},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusPending, false},
		{StatusRefunded, StatusPending, false},
		{StatusPending, StatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []FulfillmentStatus{
		StatusPending, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded,
	} {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("on-hold"))
	assert.False(t, ValidStatus(""))
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{From: StatusPending, To: StatusDelivered}
	assert.Equal(t, "invalid status transition: pending -> delivered", err.Error())
}

func TestOrderPatchEmpty(t *testing.T) {
	assert.True(t, OrderPatch{}.Empty())

	note := "leave at side door"
	assert.False(t, OrderPatch{Notes: &note}.Empty())

	shipped := StatusShipped
	assert.False(t, OrderPatch{Status: &shipped}.Empty())
}
