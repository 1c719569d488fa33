package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentStatus_TransitionTable(t *testing.T) {
	all := []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusConfirmed,
		AppointmentStatusCompleted,
		AppointmentStatusCancelled,
	}
	allowed := map[[2]AppointmentStatus]bool{
		{AppointmentStatusPending, AppointmentStatusConfirmed}:   true,
		{AppointmentStatusConfirmed, AppointmentStatusCompleted}: true,
		{AppointmentStatusPending, AppointmentStatusCancelled}:   true,
		{AppointmentStatusConfirmed, AppointmentStatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]AppointmentStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestAppointmentStatus_Valid(t *testing.T) {
	assert.True(t, AppointmentStatusPending.Valid())
	assert.False(t, AppointmentStatus("scheduled").Valid())
	assert.False(t, AppointmentStatus("").Valid())
	assert.False(t, AppointmentStatus("scheduled").CanTransitionTo(AppointmentStatusPending))
}

func TestAppointmentStatus_Terminal(t *testing.T) {
	assert.True(t, AppointmentStatusCompleted.IsTerminal())
	assert.True(t, AppointmentStatusCancelled.IsTerminal())
	assert.False(t, AppointmentStatusPending.IsTerminal())
	assert.False(t, AppointmentStatus("bogus").IsTerminal())

	next := AppointmentStatusPending.NextStatuses()
	next[0] = AppointmentStatusCompleted
	assert.True(t, AppointmentStatusPending.CanTransitionTo(AppointmentStatusConfirmed), "NextStatuses must return a copy")
}

func TestStatusFilter_Matches(t *testing.T) {
	apt := &Appointment{Status: AppointmentStatusPending}

	assert.True(t, StatusFilterAll.Matches(apt))
	assert.True(t, StatusFilterPending.Matches(apt))
	assert.False(t, StatusFilterConfirmed.Matches(apt))
	assert.False(t, StatusFilter("cancelled").Valid())
}

func TestCatalog(t *testing.T) {
	assert.Len(t, Services(), 6)
	svc, ok := LookupService("Root Canal")
	assert.True(t, ok)
	assert.Equal(t, 90, svc.Duration)
	assert.Equal(t, 800, svc.Price)

	_, ok = LookupService("Braces")
	assert.False(t, ok)

	assert.Len(t, TimeSlots(), 9)
	assert.True(t, IsTimeSlot("01:00 PM"))
	assert.False(t, IsTimeSlot("12:00 PM"))
}
