package model

import (
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
)

// BookingStatus is the booking workflow state.
type BookingStatus string

const (
	BookingStatusInquiry   BookingStatus = "INQUIRY"
	BookingStatusQuoted    BookingStatus = "QUOTED"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusPaid      BookingStatus = "PAID"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// HardConflictStatuses are the statuses that block a requested interval.
// COMPLETED keeps finished events out of availability.
var HardConflictStatuses = []BookingStatus{BookingStatusConfirmed, BookingStatusPaid, BookingStatusCompleted}

// Booking is owned by the booking subsystem; this service only reads it.
type Booking struct {
	ID        int64         `json:"id"`
	ArtistID  int64         `json:"artist_id"`
	EventDate time.Time     `json:"event_date"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Status    BookingStatus `json:"status"`
}

// Interval returns the booked span.
func (b *Booking) Interval() interval.Interval {
	return interval.Interval{Start: b.StartTime, End: b.EndTime}
}
