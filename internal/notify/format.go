package notify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FormatDate renders a date with its weekday, e.g. "Sat 14.06.2025".
func FormatDate(t time.Time) string {
	return t.Format("Mon 02.01.2006")
}

// FormatTimeRange formats a span as "HH:MM-HH:MM".
func FormatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}

// FormatDuration renders minutes as "45 min", "2 h" or "2 h 30 min".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours, mins := minutes/60, minutes%60
	if mins == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}

// FormatPrice drops the fraction when it is zero.
func FormatPrice(price decimal.Decimal) string {
	if price.Equal(price.Truncate(0)) {
		return price.StringFixed(0)
	}
	return price.StringFixed(2)
}

// SlotReservedMessage tells the artist a slot was booked.
func SlotReservedMessage(bookingID int64, start, end time.Time, price decimal.Decimal) string {
	return fmt.Sprintf("New booking #%d\n%s, %s (%s)\nPrice: %s",
		bookingID,
		FormatDate(start),
		FormatTimeRange(start, end),
		FormatDuration(int(end.Sub(start)/time.Minute)),
		FormatPrice(price))
}

// SlotReleasedMessage tells the artist a booking freed its slot.
func SlotReleasedMessage(bookingID int64) string {
	return fmt.Sprintf("Booking #%d released its slot", bookingID)
}

// BlackoutMessage confirms a new blackout and how many slots it closed.
func BlackoutMessage(title string, start, end time.Time, flipped int64) string {
	msg := fmt.Sprintf("Blackout %q set for %s - %s", title, FormatDate(start), FormatDate(end))
	if flipped > 0 {
		msg += fmt.Sprintf("\n%d open slots closed", flipped)
	}
	return msg
}
