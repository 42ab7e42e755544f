package ledger

import "time"

// WeekRange returns the Monday and Friday of the business week containing
// ref. A weekend date belongs to the week that started the Monday before.
func WeekRange(ref time.Time) (monday, friday time.Time) {
	day := dateOf(ref)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	monday = day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 4)
}
