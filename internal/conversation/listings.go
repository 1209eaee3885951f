package conversation

import (
	"fmt"
	"sort"
	"time"

	"github.com/chirostrong/booking-bot/internal/slots"
)

// Choice is one selectable option sent back to the user.
type Choice struct {
	Label   string
	Payload string
}

const maxMonthChoices = 3

// monthChoices lists the distinct months with at least one free slot,
// ascending, capped at three.
func monthChoices(free []slots.Slot) []Choice {
	seen := make(map[string]time.Time)
	for _, s := range free {
		ym := s.Date.Format("2006-01")
		if _, ok := seen[ym]; !ok {
			seen[ym] = s.Date
		}
	}
	keys := make([]string, 0, len(seen))
	for ym := range seen {
		keys = append(keys, ym)
	}
	sort.Strings(keys)
	if len(keys) > maxMonthChoices {
		keys = keys[:maxMonthChoices]
	}
	out := make([]Choice, 0, len(keys))
	for _, ym := range keys {
		out = append(out, Choice{
			Label:   seen[ym].Format("January 2006"),
			Payload: "month:" + ym,
		})
	}
	return out
}

// weekChoices lists the Monday-start weeks of the month that still have a
// free slot, ascending.
func weekChoices(free []slots.Slot, month string) []Choice {
	seen := make(map[string]time.Time)
	for _, s := range free {
		if s.Date.Format("2006-01") != month {
			continue
		}
		start := weekStartOf(s.Date)
		seen[start.Format("2006-01-02")] = start
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Choice, 0, len(keys))
	for _, k := range keys {
		start := seen[k]
		end := start.AddDate(0, 0, 6)
		out = append(out, Choice{
			Label:   fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2")),
			Payload: "week:" + k,
		})
	}
	return out
}

// dayChoices lists the days of the week that still have a free slot, in
// calendar order.
func dayChoices(free []slots.Slot, weekStart string) []Choice {
	start, err := time.Parse("2006-01-02", weekStart)
	if err != nil {
		return nil
	}
	var out []Choice
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		iso := d.Format("2006-01-02")
		for _, s := range free {
			if s.DateISO() == iso {
				out = append(out, Choice{
					Label:   d.Format("Monday, Jan 2"),
					Payload: "day:" + iso,
				})
				break
			}
		}
	}
	return out
}

// timeChoices lists the free times on the given day, ascending.
func timeChoices(free []slots.Slot, day string) []Choice {
	var daySlots []slots.Slot
	for _, s := range free {
		if s.DateISO() == day {
			daySlots = append(daySlots, s)
		}
	}
	sort.Slice(daySlots, func(i, j int) bool { return daySlots[i].Time < daySlots[j].Time })
	out := make([]Choice, 0, len(daySlots))
	for _, s := range daySlots {
		out = append(out, Choice{Label: s.Time, Payload: "slot:" + s.ID.String()})
	}
	return out
}

// weekStartOf returns the Monday of the week containing d.
func weekStartOf(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
