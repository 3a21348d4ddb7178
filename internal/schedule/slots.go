package schedule

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"conference-schedule-backend/internal/model"
	"conference-schedule-backend/internal/parse"
)

// timeRe matches 24-hour HH:MM values.
var timeRe = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// CapacityUnit is one bookable (room, time slot) pair produced for a single
// generation run. Units are never persisted standalone.
type CapacityUnit struct {
	RoomID    string
	Date      string
	StartTime string
	EndTime   string
	SlotID    string
}

// missingParameterFields returns the name of every absent scheduling
// parameter, not just the first.
func missingParameterFields(p *model.SchedulingParameters) []string {
	if p == nil {
		return []string{"conferenceDates", "sessionLengthMinutes", "dayStart", "dayEnd", "rooms"}
	}
	var missing []string
	if len(p.Dates) == 0 {
		missing = append(missing, "conferenceDates")
	}
	if p.SessionLengthMinutes <= 0 {
		missing = append(missing, "sessionLengthMinutes")
	}
	if strings.TrimSpace(p.DayStart) == "" {
		missing = append(missing, "dayStart")
	}
	if strings.TrimSpace(p.DayEnd) == "" {
		missing = append(missing, "dayEnd")
	}
	if len(p.Rooms) == 0 {
		missing = append(missing, "rooms")
	}
	return missing
}

// parseClock converts an HH:MM string to minutes since midnight.
func parseClock(v string) (int, bool) {
	m := timeRe.FindStringSubmatch(v)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return h*60 + min, true
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// BuildCapacityUnits expands scheduling parameters into the deterministic
// ordered set of capacity units: dates ascending, then session-length
// intervals earliest-first within the daily window, then rooms ascending.
// That fixed nested order is what makes assignment reproducible.
func BuildCapacityUnits(p *model.SchedulingParameters) ([]CapacityUnit, error) {
	if missing := missingParameterFields(p); len(missing) > 0 {
		return nil, &Error{Code: CodeMissingParameters, MissingFields: missing}
	}

	start, okStart := parseClock(p.DayStart)
	end, okEnd := parseClock(p.DayEnd)
	if !okStart || !okEnd || end <= start {
		return nil, newError(CodeUnsatisfiableConstraints)
	}

	dates := append([]string(nil), p.Dates...)
	sort.Strings(dates)
	rooms := append([]string(nil), p.Rooms...)
	sort.Strings(rooms)

	var units []CapacityUnit
	for _, date := range dates {
		for slotStart := start; slotStart+p.SessionLengthMinutes <= end; slotStart += p.SessionLengthMinutes {
			slotEnd := slotStart + p.SessionLengthMinutes
			startStr := formatClock(slotStart)
			endStr := formatClock(slotEnd)
			for _, room := range rooms {
				units = append(units, CapacityUnit{
					RoomID:    room,
					Date:      date,
					StartTime: startStr,
					EndTime:   endStr,
					SlotID:    parse.SlotID(date, startStr, endStr),
				})
			}
		}
	}
	return units, nil
}
