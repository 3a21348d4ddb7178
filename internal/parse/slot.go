package parse

import "regexp"

// slotRe matches the generator's synthetic slot-id format:
// slot_<date>_<start>_<end>, e.g. slot_2026-09-14_09:00_09:30.
var slotRe = regexp.MustCompile(`^slot_(\d{4}-\d{2}-\d{2})_(\d{1,2}:\d{2})_(\d{1,2}:\d{2})$`)

// ParsedSlot holds the structured data parsed from a synthetic time-slot id.
type ParsedSlot struct {
	Day       string
	StartTime string
	EndTime   string
}

// SlotID builds the synthetic id for a (date, start, end) slot.
func SlotID(date, start, end string) string {
	return "slot_" + date + "_" + start + "_" + end
}

// ParseSlotID extracts day and time bounds from a synthetic slot id.
// Malformed ids degrade to all-empty fields rather than an error; the
// published view filters such entries out instead of surfacing them broken.
func ParseSlotID(id string) ParsedSlot {
	m := slotRe.FindStringSubmatch(id)
	if m == nil {
		return ParsedSlot{}
	}
	return ParsedSlot{Day: m[1], StartTime: m[2], EndTime: m[3]}
}
