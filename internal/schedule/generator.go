package schedule

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"conference-schedule-backend/internal/model"
)

const statusAccepted = "accepted"

// AssignSubmissions deterministically maps accepted submissions onto capacity
// units. Submissions are filtered to accepted status (case-insensitive) and
// sorted by id with ordinary lexical comparison; that sort, not insertion
// order, makes the assignment reproducible across retries.
//
// If the accepted count exceeds the unit count the whole run fails with
// unsatisfiable_constraints and no partial assignment is produced. Zero
// accepted submissions is a valid success with an empty item list.
func AssignSubmissions(submissions []model.Submission, units []CapacityUnit) ([]model.ScheduleItem, error) {
	var accepted []model.Submission
	for _, sub := range submissions {
		if strings.ToLower(sub.Status) == statusAccepted {
			accepted = append(accepted, sub)
		}
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].ID < accepted[j].ID })

	if len(accepted) > len(units) {
		return nil, newError(CodeUnsatisfiableConstraints)
	}

	items := make([]model.ScheduleItem, 0, len(accepted))
	for i, sub := range accepted {
		items = append(items, model.ScheduleItem{
			ID:            uuid.NewString(),
			Position:      i,
			RoomID:        units[i].RoomID,
			TimeSlotID:    units[i].SlotID,
			SubmissionIDs: []string{sub.ID},
		})
	}
	return items, nil
}
