package schedule

import (
	"context"
	"strings"
	"time"

	"conference-schedule-backend/internal/model"
	"conference-schedule-backend/internal/parse"
)

// PublishedTimeSlot is the public view of an item's time bounds.
type PublishedTimeSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// PublishedLocation is the public view of an item's room assignment.
type PublishedLocation struct {
	Name string `json:"name"`
}

// PublishedEntry is one session in the public, filterable read model.
type PublishedEntry struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	TimeSlot PublishedTimeSlot `json:"timeSlot"`
	Location PublishedLocation `json:"location"`
	Day      string            `json:"day"`
	Session  string            `json:"session"`
}

// PublishedFilter narrows the public view by exact match on trimmed values.
type PublishedFilter struct {
	Day     string
	Session string
}

// PublishedSchedule is the public projection returned to attendees.
type PublishedSchedule struct {
	Entries     []PublishedEntry `json:"entries"`
	PublishedAt time.Time        `json:"publishedAt"`
}

// toPublishedEntries converts internal items to public entries. Internal
// identifiers never leak: room ids become location names, slot ids are
// decomposed into day and time bounds.
func toPublishedEntries(schedule *model.Schedule) []PublishedEntry {
	entries := make([]PublishedEntry, 0, len(schedule.Items))
	for _, item := range schedule.Items {
		slot := parse.ParseSlotID(item.TimeSlotID)

		title := "Scheduled session"
		if len(item.SubmissionIDs) > 0 {
			title = "Paper " + strings.Join(item.SubmissionIDs, ", ")
		}

		session := ""
		if slot.StartTime != "" && slot.EndTime != "" {
			session = slot.StartTime + " - " + slot.EndTime
		}

		entries = append(entries, PublishedEntry{
			ID:       item.ID,
			Title:    title,
			TimeSlot: PublishedTimeSlot{StartTime: slot.StartTime, EndTime: slot.EndTime},
			Location: PublishedLocation{Name: item.RoomID},
			Day:      slot.Day,
			Session:  session,
		})
	}
	return entries
}

// hasCompleteEntry reports whether an entry carries both time bounds and a
// location. Incomplete entries are filtered out rather than surfaced broken.
func hasCompleteEntry(e PublishedEntry) bool {
	return e.TimeSlot.StartTime != "" && e.TimeSlot.EndTime != "" && e.Location.Name != ""
}

// applyPublishedFilters keeps entries matching the requested day and session.
// No matches is a valid empty result, not an error.
func applyPublishedFilters(entries []PublishedEntry, filter PublishedFilter) []PublishedEntry {
	day := strings.TrimSpace(filter.Day)
	session := strings.TrimSpace(filter.Session)
	if day == "" && session == "" {
		return entries
	}

	filtered := make([]PublishedEntry, 0, len(entries))
	for _, e := range entries {
		if day != "" && e.Day != day {
			continue
		}
		if session != "" && e.Session != session {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

// GetPublishedSchedule returns the completeness-checked, filtered public view.
// A missing or unpublished schedule is not_published (non-retryable); a
// failing store read is retrieval_failed (retryable).
func (s *Service) GetPublishedSchedule(ctx context.Context, conferenceID string, filter PublishedFilter) (*PublishedSchedule, error) {
	schedule, err := s.store.GetSchedule(ctx, conferenceID)
	if err != nil {
		return nil, &Error{Code: CodeRetrievalFailed, Retryable: true}
	}
	if schedule == nil || schedule.Status != model.ScheduleStatusPublished {
		return nil, newError(CodeNotPublished)
	}

	entries := toPublishedEntries(schedule)
	complete := entries[:0]
	for _, e := range entries {
		if hasCompleteEntry(e) {
			complete = append(complete, e)
		}
	}
	entries = applyPublishedFilters(complete, filter)

	var publishedAt time.Time
	if schedule.PublishedAt != nil {
		publishedAt = *schedule.PublishedAt
	}
	return &PublishedSchedule{Entries: entries, PublishedAt: publishedAt}, nil
}
