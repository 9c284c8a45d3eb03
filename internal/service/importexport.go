package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/javiortega/roomboard/internal/models"
)

// ImportEntry is the ad hoc JSON shape accepted by ImportReminders. Only
// the title is required.
type ImportEntry struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     *string  `json:"due_date"`
	Progress    *float64 `json:"progress"`
}

// ImportResult reports what a bulk import did. Skipped aggregates the
// per-entry reasons for every rejected entry.
type ImportResult struct {
	Imported int
	Skipped  error
}

// ImportReminders parses a JSON array of entries, keeps the ones with a
// non-empty title, clamps progress, stamps every row with the room code and
// performs a single bulk insert. When no entry is valid, no insert request
// is issued at all. Callers should re-fetch afterwards so server-assigned
// defaults are reconciled; there is no optimistic merge for imports.
func (s *Service) ImportReminders(ctx context.Context, roomCode string, data []byte) (ImportResult, error) {
	var entries []ImportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return ImportResult{}, validationErrorf("import file is not a JSON array of reminders: %v", err)
	}

	var skipped *multierror.Error
	rows := make([]*models.Reminder, 0, len(entries))
	for i, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			skipped = multierror.Append(skipped, fmt.Errorf("entry %d: missing title", i))
			continue
		}
		reminder := &models.Reminder{
			ID:          uuid.NewString(),
			RoomCode:    roomCode,
			Title:       title,
			Description: entry.Description,
			Priority:    models.PriorityMedium,
		}
		if entry.Progress != nil {
			reminder.Progress = models.ClampProgress(int(*entry.Progress))
		}
		if entry.DueDate != nil && *entry.DueDate != "" {
			due, err := parseDueDate(*entry.DueDate)
			if err != nil {
				skipped = multierror.Append(skipped, fmt.Errorf("entry %d (%q): %w", i, title, err))
				continue
			}
			reminder.DueDate = &due
		}
		rows = append(rows, reminder)
	}

	if len(rows) == 0 {
		return ImportResult{Skipped: skipped.ErrorOrNil()}, nil
	}
	if err := s.Reminders.BulkInsert(ctx, rows); err != nil {
		return ImportResult{}, fmt.Errorf("failed to import reminders: %w", err)
	}
	s.logger.WithField("room_code", roomCode).Infof("Imported %d reminders", len(rows))
	return ImportResult{Imported: len(rows), Skipped: skipped.ErrorOrNil()}, nil
}

// parseDueDate accepts an ISO date or a full RFC 3339 timestamp.
func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("due_date %q is not an ISO date", raw)
	}
	return t, nil
}

// ExportReminders serializes the room's current reminder list to JSON.
func (s *Service) ExportReminders(ctx context.Context, roomCode string) ([]byte, error) {
	reminders, err := s.Reminders.ListByRoom(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if reminders == nil {
		reminders = []*models.Reminder{}
	}
	return json.MarshalIndent(reminders, "", "  ")
}
