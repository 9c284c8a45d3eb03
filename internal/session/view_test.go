package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javiortega/roomboard/internal/models"
	"github.com/javiortega/roomboard/internal/session"
)

var viewNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func reminder(id, title string, opts ...func(*models.Reminder)) *models.Reminder {
	r := &models.Reminder{
		ID:        id,
		Title:     title,
		Priority:  models.PriorityMedium,
		CreatedAt: viewNow.Add(-time.Hour),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func withDue(due time.Time) func(*models.Reminder) {
	return func(r *models.Reminder) { r.DueDate = &due }
}

func withPriority(p models.Priority) func(*models.Reminder) {
	return func(r *models.Reminder) { r.Priority = p }
}

func withCreated(at time.Time) func(*models.Reminder) {
	return func(r *models.Reminder) { r.CreatedAt = at }
}

func titles(reminders []*models.Reminder) []string {
	out := make([]string, len(reminders))
	for i, r := range reminders {
		out[i] = r.Title
	}
	return out
}

func TestBuildViewSearchIsCaseInsensitive(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "Water the PLANTS"),
		reminder("2", "Buy milk"),
		reminder("3", "Trim hedges", func(r *models.Reminder) { r.Description = "also water them" }),
	}

	view := session.BuildView(reminders, nil, session.Query{Search: "  water "}, viewNow)
	assert.ElementsMatch(t, []string{"Water the PLANTS", "Trim hedges"}, titles(view.Active))
}

func TestBuildViewSearchMatchesAssigneeNames(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "Report", func(r *models.Reminder) { r.Assignees = []string{"p1"} }),
		reminder("2", "Slides", func(r *models.Reminder) { r.Assignees = []string{"p2"} }),
	}
	names := map[string]string{"p1": "Alice Romero", "p2": "Bo Chen"}

	view := session.BuildView(reminders, names, session.Query{Search: "romero"}, viewNow)
	assert.Equal(t, []string{"Report"}, titles(view.Active))
}

func TestBuildViewFiltersCombineWithAnd(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "Match", withPriority(models.PriorityHigh),
			func(r *models.Reminder) { r.Assignees = []string{"p1"} }),
		reminder("2", "Wrong priority",
			func(r *models.Reminder) { r.Assignees = []string{"p1"} }),
		reminder("3", "Wrong assignee", withPriority(models.PriorityHigh)),
	}

	view := session.BuildView(reminders, nil,
		session.Query{Priority: "high", Assignee: "p1"}, viewNow)
	assert.Equal(t, []string{"Match"}, titles(view.Active))
}

func TestBuildViewPriorityAllMatchesEverything(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "A", withPriority(models.PriorityLow)),
		reminder("2", "B", withPriority(models.PriorityUrgent)),
	}

	view := session.BuildView(reminders, nil, session.Query{Priority: "all"}, viewNow)
	assert.Len(t, view.Active, 2)
}

func TestBuildViewCategoryToday(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "Later today", withDue(viewNow.Add(3*time.Hour))),
		reminder("2", "Tomorrow", withDue(viewNow.Add(26*time.Hour))),
		reminder("3", "Undated"),
	}

	view := session.BuildView(reminders, nil, session.Query{Category: session.CategoryToday}, viewNow)
	assert.Equal(t, []string{"Later today"}, titles(view.Active))
}

func TestBuildViewCategoryWeek(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "In three days", withDue(viewNow.Add(72*time.Hour))),
		reminder("2", "In two weeks", withDue(viewNow.Add(14*24*time.Hour))),
		reminder("3", "Yesterday", withDue(viewNow.Add(-24*time.Hour))),
	}

	view := session.BuildView(reminders, nil, session.Query{Category: session.CategoryWeek}, viewNow)
	assert.Equal(t, []string{"In three days"}, titles(view.Active))
}

// The expired panel always reflects the full set: filters and search apply
// to the active list only.
func TestBuildViewExpiredIgnoresFilters(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "Overdue report", withDue(viewNow.Add(-time.Hour)), withPriority(models.PriorityLow)),
		reminder("2", "Overdue chores", withDue(viewNow.Add(-2*time.Hour)), withPriority(models.PriorityHigh)),
		reminder("3", "Future", withDue(viewNow.Add(time.Hour)), withPriority(models.PriorityHigh)),
	}

	view := session.BuildView(reminders, nil,
		session.Query{Search: "report", Priority: "high"}, viewNow)

	assert.Empty(t, view.Active, "no active reminder matches both filters")
	assert.ElementsMatch(t, []string{"Overdue report", "Overdue chores"}, titles(view.Expired))
}

func TestBuildViewSortByDueDateNilSortsAsZero(t *testing.T) {
	far := time.Date(2999, 1, 1, 0, 0, 0, 0, time.UTC)
	reminders := []*models.Reminder{
		reminder("1", "Dated far", withDue(far)),
		reminder("2", "Undated"),
		reminder("3", "Dated soon", withDue(viewNow.Add(time.Hour))),
	}

	view := session.BuildView(reminders, nil,
		session.Query{SortBy: session.SortDueDate, Order: session.OrderAsc}, viewNow)
	assert.Equal(t, []string{"Undated", "Dated soon", "Dated far"}, titles(view.Active),
		"a missing due date sorts as time zero")
}

func TestBuildViewSortByPriorityDesc(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "low", withPriority(models.PriorityLow)),
		reminder("2", "urgent", withPriority(models.PriorityUrgent)),
		reminder("3", "mystery", withPriority("mystery")),
		reminder("4", "high", withPriority(models.PriorityHigh)),
	}

	view := session.BuildView(reminders, nil,
		session.Query{SortBy: session.SortPriority, Order: session.OrderDesc}, viewNow)
	assert.Equal(t, []string{"urgent", "high", "mystery", "low"}, titles(view.Active),
		"unknown priorities slot in as medium")
}

func TestBuildViewSortByTitle(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "banana"),
		reminder("2", "Apple"),
		reminder("3", "cherry"),
	}

	view := session.BuildView(reminders, nil,
		session.Query{SortBy: session.SortTitle, Order: session.OrderAsc}, viewNow)
	assert.Equal(t, []string{"Apple", "banana", "cherry"}, titles(view.Active))
}

func TestBuildViewDefaultSortNewestFirst(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "oldest", withCreated(viewNow.Add(-3*time.Hour))),
		reminder("2", "newest", withCreated(viewNow.Add(-time.Hour))),
		reminder("3", "middle", withCreated(viewNow.Add(-2*time.Hour))),
	}

	view := session.BuildView(reminders, nil, session.Query{}, viewNow)
	assert.Equal(t, []string{"newest", "middle", "oldest"}, titles(view.Active))
}

func TestBuildViewCollectsAssignees(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "A", func(r *models.Reminder) { r.Assignees = []string{"p2", "p1"} }),
		reminder("2", "B", func(r *models.Reminder) { r.Assignees = []string{"p1", ""} }),
	}

	view := session.BuildView(reminders, nil, session.Query{}, viewNow)
	assert.Equal(t, []string{"p1", "p2"}, view.Assignees, "unique, sorted, empties dropped")
}

func TestBuildViewDoesNotMutateInput(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "b"),
		reminder("2", "a"),
	}

	_ = session.BuildView(reminders, nil,
		session.Query{SortBy: session.SortTitle, Order: session.OrderAsc}, viewNow)

	require.Equal(t, "b", reminders[0].Title, "input order is preserved")
	require.Equal(t, "a", reminders[1].Title)
}

func TestBuildViewTagFilter(t *testing.T) {
	reminders := []*models.Reminder{
		reminder("1", "Tagged", func(r *models.Reminder) { r.Tags = []models.Tag{{ID: "t1"}} }),
		reminder("2", "Untagged"),
	}

	view := session.BuildView(reminders, nil, session.Query{Tag: "t1"}, viewNow)
	assert.Equal(t, []string{"Tagged"}, titles(view.Active))
}
