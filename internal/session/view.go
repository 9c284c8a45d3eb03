package session

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/javiortega/roomboard/internal/models"
)

// Category filters reminders by due date relative to "now".
type Category string

const (
	CategoryAll     Category = "all"
	CategoryActive  Category = "active"
	CategoryExpired Category = "expired"
	CategoryToday   Category = "today"
	CategoryWeek    Category = "week"
)

// SortKey selects the comparison used to order the filtered list.
type SortKey string

const (
	SortCreated  SortKey = "created"
	SortDueDate  SortKey = "due_date"
	SortTitle    SortKey = "title"
	SortPriority SortKey = "priority"
)

// SortOrder is the direction applied uniformly after the base comparison.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Query holds the user-selected filter, search and sort state. All filters
// are independent and combine with AND semantics. The zero value matches
// everything, sorted by creation time descending.
type Query struct {
	Search   string
	Category Category
	Priority string // a priority value, or "all"/"" for no filter
	Assignee string // a person id, or "" for no filter
	Tag      string // a tag id, or "" for no filter
	SortBy   SortKey
	Order    SortOrder
}

// View is the derived output rendered to the user.
//
// Active is the filtered and sorted list restricted to non-expired
// reminders. Expired is computed from the full unfiltered set: the expired
// panel always shows everything overdue no matter what the user is
// currently searching or filtering for. Assignees is the distinct list of
// assignee identities across the unfiltered set, for populating the filter
// dropdown.
type View struct {
	Active    []*models.Reminder `json:"active"`
	Expired   []*models.Reminder `json:"expired"`
	Assignees []string           `json:"assignees"`
}

// BuildView derives the rendered lists from the raw reminder set. It is a
// pure function of its inputs and mutates nothing; names maps person ids to
// display names for search matching and may be nil.
func BuildView(reminders []*models.Reminder, names map[string]string, q Query, now time.Time) View {
	term := strings.ToLower(strings.TrimSpace(q.Search))

	filtered := make([]*models.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if matchesQuery(r, names, term, q, now) {
			filtered = append(filtered, r)
		}
	}
	sortReminders(filtered, q)

	view := View{Active: make([]*models.Reminder, 0, len(filtered))}
	for _, r := range filtered {
		if !r.IsExpired(now) {
			view.Active = append(view.Active, r)
		}
	}
	for _, r := range reminders {
		if r.IsExpired(now) {
			view.Expired = append(view.Expired, r)
		}
	}
	view.Assignees = collectAssignees(reminders)
	return view
}

func matchesQuery(r *models.Reminder, names map[string]string, term string, q Query, now time.Time) bool {
	if term != "" && !matchesSearch(r, names, term) {
		return false
	}
	if q.Priority != "" && q.Priority != "all" && string(r.Priority) != q.Priority {
		return false
	}
	if q.Assignee != "" && !hasAssignee(r, q.Assignee) {
		return false
	}
	if q.Tag != "" && !r.HasTag(q.Tag) {
		return false
	}
	switch q.Category {
	case CategoryActive:
		return r.DueDate == nil || !r.DueDate.Before(now)
	case CategoryExpired:
		return r.IsExpired(now)
	case CategoryToday:
		return r.DueDate != nil && sameDay(*r.DueDate, now)
	case CategoryWeek:
		return r.DueDate != nil && !r.DueDate.Before(now) &&
			!r.DueDate.After(now.Add(7*24*time.Hour))
	default:
		return true
	}
}

// matchesSearch checks the term as a case-insensitive substring of the
// title, the description and any assignee's display name.
func matchesSearch(r *models.Reminder, names map[string]string, term string) bool {
	if strings.Contains(strings.ToLower(r.Title), term) ||
		strings.Contains(strings.ToLower(r.Description), term) {
		return true
	}
	for _, id := range r.Assignees {
		name := names[id]
		if name == "" {
			name = id
		}
		if strings.Contains(strings.ToLower(name), term) {
			return true
		}
	}
	return false
}

func hasAssignee(r *models.Reminder, personID string) bool {
	for _, id := range r.Assignees {
		if id == personID {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func sortReminders(reminders []*models.Reminder, q Query) {
	dir := -1 // newest first by default, matching OrderDesc
	if q.Order == OrderAsc {
		dir = 1
	}
	var collator *collate.Collator
	if q.SortBy == SortTitle {
		collator = collate.New(language.Und)
	}
	sort.SliceStable(reminders, func(i, j int) bool {
		return compareReminders(reminders[i], reminders[j], q.SortBy, collator)*dir < 0
	})
}

func compareReminders(a, b *models.Reminder, key SortKey, collator *collate.Collator) int {
	switch key {
	case SortTitle:
		return collator.CompareString(a.Title, b.Title)
	case SortDueDate:
		// A missing due date sorts as time zero, i.e. earliest. Undated
		// reminders therefore come before any dated one ascending.
		return compareInt64(dueUnix(a), dueUnix(b))
	case SortPriority:
		return a.Priority.Weight() - b.Priority.Weight()
	default:
		return compareInt64(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	}
}

func dueUnix(r *models.Reminder) int64 {
	if r.DueDate == nil {
		return 0
	}
	return r.DueDate.UnixMilli()
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// collectAssignees gathers the unique assignee identities across the whole
// set, sorted lexicographically.
func collectAssignees(reminders []*models.Reminder) []string {
	seen := make(map[string]struct{})
	var assignees []string
	for _, r := range reminders {
		for _, id := range r.Assignees {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				assignees = append(assignees, id)
			}
		}
	}
	sort.Strings(assignees)
	return assignees
}
