package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/BradenHooton/acctlock/internal/models"
)

const dateLayout = "2006-01-02"

// ActivityStore persists per-account activity histories
type ActivityStore interface {
	GetActivity(ctx context.Context, userID string) ([]models.ActivityEntry, error)
	SaveActivity(ctx context.Context, userID string, entries []models.ActivityEntry) error
	ListActivity(ctx context.Context) ([]models.AccountActivity, error)
}

// DisplayNameResolver maps account ids to display names
type DisplayNameResolver interface {
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
}

// ActivityLog records lock and unlock events per account and answers
// cross-account queries over them.
type ActivityLog struct {
	store    ActivityStore
	names    DisplayNameResolver
	location *time.Location
	pageSize int
	now      func() time.Time
	logger   *slog.Logger
}

// NewActivityLog creates an ActivityLog. Query dates are interpreted in loc.
func NewActivityLog(store ActivityStore, names DisplayNameResolver, loc *time.Location, pageSize int, logger *slog.Logger) *ActivityLog {
	if loc == nil {
		loc = time.UTC
	}
	if pageSize < 1 || pageSize > models.MaxActivityPageSize {
		pageSize = models.DefaultActivityPageSize
	}
	return &ActivityLog{
		store:    store,
		names:    names,
		location: loc,
		pageSize: pageSize,
		now:      time.Now,
		logger:   logger,
	}
}

// Append prepends an entry to the account history, evicting the oldest
// entries beyond MaxActivityEntries.
func (l *ActivityLog) Append(ctx context.Context, userID, action, actorID string) error {
	entries, err := l.store.GetActivity(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to read activity: %w", err)
	}

	entry := models.ActivityEntry{
		Action:      action,
		PerformedBy: actorID,
		Timestamp:   l.now().UTC().Truncate(time.Second),
	}

	updated := make([]models.ActivityEntry, 0, min(len(entries)+1, models.MaxActivityEntries))
	updated = append(updated, entry)
	updated = append(updated, entries...)
	if len(updated) > models.MaxActivityEntries {
		updated = updated[:models.MaxActivityEntries]
	}

	if err := l.store.SaveActivity(ctx, userID, updated); err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	return nil
}

// History returns one account's entries, newest first.
func (l *ActivityLog) History(ctx context.Context, userID string) ([]models.ActivityEntry, error) {
	entries, err := l.store.GetActivity(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	if entries == nil {
		entries = []models.ActivityEntry{}
	}
	return entries, nil
}

// dateRange is an inclusive [from, to] window; zero bounds are open.
type dateRange struct {
	from, to time.Time
}

func (r dateRange) contains(t time.Time) bool {
	if !r.from.IsZero() && t.Before(r.from) {
		return false
	}
	if !r.to.IsZero() && t.After(r.to) {
		return false
	}
	return true
}

func (l *ActivityLog) parseRange(filter models.ActivityFilter) (dateRange, error) {
	var r dateRange

	if filter.DateFrom != "" {
		from, err := time.ParseInLocation(dateLayout, filter.DateFrom, l.location)
		if err != nil {
			return r, fmt.Errorf("%w: invalid date_from %q", models.ErrBadRequest, filter.DateFrom)
		}
		r.from = from
	}

	if filter.DateTo != "" {
		to, err := time.ParseInLocation(dateLayout, filter.DateTo, l.location)
		if err != nil {
			return r, fmt.Errorf("%w: invalid date_to %q", models.ErrBadRequest, filter.DateTo)
		}
		// through 23:59:59 of that day
		r.to = to.AddDate(0, 0, 1).Add(-time.Second)
	}

	if !r.from.IsZero() && !r.to.IsZero() && r.from.After(r.to) {
		return r, fmt.Errorf("%w: date_from is after date_to", models.ErrBadRequest)
	}
	return r, nil
}

func (l *ActivityLog) normalize(q models.ActivityQuery) (models.ActivityQuery, error) {
	switch q.Sort.Field {
	case "":
		q.Sort.Field = models.ActivitySortTimestamp
	case models.ActivitySortTimestamp, models.ActivitySortAccount, models.ActivitySortAction, models.ActivitySortActor:
	default:
		return q, fmt.Errorf("%w: unknown sort field %q", models.ErrBadRequest, q.Sort.Field)
	}

	switch strings.ToLower(q.Sort.Direction) {
	case "":
		q.Sort.Direction = models.SortDesc
	case models.SortAsc, models.SortDesc:
		q.Sort.Direction = strings.ToLower(q.Sort.Direction)
	default:
		return q, fmt.Errorf("%w: unknown sort direction %q", models.ErrBadRequest, q.Sort.Direction)
	}

	switch q.Filter.ActionKind {
	case "", models.ActionKindLocked, models.ActionKindUnlocked:
	default:
		return q, fmt.Errorf("%w: unknown action kind %q", models.ErrBadRequest, q.Filter.ActionKind)
	}

	if q.Page.Number < 1 {
		q.Page.Number = 1
	}
	if q.Page.Size < 1 {
		q.Page.Size = l.pageSize
	}
	q.Page.Size = min(q.Page.Size, models.MaxActivityPageSize)

	return q, nil
}

func matches(filter models.ActivityFilter, window dateRange, rec models.ActivityRecord) bool {
	if filter.ActionKind != "" && rec.Kind != filter.ActionKind {
		return false
	}
	if filter.UserID != "" && rec.UserID != filter.UserID {
		return false
	}
	if filter.Actor != "" && rec.PerformedBy != filter.Actor {
		return false
	}
	return window.contains(rec.Timestamp)
}

func compareRecords(field string) func(a, b models.ActivityRecord) int {
	switch field {
	case models.ActivitySortAccount:
		return func(a, b models.ActivityRecord) int {
			return cmp.Compare(strings.ToLower(a.UserName), strings.ToLower(b.UserName))
		}
	case models.ActivitySortAction:
		return func(a, b models.ActivityRecord) int { return cmp.Compare(a.Action, b.Action) }
	case models.ActivitySortActor:
		return func(a, b models.ActivityRecord) int {
			return cmp.Compare(strings.ToLower(a.PerformedName), strings.ToLower(b.PerformedName))
		}
	default:
		return func(a, b models.ActivityRecord) int { return a.Timestamp.Compare(b.Timestamp) }
	}
}

// QueryAll aggregates the histories of all accounts, filters, sorts and
// pages them. Filters combine as a conjunction.
func (l *ActivityLog) QueryAll(ctx context.Context, q models.ActivityQuery) (*models.ActivityPage, error) {
	q, err := l.normalize(q)
	if err != nil {
		return nil, err
	}

	window, err := l.parseRange(q.Filter)
	if err != nil {
		return nil, err
	}

	accounts, err := l.store.ListActivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	records := make([]models.ActivityRecord, 0)
	for _, account := range accounts {
		for _, entry := range account.Entries {
			rec := models.ActivityRecord{
				UserID:      account.UserID,
				Action:      entry.Action,
				Kind:        models.KindOf(entry.Action),
				PerformedBy: entry.PerformedBy,
				Timestamp:   entry.Timestamp,
			}
			if matches(q.Filter, window, rec) {
				records = append(records, rec)
			}
		}
	}

	if err := l.resolveNames(ctx, records); err != nil {
		return nil, err
	}

	compare := compareRecords(q.Sort.Field)
	if q.Sort.Direction == models.SortDesc {
		asc := compare
		compare = func(a, b models.ActivityRecord) int { return asc(b, a) }
	}
	slices.SortStableFunc(records, compare)

	l.logger.Debug("activity query",
		slog.Int("matched", len(records)),
		slog.String("orderby", q.Sort.Field),
		slog.String("order", q.Sort.Direction),
	)

	page := &models.ActivityPage{
		TotalCount: len(records),
		Page:       q.Page.Number,
		PerPage:    q.Page.Size,
	}

	// compare page indexes first so a huge page number cannot overflow the offset
	pages := (len(records) + q.Page.Size - 1) / q.Page.Size
	if q.Page.Number > pages {
		page.Entries = []models.ActivityRecord{}
		return page, nil
	}
	start := (q.Page.Number - 1) * q.Page.Size
	page.Entries = records[start:min(start+q.Page.Size, len(records))]

	return page, nil
}

// resolveNames fills the display names of accounts and actors in place.
func (l *ActivityLog) resolveNames(ctx context.Context, records []models.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, rec := range records {
		for _, id := range []string{rec.UserID, rec.PerformedBy} {
			if _, ok := seen[id]; ok || id == models.SystemActor {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	names, err := l.names.DisplayNames(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to resolve display names: %w", err)
	}

	for i := range records {
		rec := &records[i]
		if name, ok := names[rec.UserID]; ok {
			rec.UserName = name
		} else {
			rec.UserName = models.UnknownActorName
		}
		switch name, ok := names[rec.PerformedBy]; {
		case rec.PerformedBy == models.SystemActor:
			rec.PerformedName = models.SystemActorName
		case ok:
			rec.PerformedName = name
		default:
			rec.PerformedName = models.UnknownActorName
		}
	}
	return nil
}
