package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/example/arabot/internal/scoring"
	"github.com/example/arabot/pkg/models"
)

// ErrNotTracked is returned for authors whose activity is not scored: the
// bot itself and the configured admins.
var ErrNotTracked = errors.New("user not tracked")

// AuditFunc delivers an audit notification. Implementations must be
// non-fatal: a missing or unreachable log channel only drops the mirror,
// never the operation.
type AuditFunc func(ctx context.Context, msg string)

// UserRepository handles document store operations for user activity
// records. Records self-heal on read: missing fields are backfilled to
// defaults with a merge write before the record is returned.
type UserRepository struct {
	store    Store
	audit    AuditFunc
	excluded func(userID int64) bool
}

// NewUserRepository creates a new repository instance. excluded decides
// which authors are not tracked; nil tracks everyone.
func NewUserRepository(store Store, audit AuditFunc, excluded func(userID int64) bool) *UserRepository {
	if audit == nil {
		audit = func(context.Context, string) {}
	}
	return &UserRepository{store: store, audit: audit, excluded: excluded}
}

// LoadOrCreate returns the activity record for a user, creating it with
// defaults on first contact. Excluded authors get ErrNotTracked.
func (r *UserRepository) LoadOrCreate(ctx context.Context, userID int64) (*models.UserRecord, error) {
	if r.excluded != nil && r.excluded(userID) {
		return nil, ErrNotTracked
	}

	id := strconv.FormatInt(userID, 10)
	fields, err := r.store.Get(ctx, UsersCollection, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("failed to load user %s: %w", id, err)
		}
		defaults := models.DefaultUserFields()
		if err := r.store.Set(ctx, UsersCollection, id, defaults, false); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", id, err)
		}
		rec, _ := models.UserFromFields(id, defaults)
		return &rec, nil
	}

	rec, missing := models.UserFromFields(id, fields)
	if len(missing) > 0 {
		patch := make(map[string]interface{}, len(missing))
		defaults := models.DefaultUserFields()
		for _, key := range missing {
			patch[key] = defaults[key]
		}
		if err := r.store.Set(ctx, UsersCollection, id, patch, true); err != nil {
			return nil, fmt.Errorf("failed to heal user %s: %w", id, err)
		}
		r.audit(ctx, fmt.Sprintf("Healed user document %s, backfilled fields: %v", id, missing))
	}
	return &rec, nil
}

// ApplyMutation persists a scoring verdict. Numeric deltas use atomic store
// increments so concurrent messages from the same user cannot lose an
// update; date fields are absolute overwrites where last writer wins.
func (r *UserRepository) ApplyMutation(ctx context.Context, userID int64, m scoring.Mutation) error {
	id := strconv.FormatInt(userID, 10)

	if m.PointsDelta != 0 {
		if err := r.store.Increment(ctx, UsersCollection, id, models.FieldPoints, m.PointsDelta); err != nil {
			return fmt.Errorf("failed to add %d points to user %s: %w", m.PointsDelta, id, err)
		}
	}
	if m.StreakDelta != 0 {
		if err := r.store.Increment(ctx, UsersCollection, id, models.FieldStreak, m.StreakDelta); err != nil {
			return fmt.Errorf("failed to adjust streak for user %s: %w", id, err)
		}
	}
	if len(m.SetDates) > 0 {
		fields := make(map[string]interface{}, len(m.SetDates))
		for k, v := range m.SetDates {
			fields[k] = v
		}
		if err := r.store.Set(ctx, UsersCollection, id, fields, true); err != nil {
			return fmt.Errorf("failed to update dates for user %s: %w", id, err)
		}
	}
	return nil
}

// All returns every user record. Documents are parsed leniently here;
// healing happens on the per-user load path.
func (r *UserRepository) All(ctx context.Context) ([]models.UserRecord, error) {
	docs, err := r.store.All(ctx, UsersCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	records := make([]models.UserRecord, 0, len(docs))
	for _, doc := range docs {
		rec, _ := models.UserFromFields(doc.ID, doc.Fields)
		records = append(records, rec)
	}
	return records, nil
}

// AddPoints adjusts a user's points by a signed delta (admin operation).
func (r *UserRepository) AddPoints(ctx context.Context, userID int64, delta int) error {
	id := strconv.FormatInt(userID, 10)
	if err := r.store.Increment(ctx, UsersCollection, id, models.FieldPoints, delta); err != nil {
		return fmt.Errorf("failed to add %d points to user %s: %w", delta, id, err)
	}
	return nil
}

// SetStreak overwrites a user's streak (admin operation and daily sweep).
func (r *UserRepository) SetStreak(ctx context.Context, userID int64, streak int) error {
	id := strconv.FormatInt(userID, 10)
	fields := map[string]interface{}{models.FieldStreak: streak}
	if err := r.store.Set(ctx, UsersCollection, id, fields, true); err != nil {
		return fmt.Errorf("failed to set streak for user %s: %w", id, err)
	}
	return nil
}

// ResetDate resets one of the four activity dates back to the sentinel.
func (r *UserRepository) ResetDate(ctx context.Context, userID int64, field string) error {
	switch field {
	case models.FieldLastWorksheetDate, models.FieldFirstWorksheetDate,
		models.FieldLastWritingDate, models.FieldLastSpeakingDate:
	default:
		return fmt.Errorf("unknown date field %q", field)
	}
	id := strconv.FormatInt(userID, 10)
	fields := map[string]interface{}{field: models.DateSentinel}
	if err := r.store.Set(ctx, UsersCollection, id, fields, true); err != nil {
		return fmt.Errorf("failed to reset %s for user %s: %w", field, id, err)
	}
	return nil
}

// ResetAllPoints zeroes every user's points (monthly rollover). Each write
// targets one document; a failure on one user does not stop the rest.
func (r *UserRepository) ResetAllPoints(ctx context.Context) error {
	docs, err := r.store.All(ctx, UsersCollection)
	if err != nil {
		return fmt.Errorf("failed to list users for point reset: %w", err)
	}
	var firstErr error
	for _, doc := range docs {
		fields := map[string]interface{}{models.FieldPoints: 0}
		if err := r.store.Set(ctx, UsersCollection, doc.ID, fields, true); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to reset points for user %s: %w", doc.ID, err)
		}
	}
	return firstErr
}
