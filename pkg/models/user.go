package models

// DateSentinel is the far-past placeholder used for activity dates that have
// never been set. Stored dates are plain ISO calendar days (YYYY-MM-DD).
const DateSentinel = "2000-01-01"

// User document field names as stored in the document store.
const (
	FieldPoints             = "points"
	FieldStreak             = "streak"
	FieldLastWorksheetDate  = "last_worksheet_date"
	FieldFirstWorksheetDate = "first_worksheet_thisWeek_date"
	FieldLastWritingDate    = "last_writing_date"
	FieldLastSpeakingDate   = "last_speaking_date"
)

// UserRecord tracks one member's activity points and worksheet streak.
type UserRecord struct {
	ID                 string `json:"id"` // document id: the Telegram user id
	Points             int    `json:"points"`
	Streak             int    `json:"streak"`
	LastWorksheetDate  string `json:"last_worksheet_date"`
	FirstWorksheetDate string `json:"first_worksheet_thisWeek_date"`
	LastWritingDate    string `json:"last_writing_date"`
	LastSpeakingDate   string `json:"last_speaking_date"`
}

// DefaultUserFields returns the stored defaults for a fresh user document.
func DefaultUserFields() map[string]interface{} {
	return map[string]interface{}{
		FieldPoints:             0,
		FieldStreak:             0,
		FieldLastWorksheetDate:  DateSentinel,
		FieldFirstWorksheetDate: DateSentinel,
		FieldLastWritingDate:    DateSentinel,
		FieldLastSpeakingDate:   DateSentinel,
	}
}

// UserFromFields builds a record from a raw stored document. The second
// return value lists required fields that were absent, so the caller can
// heal the document with a merge write.
func UserFromFields(id string, fields map[string]interface{}) (UserRecord, []string) {
	rec := UserRecord{
		ID:                 id,
		LastWorksheetDate:  DateSentinel,
		FirstWorksheetDate: DateSentinel,
		LastWritingDate:    DateSentinel,
		LastSpeakingDate:   DateSentinel,
	}

	var missing []string

	if v, ok := fields[FieldPoints]; ok {
		rec.Points = AsInt(v)
	} else {
		missing = append(missing, FieldPoints)
	}

	if v, ok := fields[FieldStreak]; ok {
		rec.Streak = AsInt(v)
	} else {
		missing = append(missing, FieldStreak)
	}

	dates := []struct {
		key string
		dst *string
	}{
		{FieldLastWorksheetDate, &rec.LastWorksheetDate},
		{FieldFirstWorksheetDate, &rec.FirstWorksheetDate},
		{FieldLastWritingDate, &rec.LastWritingDate},
		{FieldLastSpeakingDate, &rec.LastSpeakingDate},
	}
	for _, d := range dates {
		v, ok := fields[d.key]
		if !ok {
			missing = append(missing, d.key)
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			*d.dst = s
		}
	}

	return rec, missing
}
