package scoring

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/example/arabot/pkg/models"
)

// Role identifies which tracked channel a message arrived in.
type Role int

const (
	RoleNone Role = iota
	RoleFrancoWriting
	RoleArabicWriting
	RoleSpeaking
	RoleDictation
	RoleWorksheet
)

// String returns the channel role name used in audit messages.
func (r Role) String() string {
	switch r {
	case RoleFrancoWriting:
		return "franco writing"
	case RoleArabicWriting:
		return "arabic writing"
	case RoleSpeaking:
		return "speaking"
	case RoleDictation:
		return "dictation"
	case RoleWorksheet:
		return "worksheet"
	default:
		return "untracked"
	}
}

// Point values and qualifying thresholds. Lengths are counted in characters,
// not bytes, since most tracked text is Arabic.
const (
	TextPoints          = 10
	VoicePoints         = 15
	WorksheetBasePoints = 20

	MinWrittenLength         = 20
	MinWorksheetLength       = 100
	MinDictationLength       = 10
	MinSpeakingSeconds       = 5
	MinDictationVoiceSeconds = 3
)

// Message is the slice of an inbound chat message the engine inspects.
type Message struct {
	Text         string
	HasImage     bool
	VoiceSeconds int // duration of an attached voice note, 0 when absent
}

// Mutation is the engine's verdict for one message: signed numeric deltas
// applied with atomic store increments, absolute date overwrites, and
// whether the leaderboard needs a republish.
type Mutation struct {
	PointsDelta int
	StreakDelta int
	SetDates    map[string]string
	Republish   bool
}

// IsZero reports whether the mutation changes nothing.
func (m Mutation) IsZero() bool {
	return m.PointsDelta == 0 && m.StreakDelta == 0 && len(m.SetDates) == 0
}

func (m *Mutation) setDate(field, day string) {
	if m.SetDates == nil {
		m.SetDates = make(map[string]string)
	}
	m.SetDates[field] = day
}

// Evaluate applies the scoring rules for one message against the user's
// prior record. It is a pure function: the returned mutation and audit
// lines are the only outputs. "Already did X today" is an exact string
// comparison against today's date, so a record healed with a malformed or
// future date still qualifies.
func Evaluate(role Role, msg Message, rec models.UserRecord, today time.Time) (Mutation, []string) {
	day := today.Format(DayFormat)
	textLen := utf8.RuneCountInString(msg.Text)

	var m Mutation
	var audit []string

	switch role {
	case RoleFrancoWriting, RoleArabicWriting:
		if rec.LastWritingDate == day {
			audit = append(audit, fmt.Sprintf("message in the %s channel ignored, they already wrote today", role))
			break
		}
		switch {
		case textLen >= MinWrittenLength:
			m.PointsDelta += TextPoints
			m.setDate(models.FieldLastWritingDate, day)
			m.Republish = true
			audit = append(audit, fmt.Sprintf("valid message in the %s channel, points awarded: %d", role, TextPoints))
		case msg.HasImage:
			m.PointsDelta += TextPoints
			m.setDate(models.FieldLastWritingDate, day)
			m.Republish = true
			audit = append(audit, fmt.Sprintf("image in the %s channel, points awarded: %d", role, TextPoints))
		}

	case RoleSpeaking:
		if msg.VoiceSeconds <= 0 {
			break
		}
		if rec.LastSpeakingDate == day {
			audit = append(audit, "voice note in the speaking channel ignored, they already spoke today")
			break
		}
		if msg.VoiceSeconds >= MinSpeakingSeconds {
			m.PointsDelta += VoicePoints
			m.setDate(models.FieldLastSpeakingDate, day)
			m.Republish = true
			audit = append(audit, fmt.Sprintf("voice note in the speaking channel, points awarded: %d", VoicePoints))
		} else {
			audit = append(audit, fmt.Sprintf("voice note in the speaking channel was shorter than %ds", MinSpeakingSeconds))
		}

	case RoleWorksheet:
		if textLen < MinWorksheetLength {
			break
		}
		points := WorksheetPoints(rec.Streak)
		m.PointsDelta += points
		m.setDate(models.FieldLastWorksheetDate, day)
		m.Republish = true
		if MissedLastWeek(today, rec.FirstWorksheetDate) {
			// New weekly window: the streak grows and the window restarts.
			m.StreakDelta = 1
			m.setDate(models.FieldFirstWorksheetDate, day)
			audit = append(audit, fmt.Sprintf("worksheet answer, points awarded: %d, streak increased by 1", points))
		} else {
			audit = append(audit, fmt.Sprintf("worksheet answer, points awarded: %d, streak unchanged, still inside the weekly window", points))
		}

	case RoleDictation:
		// Voice and text bonuses are independent; one message can earn both.
		if msg.VoiceSeconds >= MinDictationVoiceSeconds {
			m.PointsDelta += VoicePoints
			m.Republish = true
			audit = append(audit, fmt.Sprintf("voice note of %ds in the dictation channel, points awarded: %d", msg.VoiceSeconds, VoicePoints))
		}
		if textLen >= MinDictationLength {
			m.PointsDelta += TextPoints
			m.setDate(models.FieldLastWritingDate, day)
			m.Republish = true
			audit = append(audit, fmt.Sprintf("text of %d chars in the dictation channel, points awarded: %d", textLen, TextPoints))
		}
	}

	return m, audit
}
