package models

import (
	"time"

	"github.com/jackc/pgx/v5"
)

// ExchangeStatus represents the lifecycle state of an exchange
type ExchangeStatus string

const (
	StatusPending   ExchangeStatus = "pending"
	StatusAccepted  ExchangeStatus = "accepted"
	StatusCompleted ExchangeStatus = "completed"
	StatusCancelled ExchangeStatus = "cancelled"
	StatusRejected  ExchangeStatus = "rejected"
)

// OpenStatuses are the statuses that block a second exchange for the same
// pair and skill
var OpenStatuses = []ExchangeStatus{StatusPending, StatusAccepted}

// IsValid reports whether s is a known status
func (s ExchangeStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further transitions are allowed
func (s ExchangeStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// IsOpen returns true for pending and accepted exchanges
func (s ExchangeStatus) IsOpen() bool {
	return s == StatusPending || s == StatusAccepted
}

// CanTransitionTo checks if a status transition is valid
func (s ExchangeStatus) CanTransitionTo(next ExchangeStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusAccepted || next == StatusRejected
	case StatusAccepted:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// MeetingType is how the session takes place
type MeetingType string

const (
	MeetingVirtual  MeetingType = "virtual"
	MeetingInPerson MeetingType = "in_person"
)

// Role is the side the requester takes in a new exchange
type Role string

const (
	RoleLearner Role = "learner"
	RoleMentor  Role = "mentor"
)

// Exchange is a scheduled mentoring session between a mentor and a learner
// around one skill
type Exchange struct {
	ID                 string         `json:"id"`
	MentorID           string         `json:"mentorId"`
	LearnerID          string         `json:"learnerId"`
	SkillID            string         `json:"skillId"`
	MentorAssertionID  *string        `json:"mentorSkillAssertionId"`  // NULL once the assertion is deleted
	LearnerAssertionID *string        `json:"learnerSkillAssertionId"` // NULL once the assertion is deleted
	ScheduledTime      time.Time      `json:"scheduledTime"`
	DurationMinutes    int            `json:"durationMinutes"`
	MeetingType        MeetingType    `json:"meetingType"`
	Location           string         `json:"location,omitempty"`
	Status             ExchangeStatus `json:"status"`
	MeetingLink        string         `json:"meetingLink,omitempty"`
	Notes              string         `json:"notes,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	CompletedAt        *time.Time     `json:"completedAt,omitempty"`
}

// IsParticipant reports whether userID is the mentor or the learner
func (e *Exchange) IsParticipant(userID string) bool {
	return userID != "" && (userID == e.MentorID || userID == e.LearnerID)
}

// Counterpart returns the other participant, or "" if userID is not one
func (e *Exchange) Counterpart(userID string) string {
	switch userID {
	case e.MentorID:
		return e.LearnerID
	case e.LearnerID:
		return e.MentorID
	default:
		return ""
	}
}

// InitiateExchangeRequest is the payload for proposing a new exchange
type InitiateExchangeRequest struct {
	PartnerID       string      `json:"partnerId" binding:"required,max=64"`
	Role            Role        `json:"role" binding:"required,oneof=learner mentor"`
	SkillID         string      `json:"skillId" binding:"required,max=100"`
	ScheduledTime   time.Time   `json:"scheduledTime" binding:"required"`
	DurationMinutes int         `json:"durationMinutes" binding:"required"`
	MeetingType     MeetingType `json:"meetingType" binding:"required,oneof=virtual in_person"`
	Location        string      `json:"location" binding:"max=255"`
	MeetingLink     string      `json:"meetingLink" binding:"omitempty,url,max=500"`
	Notes           string      `json:"notes" binding:"max=2000"`
}

// ExchangeDetail is a single exchange as seen by one of its participants
type ExchangeDetail struct {
	*Exchange
	HasReviewed bool      `json:"hasReviewed"`
	Reviews     []*Review `json:"reviews"`
}

// ExchangesResponse is the response for listing exchanges
type ExchangesResponse struct {
	Exchanges []*Exchange `json:"exchanges"`
	Total     int         `json:"total"`
}

// ExchangeColumns is the column list expected by ScanExchange
const ExchangeColumns = `id, mentor_id, learner_id, skill_id, mentor_skill_id, learner_skill_id,
	scheduled_time, duration_minutes, meeting_type, location, status, meeting_link, notes,
	created_at, updated_at, completed_at`

// ScanExchange scans a row selected with ExchangeColumns
func ScanExchange(row pgx.Row) (*Exchange, error) {
	var e Exchange
	var location, meetingLink, notes *string

	err := row.Scan(
		&e.ID,
		&e.MentorID,
		&e.LearnerID,
		&e.SkillID,
		&e.MentorAssertionID,
		&e.LearnerAssertionID,
		&e.ScheduledTime,
		&e.DurationMinutes,
		&e.MeetingType,
		&location,
		&e.Status,
		&meetingLink,
		&notes,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Location = deref(location)
	e.MeetingLink = deref(meetingLink)
	e.Notes = deref(notes)

	return &e, nil
}

// ScanExchanges scans all rows and closes them
func ScanExchanges(rows pgx.Rows) ([]*Exchange, error) {
	defer rows.Close()

	exchanges := []*Exchange{}
	for rows.Next() {
		e, err := ScanExchange(rows)
		if err != nil {
			return nil, err
		}
		exchanges = append(exchanges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exchanges, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
