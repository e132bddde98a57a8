package models

import (
	"time"

	"github.com/jackc/pgx/v5"
)

// SkillLevel is a user's self-declared proficiency in a skill
type SkillLevel string

const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelAdvanced     SkillLevel = "advanced"
	LevelExpert       SkillLevel = "expert"
)

// SkillLevels lists levels from lowest to highest
var SkillLevels = []SkillLevel{LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert}

// Rank returns the 1-based position of the level, or 0 if the level is unknown
func (l SkillLevel) Rank() int {
	for i, level := range SkillLevels {
		if level == l {
			return i + 1
		}
	}
	return 0
}

// IsValid reports whether l is one of the known levels
func (l SkillLevel) IsValid() bool {
	return l.Rank() > 0
}

// Skill is an entry in the skill catalog
type Skill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SkillAssertion is a user's declared relationship to a skill.
// A user has at most one assertion per skill; CanTeach and WantsToLearn may
// both be set.
type SkillAssertion struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	SkillID      string     `json:"skillId"`
	Level        SkillLevel `json:"level"`
	CanTeach     bool       `json:"canTeach"`
	WantsToLearn bool       `json:"wantsToLearn"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// CreateSkillRequest adds a skill to the catalog
type CreateSkillRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Category string `json:"category" binding:"max=50"`
}

// UpsertAssertionRequest creates or replaces the caller's assertion for a skill
type UpsertAssertionRequest struct {
	Level        SkillLevel `json:"level" binding:"required,oneof=beginner intermediate advanced expert"`
	CanTeach     bool       `json:"canTeach"`
	WantsToLearn bool       `json:"wantsToLearn"`
}

// PartnerCandidate is a user who could take the other side of an exchange
type PartnerCandidate struct {
	UserID string     `json:"userId"`
	Level  SkillLevel `json:"level"`
}

// PartnersResponse is the response for partner discovery
type PartnersResponse struct {
	SkillID    string             `json:"skillId"`
	Candidates []PartnerCandidate `json:"candidates"`
	Total      int                `json:"total"`
}

// ScanSkill scans a row with columns: id, name, category, created_at
func ScanSkill(row pgx.Row) (*Skill, error) {
	var s Skill
	var category *string
	if err := row.Scan(&s.ID, &s.Name, &category, &s.CreatedAt); err != nil {
		return nil, err
	}
	if category != nil {
		s.Category = *category
	}
	return &s, nil
}

// ScanAssertion scans a row with columns: id, user_id, skill_id, level,
// can_teach, wants_to_learn, created_at, updated_at
func ScanAssertion(row pgx.Row) (*SkillAssertion, error) {
	var a SkillAssertion
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.SkillID,
		&a.Level,
		&a.CanTeach,
		&a.WantsToLearn,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
