package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/skillswap/skillswap-api/internal/models"
	pkgerrors "github.com/skillswap/skillswap-api/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPairKey_Symmetric(t *testing.T) {
	forward := &models.Exchange{MentorID: "alice", LearnerID: "bob", SkillID: "go"}
	reverse := &models.Exchange{MentorID: "bob", LearnerID: "alice", SkillID: "go"}
	otherSkill := &models.Exchange{MentorID: "alice", LearnerID: "bob", SkillID: "rust"}

	assert.Equal(t, pairKey(forward), pairKey(reverse))
	assert.NotEqual(t, pairKey(forward), pairKey(otherSkill))
	assert.NotEqual(t, pairKey(forward),
		pairKey(&models.Exchange{MentorID: "alice", LearnerID: "carol", SkillID: "go"}))
}

func TestMapConstraintError(t *testing.T) {
	plain := errors.New("connection refused")

	tests := []struct {
		name     string
		err      error
		wantIs   error
		wantSame bool
	}{
		{
			name:   "unique violation",
			err:    &pgconn.PgError{Code: pgUniqueViolation},
			wantIs: pkgerrors.ErrConflict,
		},
		{
			name:   "wrapped unique violation",
			err:    fmt.Errorf("failed to insert exchange: %w", &pgconn.PgError{Code: "23505"}),
			wantIs: pkgerrors.ErrConflict,
		},
		{
			name:   "foreign key violation",
			err:    &pgconn.PgError{Code: pgForeignKeyViolation},
			wantIs: pkgerrors.ErrNotFound,
		},
		{
			name:   "wrapped foreign key violation",
			err:    fmt.Errorf("failed to insert exchange: %w", &pgconn.PgError{Code: "23503"}),
			wantIs: pkgerrors.ErrNotFound,
		},
		{
			name:     "other postgres error",
			err:      &pgconn.PgError{Code: "40001"},
			wantSame: true,
		},
		{
			name:     "plain error",
			err:      plain,
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapConstraintError(tt.err, "open exchange", "skill assertion")
			if tt.wantSame {
				assert.Same(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.wantIs)
		})
	}
}

func TestMapConstraintError_Messages(t *testing.T) {
	conflict := mapConstraintError(&pgconn.PgError{Code: pgUniqueViolation}, "open exchange", "skill assertion")
	missing := mapConstraintError(&pgconn.PgError{Code: pgForeignKeyViolation}, "open exchange", "skill assertion")

	assert.Contains(t, conflict.Error(), "open exchange")
	assert.Contains(t, missing.Error(), "skill assertion")
}

func TestMapConstraintError_Nil(t *testing.T) {
	assert.NoError(t, mapConstraintError(nil, "skill", "skill"))
}

func TestAssertionRolesError(t *testing.T) {
	assert.NoError(t, assertionRolesError(true, true))

	err := assertionRolesError(false, true)
	assert.ErrorIs(t, err, pkgerrors.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "mentor")

	err = assertionRolesError(true, false)
	assert.ErrorIs(t, err, pkgerrors.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "learner")
}
