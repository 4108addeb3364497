package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueConstraint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"email", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, "users_email_key"},
		{"wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}), "users_username_key"},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "tasks_project_id_fkey"}, ""},
		{"plain", errors.New("boom"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uniqueConstraint(tt.err))
		})
	}
}

func TestNotFound(t *testing.T) {
	assert.True(t, notFound(pgx.ErrNoRows))
	assert.True(t, notFound(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	assert.False(t, notFound(errors.New("boom")))
}

func TestList(t *testing.T) {
	assert.NotNil(t, list(nil))
	assert.Empty(t, list(nil))
	assert.Equal(t, []string{"a"}, list([]string{"a"}))
}
