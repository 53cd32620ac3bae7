package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm duplicated", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"pg 23505", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503"}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("IsUniqueViolation: want=%v got=%v", tc.want, got)
			}
		})
	}
}

func TestErrorType(t *testing.T) {
	if got := ErrorType(&pgconn.PgError{Code: "08006"}); got != "PgError" {
		t.Fatalf("ErrorType: want=%q got=%q", "PgError", got)
	}
	if got := ErrorType(gorm.ErrRecordNotFound); got != "NoResultFound" {
		t.Fatalf("ErrorType: want=%q got=%q", "NoResultFound", got)
	}
}
