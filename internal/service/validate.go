package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/project-planner/internal/domain"
)

const dateLayout = "2006-01-02"

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...)
}

func checkDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return invalid("%s must be a YYYY-MM-DD date", field)
	}
	return nil
}

func checkDateOrder(startField, start, endField, end string) error {
	if start == "" || end == "" {
		return nil
	}
	// Lexical order matches chronological order for YYYY-MM-DD.
	if end < start {
		return invalid("%s must not be before %s", endField, startField)
	}
	return nil
}

func checkProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return invalid("progress must be between 0 and 100")
	}
	return nil
}

func checkNonNegative(field string, v *float64) error {
	if v != nil && *v < 0 {
		return invalid("%s must not be negative", field)
	}
	return nil
}

func checkTitle(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s is required", field)
	}
	return nil
}

// dedupe drops blanks and repeated entries, keeping first-seen order.
func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func checkUsersExist(ctx context.Context, users domain.UserRepository, ids []string) error {
	for _, id := range ids {
		if _, err := users.GetByID(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return invalid("user %s does not exist", id)
			}
			return fmt.Errorf("check user: %w", err)
		}
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
