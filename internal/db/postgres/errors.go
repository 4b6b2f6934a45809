package postgres

import (
	"errors"
	"strings"

	"github.com/lib/pq"

	"Pressroom/internal/core/posts"
)

// translateError turns constraint violations reported by Postgres into
// validation errors. Anything else is returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code.Name() {
	case "not_null_violation":
		return posts.NewValidationError(pqErr.Column, "is required")
	case "check_violation":
		return posts.NewValidationError(constraintField(pqErr), "has an invalid value")
	case "foreign_key_violation":
		return posts.NewValidationError(constraintField(pqErr), "references a record that does not exist")
	case "unique_violation":
		return posts.NewValidationError(constraintField(pqErr), "already exists")
	case "invalid_text_representation", "string_data_right_truncation":
		return posts.NewValidationError("body", pqErr.Message)
	default:
		return err
	}
}

// constraintField derives the column from a constraint name such as
// posts_title_check or posts_author_id_fkey
func constraintField(pqErr *pq.Error) string {
	name := pqErr.Constraint
	if name == "" {
		return pqErr.Table
	}
	name = strings.TrimPrefix(name, pqErr.Table+"_")
	for _, suffix := range []string{"_check", "_fkey", "_key"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}
