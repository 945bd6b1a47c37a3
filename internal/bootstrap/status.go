package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// Status is the outcome recorded for one initialization run.
type Status string

const (
	StatusInProgress   Status = "in_progress"
	StatusCompleted    Status = "completed"
	StatusPartial      Status = "partial"
	StatusFailed       Status = "failed"
	StatusNoExtensions Status = "no_extensions"
)

// FinalStatus mirrors the CASE expression the bootstrap script evaluates
// after attempting every extension.
func FinalStatus(attempted, failed int) Status {
	switch {
	case attempted == 0:
		return StatusNoExtensions
	case failed == 0:
		return StatusCompleted
	case failed >= attempted:
		return StatusFailed
	default:
		return StatusPartial
	}
}

// StatusRow is one row of the status table.
type StatusRow struct {
	InitializedAt time.Time
	Expected      []string
	Created       []string
	Failed        []string
	Status        Status
	Message       string
}

// ErrNoStatus is returned when the status table is missing or empty.
var ErrNoStatus = errors.New("no initialization status recorded")

// LatestStatus reads the most recent status row.
func LatestStatus(ctx context.Context, conn pgbundle.DBConnection) (*StatusRow, error) {
	var exists bool
	err := conn.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", pgbundle.StatusTable).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("look up status table: %w", err)
	}
	if !exists {
		return nil, ErrNoStatus
	}

	var row StatusRow
	var status string
	var message *string
	err = conn.QueryRow(ctx, `
SELECT initialized_at, expected_extensions, created_extensions, failed_extensions, status, message
FROM `+pgbundle.StatusTable+`
ORDER BY initialized_at DESC
LIMIT 1`).Scan(&row.InitializedAt, &row.Expected, &row.Created, &row.Failed, &status, &message)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoStatus
		}
		return nil, fmt.Errorf("read status row: %w", err)
	}
	row.Status = Status(status)
	if message != nil {
		row.Message = *message
	}
	return &row, nil
}
