package postgres

import (
	"database/sql"
	"time"

	"github.com/groblegark/mindful/internal/model"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanVerification scans a user_verifications row. The driver returns DATE
// columns as a time.Time at midnight UTC; we keep only the civil date.
func scanVerification(row rowScanner) (*model.UserVerification, error) {
	var (
		v       model.UserVerification
		day     time.Time
		pending sql.NullString
	)
	if err := row.Scan(&v.UserID, &day, &pending); err != nil {
		return nil, err
	}
	v.VerifiedDate = model.DateOf(day.UTC())
	if pending.Valid {
		v.PendingAffirmation = pending.String
	}
	return &v, nil
}
