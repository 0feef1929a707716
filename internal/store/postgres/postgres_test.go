package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/groblegark/mindful/internal/model"
	"github.com/groblegark/mindful/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var verificationRowColumns = []string{"user_id", "verified_date", "pending_affirmation"}

func TestAddGatedChannel(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO mindful_channels").
		WithArgs(int64(10), int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second insert conflicts and affects no rows; still not an error.
	mock.ExpectExec("INSERT INTO mindful_channels").
		WithArgs(int64(10), int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	if err := queryAddGatedChannel(ctx, db, 10, 20); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := queryAddGatedChannel(ctx, db, 10, 20); err != nil {
		t.Fatalf("second add: %v", err)
	}
}

func TestRemoveGatedChannel(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM mindful_channels").
		WithArgs(int64(10), int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM mindful_channels").
		WithArgs(int64(10), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	found, err := queryRemoveGatedChannel(ctx, db, 10, 20)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !found {
		t.Error("expected found=true for existing row")
	}

	found, err = queryRemoveGatedChannel(ctx, db, 10, 99)
	if err != nil {
		t.Fatalf("remove missing: %v", err)
	}
	if found {
		t.Error("expected found=false for missing row")
	}
}

func TestListGatedChannels(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT channel_id FROM mindful_channels").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"channel_id"}).AddRow(int64(20)).AddRow(int64(30)))

	ids, err := queryListGatedChannels(context.Background(), db, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != 20 || ids[1] != 30 {
		t.Errorf("ids = %v, want [20 30]", ids)
	}
}

func TestReplaceGatedChannels(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM mindful_channels WHERE guild_id = \\$1").
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO mindful_channels").
		WithArgs(int64(10), int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mindful_channels").
		WithArgs(int64(10), int64(30)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := &PostgresStore{db: db}
	if err := s.ReplaceGatedChannels(context.Background(), 10, []int64{20, 30}); err != nil {
		t.Fatalf("replace: %v", err)
	}
}

func TestGetVerification(t *testing.T) {
	db, mock := newMockDB(t)
	day := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT user_id, verified_date, pending_affirmation FROM user_verifications").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(verificationRowColumns).
			AddRow(int64(7), day, "I will manage my risk."))

	v, err := queryGetVerification(context.Background(), db, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v == nil {
		t.Fatal("expected a record")
	}
	if v.VerifiedDate != (model.Date{Year: 2024, Month: time.June, Day: 15}) {
		t.Errorf("date = %v, want 2024-06-15", v.VerifiedDate)
	}
	if v.PendingAffirmation != "I will manage my risk." {
		t.Errorf("pending = %q", v.PendingAffirmation)
	}
}

func TestGetVerificationNullPending(t *testing.T) {
	db, mock := newMockDB(t)
	day := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT user_id, verified_date, pending_affirmation FROM user_verifications").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(verificationRowColumns).AddRow(int64(7), day, nil))

	v, err := queryGetVerification(context.Background(), db, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.PendingAffirmation != "" {
		t.Errorf("pending = %q, want empty for NULL", v.PendingAffirmation)
	}
}

func TestGetVerificationMissing(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT user_id, verified_date, pending_affirmation FROM user_verifications").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(verificationRowColumns))

	v, err := queryGetVerification(context.Background(), db, 404)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil record, got %+v", v)
	}
}

func TestSetPending(t *testing.T) {
	db, mock := newMockDB(t)
	day := model.Date{Year: 2024, Month: time.June, Day: 15}

	mock.ExpectExec("INSERT INTO user_verifications").
		WithArgs(int64(7), day.Time(), "I will protect my capital.").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := querySetPending(context.Background(), db, 7, day, "I will protect my capital."); err != nil {
		t.Fatalf("set pending: %v", err)
	}
}

func TestCompleteVerification(t *testing.T) {
	db, mock := newMockDB(t)
	day := model.Date{Year: 2024, Month: time.June, Day: 15}

	mock.ExpectExec("UPDATE user_verifications").
		WithArgs(day.Time(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCompleteVerification(context.Background(), db, 7, day); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestClearStale(t *testing.T) {
	db, mock := newMockDB(t)
	day := model.Date{Year: 2024, Month: time.June, Day: 15}

	mock.ExpectExec("DELETE FROM user_verifications WHERE verified_date != \\$1").
		WithArgs(day.Time()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := queryClearStale(context.Background(), db, day)
	if err != nil {
		t.Fatalf("clear stale: %v", err)
	}
	if n != 4 {
		t.Errorf("cleared = %d, want 4", n)
	}
}

func TestListVerifications(t *testing.T) {
	db, mock := newMockDB(t)
	day := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT user_id, verified_date, pending_affirmation FROM user_verifications").
		WillReturnRows(sqlmock.NewRows(verificationRowColumns).
			AddRow(int64(1), day, nil).
			AddRow(int64(2), day, "I will stick to my trading plan."))

	out, err := queryListVerifications(context.Background(), db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].PendingAffirmation != "" || out[1].PendingAffirmation == "" {
		t.Errorf("pending fields wrong: %+v", out)
	}
}

func TestRunInTransactionRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_verifications WHERE user_id = \\$1").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	s := &PostgresStore{db: db}
	wantErr := errors.New("boom")
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		if err := tx.DeleteVerification(context.Background(), 7); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}
