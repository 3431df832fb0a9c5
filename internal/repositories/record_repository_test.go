package repositories

import (
	"context"
	"testing"
	"time"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

var repoNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newRepo(t *testing.T) (RecordRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return RecordRepository{DB: conn, Now: func() time.Time { return repoNow }}, mock
}

var recordCols = []string{
	"id", "kind", "amount", "status", "last_update",
	"last_name", "first_name", "email", "website",
	"reference_no", "from_account", "to_account", "message_type",
}

func TestBuildOrderWhitelistsFields(t *testing.T) {
	cases := []struct {
		sort domain.Sort
		want string
	}{
		{domain.Sort{}, " ORDER BY last_update DESC, id ASC"},
		{domain.Sort{Field: "amount", Order: "desc"}, " ORDER BY amount DESC, id ASC"},
		{domain.Sort{Field: "from"}, " ORDER BY from_account ASC, id ASC"},
		{domain.Sort{Field: "id", Order: "desc"}, " ORDER BY id DESC"},
	}
	for _, c := range cases {
		got, err := buildOrder(c.sort)
		if err != nil {
			t.Fatalf("buildOrder(%+v): %v", c.sort, err)
		}
		if got != c.want {
			t.Fatalf("buildOrder(%+v) = %q, want %q", c.sort, got, c.want)
		}
	}

	if _, err := buildOrder(domain.Sort{Field: "amount; DROP TABLE records"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for injected field, got %v", err)
	}
}

func TestBuildWhere(t *testing.T) {
	upper := decimal.NewFromInt(500)
	where, args := buildWhere(domain.Criteria{Status: models.StatusActive, MinAmount: decimal.NewFromInt(10), MaxAmount: &upper})
	if where != " WHERE status = ? AND amount >= ? AND amount <= ?" {
		t.Fatalf("unexpected where clause %q", where)
	}
	if len(args) != 3 || args[0] != "Active" || args[1] != "10" || args[2] != "500" {
		t.Fatalf("unexpected args %v", args)
	}

	where, args = buildWhere(domain.Criteria{})
	if where != "" || args != nil {
		t.Fatalf("empty criteria should not filter, got %q %v", where, args)
	}
}

func TestListRecordsClampsPage(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM records WHERE status = \\?").
		WithArgs("Inactive").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("FROM records WHERE status = \\? ORDER BY amount ASC, id ASC LIMIT \\? OFFSET \\?").
		WithArgs("Inactive", 10, 10).
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow(int64(11), "transfer", "1234.50", "Inactive", repoNow, "", "", "", "", "TRX-11", "ACME", "Globex", "MT103"))

	res, err := repo.ListRecords(context.Background(), domain.ListQuery{
		Criteria: domain.Criteria{Status: models.StatusInactive},
		Sort:     domain.Sort{Field: "amount", Order: "asc"},
		Page:     7,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Page != 2 || res.TotalPages != 2 || res.TotalCount != 11 {
		t.Fatalf("unexpected paging %+v", res)
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected one record, got %d", len(res.Records))
	}
	rec := res.Records[0]
	if rec.Kind != models.KindTransfer || rec.Transfer == nil || rec.Transfer.ReferenceNo != "TRX-11" {
		t.Fatalf("transfer fields not scanned: %+v", rec)
	}
	if rec.Amount != "$1,234.50" {
		t.Fatalf("amount = %q", rec.Amount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListRecordsRejectsBadCriteria(t *testing.T) {
	repo, _ := newRepo(t)
	upper := decimal.NewFromInt(5)
	_, err := repo.ListRecords(context.Background(), domain.ListQuery{
		Criteria: domain.Criteria{MinAmount: decimal.NewFromInt(10), MaxAmount: &upper},
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRecordNormalizesAmount(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec("INSERT INTO records").
		WithArgs("item", "1234.50", "Active", repoNow,
			"Doe", "Jane", "jane@example.com", nil,
			nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(42, 1))

	out, err := repo.CreateRecord(context.Background(), models.NewItem(0,
		models.ItemFields{LastName: "Doe", FirstName: "Jane", Email: "jane@example.com"}, "1234.5", ""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.ID != 42 || out.Amount != "$1,234.50" || out.Status != models.StatusActive {
		t.Fatalf("unexpected record %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateRecordDuplicateReferenceIsConflict(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("INSERT INTO records").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'R-1'"})

	_, err := repo.CreateRecord(context.Background(),
		models.NewTransfer(0, models.TransferFields{ReferenceNo: "R-1"}, "$1.00", models.StatusActive))
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestWritesRejectNegativeAmount(t *testing.T) {
	repo, mock := newRepo(t)
	neg := models.NewItem(0, models.ItemFields{LastName: "X"}, "-$5.00", models.StatusActive)

	if _, err := repo.CreateRecord(context.Background(), neg); !domain.IsValidation(err) {
		t.Fatalf("create: expected validation error, got %v", err)
	}
	if _, err := repo.UpdateRecord(context.Background(), 1, neg); !domain.IsValidation(err) {
		t.Fatalf("update: expected validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statement should run: %v", err)
	}
}

func TestCreateRecordRejectsGarbageAmount(t *testing.T) {
	repo, _ := newRepo(t)
	_, err := repo.CreateRecord(context.Background(),
		models.NewItem(0, models.ItemFields{LastName: "X"}, "lots", models.StatusActive))
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateRecordMissingRow(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("UPDATE records SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM records WHERE id=\\?").WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	_, err := repo.UpdateRecord(context.Background(), 9, models.NewItem(0, models.ItemFields{}, "$1.00", models.StatusActive))
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateRecordNoopStillSucceeds(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("UPDATE records SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM records WHERE id=\\?").WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	out, err := repo.UpdateRecord(context.Background(), 9, models.NewItem(0, models.ItemFields{}, "$1.00", models.StatusActive))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.ID != 9 {
		t.Fatalf("id not set on result: %d", out.ID)
	}
}

func TestDeleteRecordNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("DELETE FROM records WHERE id=\\?").WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteRecord(context.Background(), 5); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBulkUpdateStatusRollsBackOnUnknownID(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM records WHERE id IN \\(\\?,\\?\\) FOR UPDATE").WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.BulkUpdateStatus(context.Background(), []int64{1, 2}, models.StatusInactive)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkUpdateStatusCommits(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM records WHERE id IN").WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectExec("UPDATE records SET status=\\?, last_update=\\? WHERE id IN \\(\\?,\\?\\)").
		WithArgs("Inactive", repoNow, 1, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.BulkUpdateStatus(context.Background(), []int64{1, 2, 1}, models.StatusInactive); err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetSummary(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count", "sum"}).
			AddRow("Active", 1, "100.00").
			AddRow("Inactive", 1, "50.00"))

	s, err := repo.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !s.TotalAmount.Equal(decimal.NewFromInt(150)) || s.TotalCount != 2 {
		t.Fatalf("unexpected totals %+v", s)
	}
	if !s.ActiveAmount.Equal(decimal.NewFromInt(100)) || !s.InactiveAmount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected per-status amounts %+v", s)
	}
}
