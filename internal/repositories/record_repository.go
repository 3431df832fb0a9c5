package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tableadmin/internal/config"
	intdb "tableadmin/internal/db"
	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/listing"
	"tableadmin/internal/utils"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

// RecordRepository is the MySQL-backed record gateway.
type RecordRepository struct {
	DB  *sql.DB
	Now func() time.Time
}

func (r RecordRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return config.DB
}

func (r RecordRepository) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return utils.NowUTC()
}

// sortColumns whitelists ORDER BY targets; nothing else reaches the SQL text.
var sortColumns = map[string]string{
	"id":          "id",
	"amount":      "amount",
	"status":      "status",
	"lastUpdate":  "last_update",
	"referenceNo": "reference_no",
	"from":        "from_account",
	"to":          "to_account",
	"messageType": "message_type",
	"lastName":    "last_name",
	"firstName":   "first_name",
	"email":       "email",
	"website":     "website",
}

const recordColumns = `
	id,
	COALESCE(kind,'item'),
	amount,
	COALESCE(status,''),
	last_update,
	COALESCE(last_name,''), COALESCE(first_name,''), COALESCE(email,''), COALESCE(website,''),
	COALESCE(reference_no,''), COALESCE(from_account,''), COALESCE(to_account,''), COALESCE(message_type,'')`

// buildWhere renders the criteria as a parameterised WHERE clause.
func buildWhere(c domain.Criteria) (string, []any) {
	var conds []string
	var args []any
	if c.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(c.Status))
	}
	if !c.MinAmount.IsZero() {
		conds = append(conds, "amount >= ?")
		args = append(args, c.MinAmount.String())
	}
	if c.MaxAmount != nil {
		conds = append(conds, "amount <= ?")
		args = append(args, c.MaxAmount.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// buildOrder maps a sort onto a whitelisted column with id as tie breaker.
func buildOrder(s domain.Sort) (string, error) {
	if s.Field == "" {
		s = domain.DefaultSort()
	}
	norm, err := s.Normalize()
	if err != nil {
		return "", err
	}
	col, ok := sortColumns[norm.Field]
	if !ok {
		return "", domain.ValidationError{Field: "field", Msg: "cannot sort by " + norm.Field}
	}
	dir := "ASC"
	if norm.Desc() {
		dir = "DESC"
	}
	if col == "id" {
		return " ORDER BY id " + dir, nil
	}
	return " ORDER BY " + col + " " + dir + ", id ASC", nil
}

func (r RecordRepository) ListRecords(ctx context.Context, q domain.ListQuery) (domain.ListResult, error) {
	conn := r.db()
	if conn == nil {
		return domain.ListResult{}, errNoDB("list records")
	}
	if err := q.Criteria.Validate(); err != nil {
		return domain.ListResult{}, err
	}
	order, err := buildOrder(q.Sort)
	if err != nil {
		return domain.ListResult{}, err
	}
	size := q.PageSize
	if size <= 0 {
		size = domain.DefaultPageSize
	}
	where, args := buildWhere(q.Criteria)

	var total int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+intdb.RecordsTable+where, args...).Scan(&total); err != nil {
		return domain.ListResult{}, domain.TransportError{Op: "count records", Err: err}
	}
	pages := listing.TotalPages(total, size)
	page := listing.ClampPage(q.Page, pages)

	query := "SELECT " + recordColumns + " FROM " + intdb.RecordsTable + where + order + " LIMIT ? OFFSET ?"
	rows, err := conn.QueryContext(ctx, query, append(args, size, (page-1)*size)...)
	if err != nil {
		return domain.ListResult{}, domain.TransportError{Op: "list records", Err: err}
	}
	defer rows.Close()

	out := make([]models.Record, 0, size)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return domain.ListResult{}, domain.TransportError{Op: "list records", Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.ListResult{}, domain.TransportError{Op: "list records", Err: err}
	}
	return domain.ListResult{Records: out, TotalCount: total, TotalPages: pages, Page: page}, nil
}

func scanRecord(rows *sql.Rows) (models.Record, error) {
	var (
		rec                             models.Record
		kind, status, amount            string
		lastUpdate                      sql.NullTime
		lastName, firstName, email, web string
		ref, from, to, msgType          string
	)
	if err := rows.Scan(&rec.ID, &kind, &amount, &status, &lastUpdate,
		&lastName, &firstName, &email, &web,
		&ref, &from, &to, &msgType); err != nil {
		return models.Record{}, err
	}
	rec.Kind = models.Kind(kind)
	rec.Status = models.Status(status)
	if lastUpdate.Valid {
		rec.LastUpdate = lastUpdate.Time
	}
	if d, err := decimal.NewFromString(amount); err == nil {
		rec.Amount = utils.FormatAmount(d)
	} else {
		rec.Amount = amount
	}
	if rec.Kind == models.KindTransfer {
		rec.Transfer = &models.TransferFields{ReferenceNo: ref, From: from, To: to, MessageType: msgType}
	} else {
		rec.Kind = models.KindItem
		rec.Item = &models.ItemFields{LastName: lastName, FirstName: firstName, Email: email, Website: web}
	}
	return rec, nil
}

// columnValues flattens a record into the write column order shared by
// INSERT and UPDATE.
func columnValues(rec models.Record, amount decimal.Decimal, stamp time.Time) []any {
	vals := []any{string(rec.Kind), amount.StringFixed(2), string(rec.Status), stamp}
	var it models.ItemFields
	var tr models.TransferFields
	if rec.Item != nil {
		it = *rec.Item
	}
	if rec.Transfer != nil {
		tr = *rec.Transfer
	}
	return append(vals,
		intdb.NullIfEmpty(it.LastName), intdb.NullIfEmpty(it.FirstName), intdb.NullIfEmpty(it.Email), intdb.NullIfEmpty(it.Website),
		intdb.NullIfEmpty(tr.ReferenceNo), intdb.NullIfEmpty(tr.From), intdb.NullIfEmpty(tr.To), intdb.NullIfEmpty(tr.MessageType),
	)
}

func prepareWrite(rec models.Record) (models.Record, decimal.Decimal, error) {
	amount, err := utils.ParseRecordAmount(rec.Amount)
	if err != nil {
		return models.Record{}, decimal.Zero, err
	}
	if rec.Status == "" {
		rec.Status = models.StatusActive
	}
	if !rec.Status.Valid() {
		return models.Record{}, decimal.Zero, domain.ValidationError{Field: "status", Msg: "unknown status " + string(rec.Status)}
	}
	if rec.Kind == "" {
		rec.Kind = models.KindItem
		if rec.Transfer != nil {
			rec.Kind = models.KindTransfer
		}
	}
	rec.Amount = utils.FormatAmount(amount)
	return rec, amount, nil
}

func (r RecordRepository) CreateRecord(ctx context.Context, rec models.Record) (models.Record, error) {
	conn := r.db()
	if conn == nil {
		return models.Record{}, errNoDB("create record")
	}
	rec, amount, err := prepareWrite(rec)
	if err != nil {
		return models.Record{}, err
	}
	if rec.LastUpdate.IsZero() {
		rec.LastUpdate = r.now()
	}
	res, err := conn.ExecContext(ctx, `
		INSERT INTO records
			(kind, amount, status, last_update,
			 last_name, first_name, email, website,
			 reference_no, from_account, to_account, message_type)
		VALUES (?,?,?,?, ?,?,?,?, ?,?,?,?)`, columnValues(rec, amount, rec.LastUpdate)...)
	if err != nil {
		return models.Record{}, writeError("create record", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Record{}, domain.TransportError{Op: "create record", Err: err}
	}
	rec.ID = id
	return rec, nil
}

func (r RecordRepository) UpdateRecord(ctx context.Context, id int64, rec models.Record) (models.Record, error) {
	conn := r.db()
	if conn == nil {
		return models.Record{}, errNoDB("update record")
	}
	rec, amount, err := prepareWrite(rec)
	if err != nil {
		return models.Record{}, err
	}
	rec.ID = id
	if rec.LastUpdate.IsZero() {
		rec.LastUpdate = r.now()
	}
	args := append(columnValues(rec, amount, rec.LastUpdate), id)
	res, err := conn.ExecContext(ctx, `
		UPDATE records SET
			kind=?, amount=?, status=?, last_update=?,
			last_name=?, first_name=?, email=?, website=?,
			reference_no=?, from_account=?, to_account=?, message_type=?
		WHERE id=?`, args...)
	if err != nil {
		return models.Record{}, writeError("update record", err)
	}
	// MySQL reports 0 affected rows for a no-op update, so confirm the row
	// is really gone before calling it missing.
	if n, _ := res.RowsAffected(); n == 0 {
		ok, err := r.exists(ctx, conn, id)
		if err != nil {
			return models.Record{}, domain.TransportError{Op: "update record", Err: err}
		}
		if !ok {
			return models.Record{}, domain.NotFoundError{Resource: "record", ID: id}
		}
	}
	return rec, nil
}

func (r RecordRepository) DeleteRecord(ctx context.Context, id int64) error {
	conn := r.db()
	if conn == nil {
		return errNoDB("delete record")
	}
	res, err := conn.ExecContext(ctx, `DELETE FROM records WHERE id=?`, id)
	if err != nil {
		return domain.TransportError{Op: "delete record", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "record", ID: id}
	}
	return nil
}

// BulkUpdateStatus locks the target rows first so the update is
// all-or-nothing: any unknown id rolls the whole batch back.
func (r RecordRepository) BulkUpdateStatus(ctx context.Context, ids []int64, status models.Status) error {
	if !status.Valid() {
		return domain.ValidationError{Field: "status", Msg: "unknown status " + string(status)}
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	conn := r.db()
	if conn == nil {
		return errNoDB("bulk update status")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return domain.TransportError{Op: "bulk update status", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	in, args := inClause(ids)
	rows, err := tx.QueryContext(ctx, "SELECT id FROM records WHERE id IN ("+in+") FOR UPDATE", args...)
	if err != nil {
		return domain.TransportError{Op: "bulk update status", Err: err}
	}
	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return domain.TransportError{Op: "bulk update status", Err: err}
		}
		found[id] = true
	}
	rows.Close()
	for _, id := range ids {
		if !found[id] {
			return domain.NotFoundError{Resource: "record", ID: id}
		}
	}

	upd := append([]any{string(status), r.now()}, args...)
	if _, err := tx.ExecContext(ctx, "UPDATE records SET status=?, last_update=? WHERE id IN ("+in+")", upd...); err != nil {
		return domain.TransportError{Op: "bulk update status", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return domain.TransportError{Op: "bulk update status", Err: err}
	}
	return nil
}

func (r RecordRepository) GetSummary(ctx context.Context) (domain.Summary, error) {
	conn := r.db()
	if conn == nil {
		return domain.Summary{}, errNoDB("get summary")
	}
	rows, err := conn.QueryContext(ctx, `
		SELECT COALESCE(status,''), COUNT(*), COALESCE(SUM(amount),0)
		FROM records
		GROUP BY status`)
	if err != nil {
		return domain.Summary{}, domain.TransportError{Op: "get summary", Err: err}
	}
	defer rows.Close()

	s := domain.Summary{TotalAmount: decimal.Zero, ActiveAmount: decimal.Zero, InactiveAmount: decimal.Zero}
	for rows.Next() {
		var status, sum string
		var count int
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return domain.Summary{}, domain.TransportError{Op: "get summary", Err: err}
		}
		amt, err := decimal.NewFromString(sum)
		if err != nil {
			amt = decimal.Zero
		}
		s.TotalAmount = s.TotalAmount.Add(amt)
		s.TotalCount += count
		switch models.Status(status) {
		case models.StatusActive:
			s.ActiveAmount, s.ActiveCount = amt, count
		case models.StatusInactive:
			s.InactiveAmount, s.InactiveCount = amt, count
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Summary{}, domain.TransportError{Op: "get summary", Err: err}
	}
	return s, nil
}

func (r RecordRepository) exists(ctx context.Context, conn *sql.DB, id int64) (bool, error) {
	var one int
	err := conn.QueryRowContext(ctx, `SELECT 1 FROM records WHERE id=? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func inClause(ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ","), args
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// writeError turns a duplicate reference number into a conflict.
func writeError(op string, err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return domain.ConflictError{Resource: "record", Msg: "reference number already exists", Err: err}
	}
	return domain.TransportError{Op: op, Err: err}
}

func errNoDB(op string) error {
	return domain.TransportError{Op: op, Err: errors.New("database not configured")}
}
