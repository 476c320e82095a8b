package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries implements ledger.Queries over a pool or an open transaction.
type Queries struct {
	db      DBTX
	dialect Dialect
}

func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.dialect.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.dialect.rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.dialect.rebind(query), args...)
}

const createUser = `INSERT INTO users (username, email, password_hash, initial_balance_set, created_at)
VALUES (?, ?, ?, FALSE, ?)
RETURNING id`

func (q *Queries) CreateUser(ctx context.Context, u core.User) (int64, error) {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	var id int64
	err := q.queryRow(ctx, createUser, u.Username, u.Email, u.PasswordHash, q.dialect.timeArg(created)).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, core.ErrConflict
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

const selectUser = `SELECT id, username, email, password_hash, initial_balance_set, created_at FROM users`

func (q *Queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	return q.scanUser(q.queryRow(ctx, selectUser+` WHERE id = ?`, id))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return q.scanUser(q.queryRow(ctx, selectUser+` WHERE email = ?`, email))
}

func (q *Queries) scanUser(row *sql.Row) (core.User, error) {
	var (
		u       core.User
		created dbTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.InitialBalanceSet, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("select user: %w", err)
	}
	u.CreatedAt = created.Time
	return u, nil
}

func (q *Queries) UpdateProfile(ctx context.Context, id int64, username, email string) error {
	res, err := q.exec(ctx, `UPDATE users SET username = ?, email = ? WHERE id = ?`, username, email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := q.exec(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) MarkInitialBalanceSet(ctx context.Context, userID int64) (bool, error) {
	res, err := q.exec(ctx, `UPDATE users SET initial_balance_set = TRUE WHERE id = ? AND initial_balance_set = FALSE`, userID)
	if err != nil {
		return false, fmt.Errorf("mark initial balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (q *Queries) FindCategory(ctx context.Context, userID int64, name string, typ core.TransactionType) (core.Category, error) {
	c := core.Category{UserID: userID, Name: name, Type: typ}
	err := q.queryRow(ctx, `SELECT id FROM categories WHERE user_id = ? AND name = ? AND type = ?`,
		userID, name, string(typ)).Scan(&c.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, core.ErrNotFound
		}
		return core.Category{}, fmt.Errorf("select category: %w", err)
	}
	return c, nil
}

const insertCategory = `INSERT INTO categories (user_id, name, type) VALUES (?, ?, ?)
ON CONFLICT (user_id, name, type) DO NOTHING
RETURNING id`

func (q *Queries) InsertCategory(ctx context.Context, userID int64, name string, typ core.TransactionType) (int64, error) {
	var id int64
	err := q.queryRow(ctx, insertCategory, userID, name, string(typ)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, core.ErrConflict
		}
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return id, nil
}

func (q *Queries) ListCategories(ctx context.Context, userID int64, typ core.TransactionType) ([]core.Category, error) {
	query := `SELECT id, user_id, name, type FROM categories WHERE user_id = ?`
	args := []any{userID}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY name, type`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c   core.Category
			typ string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &typ); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

const insertTransaction = `INSERT INTO transactions (user_id, type, amount, date, description, category_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	var id int64
	err := q.queryRow(ctx, insertTransaction,
		t.UserID, string(t.Type), t.Amount.String(), q.dialect.dateArg(t.Date),
		nullString(t.Description), t.CategoryID, q.dialect.timeArg(created),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

const updateTransaction = `UPDATE transactions
SET type = ?, amount = ?, date = ?, description = ?, category_id = ?
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := q.exec(ctx, updateTransaction,
		string(t.Type), t.Amount.String(), q.dialect.dateArg(t.Date),
		nullString(t.Description), t.CategoryID, t.ID, t.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (q *Queries) DeleteTransaction(ctx context.Context, userID, id int64) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

const selectTransaction = `SELECT t.id, t.user_id, t.type, t.amount, t.date, t.description,
       t.category_id, c.name, t.created_at
FROM transactions t
JOIN categories c ON t.category_id = c.id`

func (q *Queries) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	rows, err := q.query(ctx, selectTransaction+` WHERE t.id = ? AND t.user_id = ?`, id, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("select transaction: %w", err)
	}
	txs, err := scanTransactions(rows)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(txs) == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return txs[0], nil
}

func (q *Queries) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := q.query(ctx, selectTransaction+`
WHERE t.user_id = ?
ORDER BY t.date DESC, t.created_at DESC, t.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return scanTransactions(rows)
}

func (q *Queries) ListTransactionsAfter(ctx context.Context, afterID int64, limit int) ([]core.Transaction, error) {
	rows, err := q.query(ctx, selectTransaction+`
WHERE t.id > ?
ORDER BY t.id
LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions after %d: %w", afterID, err)
	}
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		var (
			t           core.Transaction
			typ         string
			date        dbDate
			description sql.NullString
			created     dbTime
		)
		if err := rows.Scan(&t.ID, &t.UserID, &typ, &t.Amount.Decimal, &date, &description,
			&t.CategoryID, &t.CategoryName, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.Date = date.Date
		t.Description = description.String
		t.CreatedAt = created.Time
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (q *Queries) CreateSession(ctx context.Context, s core.Session) error {
	_, err := q.exec(ctx, `INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		s.Token, s.UserID, q.dialect.timeArg(s.ExpiresAt), q.dialect.timeArg(time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (q *Queries) GetSession(ctx context.Context, token string) (core.Session, error) {
	var (
		s       = core.Session{Token: token}
		expires dbTime
	)
	err := q.queryRow(ctx, `SELECT user_id, expires_at FROM sessions WHERE token = ?`, token).Scan(&s.UserID, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Session{}, core.ErrNotFound
		}
		return core.Session{}, fmt.Errorf("select session: %w", err)
	}
	s.ExpiresAt = expires.Time
	return s, nil
}

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	if _, err := q.exec(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, q.dialect.timeArg(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
