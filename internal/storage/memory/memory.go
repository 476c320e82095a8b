// Package memory is an in-process ledger store for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type Store struct {
	mu    sync.Mutex
	state *state
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{state: &state{}}
}

// state holds the tables. All methods assume the caller holds Store.mu.
type state struct {
	users    []core.User
	cats     []core.Category
	txs      []core.Transaction
	sessions map[string]core.Session
	nextID   int64
}

func (s *state) clone() *state {
	c := &state{
		users:    append([]core.User(nil), s.users...),
		cats:     append([]core.Category(nil), s.cats...),
		txs:      append([]core.Transaction(nil), s.txs...),
		sessions: make(map[string]core.Session, len(s.sessions)),
		nextID:   s.nextID,
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// WithTx runs fn against a private copy of the tables and publishes the copy
// only when fn succeeds. Writers are serialized.
func (s *Store) WithTx(_ context.Context, fn func(q ledger.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(txView{work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) do(fn func(q txView) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(txView{s.state})
}

// Store methods lock and delegate to txView.

func (s *Store) CreateUser(ctx context.Context, u core.User) (id int64, err error) {
	err = s.do(func(q txView) error { id, err = q.CreateUser(ctx, u); return err })
	return id, err
}

func (s *Store) GetUser(ctx context.Context, id int64) (u core.User, err error) {
	err = s.do(func(q txView) error { u, err = q.GetUser(ctx, id); return err })
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (u core.User, err error) {
	err = s.do(func(q txView) error { u, err = q.GetUserByEmail(ctx, email); return err })
	return u, err
}

func (s *Store) UpdateProfile(ctx context.Context, id int64, username, email string) error {
	return s.do(func(q txView) error { return q.UpdateProfile(ctx, id, username, email) })
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return s.do(func(q txView) error { return q.UpdatePassword(ctx, id, hash) })
}

func (s *Store) MarkInitialBalanceSet(ctx context.Context, userID int64) (ok bool, err error) {
	err = s.do(func(q txView) error { ok, err = q.MarkInitialBalanceSet(ctx, userID); return err })
	return ok, err
}

func (s *Store) FindCategory(ctx context.Context, userID int64, name string, typ core.TransactionType) (c core.Category, err error) {
	err = s.do(func(q txView) error { c, err = q.FindCategory(ctx, userID, name, typ); return err })
	return c, err
}

func (s *Store) InsertCategory(ctx context.Context, userID int64, name string, typ core.TransactionType) (id int64, err error) {
	err = s.do(func(q txView) error { id, err = q.InsertCategory(ctx, userID, name, typ); return err })
	return id, err
}

func (s *Store) ListCategories(ctx context.Context, userID int64, typ core.TransactionType) (out []core.Category, err error) {
	err = s.do(func(q txView) error { out, err = q.ListCategories(ctx, userID, typ); return err })
	return out, err
}

func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) (id int64, err error) {
	err = s.do(func(q txView) error { id, err = q.InsertTransaction(ctx, t); return err })
	return id, err
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (n int64, err error) {
	err = s.do(func(q txView) error { n, err = q.UpdateTransaction(ctx, t); return err })
	return n, err
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id int64) (n int64, err error) {
	err = s.do(func(q txView) error { n, err = q.DeleteTransaction(ctx, userID, id); return err })
	return n, err
}

func (s *Store) GetTransaction(ctx context.Context, userID, id int64) (t core.Transaction, err error) {
	err = s.do(func(q txView) error { t, err = q.GetTransaction(ctx, userID, id); return err })
	return t, err
}

func (s *Store) ListTransactions(ctx context.Context, userID int64) (out []core.Transaction, err error) {
	err = s.do(func(q txView) error { out, err = q.ListTransactions(ctx, userID); return err })
	return out, err
}

func (s *Store) ListTransactionsAfter(ctx context.Context, afterID int64, limit int) (out []core.Transaction, err error) {
	err = s.do(func(q txView) error { out, err = q.ListTransactionsAfter(ctx, afterID, limit); return err })
	return out, err
}

func (s *Store) CreateSession(ctx context.Context, sess core.Session) error {
	return s.do(func(q txView) error { return q.CreateSession(ctx, sess) })
}

func (s *Store) GetSession(ctx context.Context, token string) (sess core.Session, err error) {
	err = s.do(func(q txView) error { sess, err = q.GetSession(ctx, token); return err })
	return sess, err
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	return s.do(func(q txView) error { return q.DeleteSession(ctx, token) })
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (n int64, err error) {
	err = s.do(func(q txView) error { n, err = q.DeleteExpiredSessions(ctx, now); return err })
	return n, err
}

// txView implements ledger.Queries directly on a state.
type txView struct {
	s *state
}

func (v txView) CreateUser(_ context.Context, u core.User) (int64, error) {
	for _, existing := range v.s.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return 0, core.ErrConflict
		}
	}
	u.ID = v.s.id()
	u.InitialBalanceSet = false
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	v.s.users = append(v.s.users, u)
	return u.ID, nil
}

func (v txView) user(id int64) (*core.User, error) {
	for i := range v.s.users {
		if v.s.users[i].ID == id {
			return &v.s.users[i], nil
		}
	}
	return nil, core.ErrNotFound
}

func (v txView) GetUser(_ context.Context, id int64) (core.User, error) {
	u, err := v.user(id)
	if err != nil {
		return core.User{}, err
	}
	return *u, nil
}

func (v txView) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	for _, u := range v.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (v txView) UpdateProfile(_ context.Context, id int64, username, email string) error {
	for _, other := range v.s.users {
		if other.ID != id && (other.Username == username || strings.EqualFold(other.Email, email)) {
			return core.ErrConflict
		}
	}
	u, err := v.user(id)
	if err != nil {
		return err
	}
	u.Username, u.Email = username, email
	return nil
}

func (v txView) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, err := v.user(id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (v txView) MarkInitialBalanceSet(_ context.Context, userID int64) (bool, error) {
	u, err := v.user(userID)
	if err != nil || u.InitialBalanceSet {
		return false, nil
	}
	u.InitialBalanceSet = true
	return true, nil
}

func (v txView) FindCategory(_ context.Context, userID int64, name string, typ core.TransactionType) (core.Category, error) {
	for _, c := range v.s.cats {
		if c.UserID == userID && c.Name == name && c.Type == typ {
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (v txView) InsertCategory(ctx context.Context, userID int64, name string, typ core.TransactionType) (int64, error) {
	if _, err := v.FindCategory(ctx, userID, name, typ); err == nil {
		return 0, core.ErrConflict
	}
	c := core.Category{ID: v.s.id(), UserID: userID, Name: name, Type: typ}
	v.s.cats = append(v.s.cats, c)
	return c.ID, nil
}

func (v txView) ListCategories(_ context.Context, userID int64, typ core.TransactionType) ([]core.Category, error) {
	var out []core.Category
	for _, c := range v.s.cats {
		if c.UserID == userID && (typ == "" || c.Type == typ) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

func (v txView) categoryName(id int64) string {
	for _, c := range v.s.cats {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func (v txView) InsertTransaction(_ context.Context, t core.Transaction) (int64, error) {
	t.ID = v.s.id()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	v.s.txs = append(v.s.txs, t)
	return t.ID, nil
}

func (v txView) UpdateTransaction(_ context.Context, t core.Transaction) (int64, error) {
	for i := range v.s.txs {
		cur := &v.s.txs[i]
		if cur.ID == t.ID && cur.UserID == t.UserID {
			cur.Type = t.Type
			cur.Amount = t.Amount
			cur.Date = t.Date
			cur.Description = t.Description
			cur.CategoryID = t.CategoryID
			return 1, nil
		}
	}
	return 0, nil
}

func (v txView) DeleteTransaction(_ context.Context, userID, id int64) (int64, error) {
	for i, t := range v.s.txs {
		if t.ID == id && t.UserID == userID {
			v.s.txs = append(v.s.txs[:i:i], v.s.txs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (v txView) joined(t core.Transaction) core.Transaction {
	t.CategoryName = v.categoryName(t.CategoryID)
	return t
}

func (v txView) GetTransaction(_ context.Context, userID, id int64) (core.Transaction, error) {
	for _, t := range v.s.txs {
		if t.ID == id && t.UserID == userID {
			return v.joined(t), nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (v txView) ListTransactions(_ context.Context, userID int64) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range v.s.txs {
		if t.UserID == userID {
			out = append(out, v.joined(t))
		}
	}
	core.SortNewestFirst(out)
	return out, nil
}

func (v txView) ListTransactionsAfter(_ context.Context, afterID int64, limit int) ([]core.Transaction, error) {
	var out []core.Transaction
	// ids are assigned in increasing order and rows are appended.
	for _, t := range v.s.txs {
		if t.ID > afterID {
			out = append(out, v.joined(t))
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (v txView) CreateSession(_ context.Context, sess core.Session) error {
	if v.s.sessions == nil {
		v.s.sessions = make(map[string]core.Session)
	}
	if _, ok := v.s.sessions[sess.Token]; ok {
		return core.ErrConflict
	}
	v.s.sessions[sess.Token] = sess
	return nil
}

func (v txView) GetSession(_ context.Context, token string) (core.Session, error) {
	sess, ok := v.s.sessions[token]
	if !ok {
		return core.Session{}, core.ErrNotFound
	}
	return sess, nil
}

func (v txView) DeleteSession(_ context.Context, token string) error {
	delete(v.s.sessions, token)
	return nil
}

func (v txView) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for token, sess := range v.s.sessions {
		if sess.Expired(now) {
			delete(v.s.sessions, token)
			n++
		}
	}
	return n, nil
}
