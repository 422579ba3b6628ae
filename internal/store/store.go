// Package store is the persistence gateway for contacts. It maps model.Contact values onto rows of
// the contacts table with sqlx and owns the schema.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/jmoiron/sqlx"
	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
)

// columns lists the contacts columns in the order used by all SELECT statements.
const columns = "id, name, mobile_phone, job_title, birth_date, created_date, updated_date"

func init() {
	// modernc.org/sqlite registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// statements are prepared once per Store. Prepared statements offer a significant speed increase
// if executed many times.
type statements struct {
	insert        *sqlx.NamedStmt
	update        *sqlx.NamedStmt
	selectPage    *sqlx.Stmt
	selectWhereId *sqlx.Stmt
	countWhereId  *sqlx.Stmt
	deleteWhereId *sqlx.Stmt
}

// Store gives access to the contacts table. It is safe for concurrent use.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger

	mu    sync.Mutex
	stmts *statements
}

// New returns a Store on top of db. The database argument can be a real database for production
// use or a mock database within unit tests. Statements are prepared on first use, so the schema
// does not have to exist yet.
func New(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// EnsureSchema creates or upgrades the contacts table and prepares all statements.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := RunMigrate(ctx, s.db, s.logger, "up", nil); err != nil {
		return err
	}
	_, err := s.prepared(ctx)
	return err
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the prepared statements. The underlying database is owned by the caller.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stmts == nil {
		return nil
	}
	err := s.stmts.close()
	s.stmts = nil
	return err
}

// prepared returns the prepared statements, preparing them if this has not succeeded before.
func (s *Store) prepared(ctx context.Context) (*statements, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stmts != nil {
		return s.stmts, nil
	}
	st, err := prepareStatements(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.stmts = st
	return st, nil
}

func prepareStatements(ctx context.Context, db *sqlx.DB) (*statements, error) {
	st := &statements{}
	var err error
	fail := func(name string, err error) (*statements, error) {
		_ = st.close()
		return nil, fmt.Errorf("prepare %s: %w", name, err)
	}

	st.insert, err = db.PrepareNamedContext(ctx, `
		INSERT INTO contacts (name, mobile_phone, job_title, birth_date, created_date, updated_date)
		VALUES (:name, :mobile_phone, :job_title, :birth_date, :created_date, :updated_date)
	`)
	if err != nil {
		return fail("insert", err)
	}
	st.update, err = db.PrepareNamedContext(ctx, `
		UPDATE contacts
		SET name = :name, mobile_phone = :mobile_phone, job_title = :job_title,
			birth_date = :birth_date, updated_date = :updated_date
		WHERE id = :id
	`)
	if err != nil {
		return fail("update", err)
	}
	st.selectPage, err = db.PreparexContext(ctx, `
		SELECT `+columns+` FROM contacts
		ORDER BY created_date DESC, id DESC
		LIMIT ? OFFSET ?
	`)
	if err != nil {
		return fail("select page", err)
	}
	st.selectWhereId, err = db.PreparexContext(ctx, `
		SELECT `+columns+` FROM contacts WHERE id = ?
	`)
	if err != nil {
		return fail("select by id", err)
	}
	st.countWhereId, err = db.PreparexContext(ctx, `
		SELECT COUNT(*) FROM contacts WHERE id = ?
	`)
	if err != nil {
		return fail("count by id", err)
	}
	st.deleteWhereId, err = db.PreparexContext(ctx, `
		DELETE FROM contacts WHERE id = ?
	`)
	if err != nil {
		return fail("delete by id", err)
	}
	return st, nil
}

func (st *statements) close() error {
	var errs []error
	for _, ns := range []*sqlx.NamedStmt{st.insert, st.update} {
		if ns != nil {
			errs = append(errs, ns.Close())
		}
	}
	for _, s := range []*sqlx.Stmt{st.selectPage, st.selectWhereId, st.countWhereId, st.deleteWhereId} {
		if s != nil {
			errs = append(errs, s.Close())
		}
	}
	return errors.Join(errs...)
}

// ListAll returns the contacts ordered by creation date, newest first. Contacts created at the
// same instant are ordered by descending id.
func (s *Store) ListAll(ctx context.Context, page model.Page) ([]model.Contact, error) {
	st, err := s.prepared(ctx)
	if err != nil {
		return nil, err
	}
	limit := int64(math.MaxInt64)
	if page.Limit > 0 {
		limit = int64(page.Limit)
	}
	contacts := []model.Contact{}
	if err := st.selectPage.SelectContext(ctx, &contacts, limit, page.Offset); err != nil {
		return nil, fmt.Errorf("list contacts: %w", mapError(err))
	}
	return contacts, nil
}

// GetByID returns the contact with the given id or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (model.Contact, error) {
	st, err := s.prepared(ctx)
	if err != nil {
		return model.Contact{}, err
	}
	var contact model.Contact
	if err := st.selectWhereId.GetContext(ctx, &contact, id); err != nil {
		return model.Contact{}, fmt.Errorf("get contact %d: %w", id, mapError(err))
	}
	return contact, nil
}

// Exists reports whether a contact with the given id is stored.
func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	st, err := s.prepared(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	if err := st.countWhereId.GetContext(ctx, &count, id); err != nil {
		return false, fmt.Errorf("check contact %d: %w", id, mapError(err))
	}
	return count > 0, nil
}

// Count returns the number of stored contacts.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM contacts"); err != nil {
		return 0, fmt.Errorf("count contacts: %w", mapError(err))
	}
	return count, nil
}

// Insert stores a new contact and sets its Id to the value assigned by the database.
func (s *Store) Insert(ctx context.Context, contact *model.Contact) error {
	st, err := s.prepared(ctx)
	if err != nil {
		return err
	}
	return insertWith(ctx, st.insert, contact)
}

func insertWith(ctx context.Context, stmt *sqlx.NamedStmt, contact *model.Contact) error {
	result, err := stmt.ExecContext(ctx, contact)
	if err != nil {
		return fmt.Errorf("insert contact: %w", mapError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	contact.Id = id
	return nil
}

// InsertMany stores all contacts in a single transaction and assigns their ids. Either all
// contacts are stored or none.
func (s *Store) InsertMany(ctx context.Context, contacts []model.Contact) (err error) {
	st, err := s.prepared(ctx)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	stmt := tx.NamedStmtContext(ctx, st.insert)
	for i := range contacts {
		if err = insertWith(ctx, stmt, &contacts[i]); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Update writes all mutable columns of the contact. It returns ErrConflict if no row was
// affected, which happens when the row was deleted concurrently.
func (s *Store) Update(ctx context.Context, contact *model.Contact) error {
	st, err := s.prepared(ctx)
	if err != nil {
		return err
	}
	result, err := st.update.ExecContext(ctx, contact)
	if err != nil {
		return fmt.Errorf("update contact %d: %w", contact.Id, mapError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update contact %d: %w", contact.Id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("update contact %d: %w", contact.Id, ErrConflict)
	}
	return nil
}

// Delete removes the contact with the given id. It returns ErrNotFound if there was none.
func (s *Store) Delete(ctx context.Context, id int64) error {
	st, err := s.prepared(ctx)
	if err != nil {
		return err
	}
	result, err := st.deleteWhereId.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("delete contact %d: %w", id, mapError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("delete contact %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteMany removes all contacts with the given ids in one statement and returns the number of
// deleted rows.
func (s *Store) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM contacts WHERE id IN (?)", ids)
	if err != nil {
		return 0, fmt.Errorf("delete contacts: %w", err)
	}
	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete contacts: %w", mapError(err))
	}
	return result.RowsAffected()
}
