// Package sqldb implements the contact store on database/sql drivers through
// sqlx. MySQL and SQLite are supported; both use '?' placeholders.
package sqldb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/duynhne/contact-service/internal/core/domain"
	"github.com/duynhne/contact-service/internal/core/repository"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported driver names.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

const selectContacts = `SELECT id, first_name, last_name, phone, email, address FROM contacts`

var schemas = map[string]string{
	DriverMySQL: `
		CREATE TABLE IF NOT EXISTS contacts (
			id         BIGINT       NOT NULL AUTO_INCREMENT,
			first_name VARCHAR(100) NOT NULL,
			last_name  VARCHAR(100) NOT NULL,
			phone      VARCHAR(20)  NOT NULL,
			email      VARCHAR(320) NULL,
			address    TEXT         NULL,
			PRIMARY KEY (id),
			CONSTRAINT uq_contacts_phone UNIQUE (phone),
			CONSTRAINT uq_contacts_email UNIQUE (email)
		)`,
	DriverSQLite: `
		CREATE TABLE IF NOT EXISTS contacts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name  TEXT NOT NULL,
			phone      TEXT NOT NULL,
			email      TEXT NULL,
			address    TEXT NULL,
			CONSTRAINT uq_contacts_phone UNIQUE (phone),
			CONSTRAINT uq_contacts_email UNIQUE (email)
		)`,
}

func init() {
	// sqlx does not know the modernc driver name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// ContactRepository implements domain.ContactRepository with prepared statements.
type ContactRepository struct {
	db *sqlx.DB

	// insert is a prepared statement for creating a contact.
	insert *sqlx.NamedStmt
	// selectWhereID is a prepared statement for selecting a contact by id.
	selectWhereID *sqlx.Stmt
	// selectWherePhone and selectWhereEmail look up a unique value, excluding one id.
	selectWherePhone *sqlx.Stmt
	selectWhereEmail *sqlx.Stmt
	// selectPage is a prepared statement for a LIMIT/OFFSET page ordered by id.
	selectPage *sqlx.Stmt
	// deleteWhereID is a prepared statement for deleting a contact by id.
	deleteWhereID *sqlx.Stmt
}

// Open connects to the database, creates the contacts table and prepares all statements.
func Open(ctx context.Context, driver, dsn string) (*ContactRepository, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A single writer avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	repo, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// EnsureSchema creates the contacts table for the driver of db.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	schema, ok := schemas[db.DriverName()]
	if !ok {
		return fmt.Errorf("unsupported sql driver %q", db.DriverName())
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create contacts table: %w", err)
	}
	return nil
}

// New prepares all statements on db. The database can be a real database for
// production use or a mock database within unit tests.
func New(db *sqlx.DB) (*ContactRepository, error) {
	r := &ContactRepository{db: db}
	var err error

	// Prepared statements avoid re-parsing on every request.
	r.insert, err = db.PrepareNamed(`
		INSERT INTO contacts (first_name, last_name, phone, email, address)
		VALUES (:first_name, :last_name, :phone, :email, :address)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	if r.selectWhereID, err = db.Preparex(selectContacts + ` WHERE id = ?`); err != nil {
		return nil, fmt.Errorf("prepare select by id: %w", err)
	}
	if r.selectWherePhone, err = db.Preparex(selectContacts + ` WHERE phone = ? AND id <> ? ORDER BY id LIMIT 1`); err != nil {
		return nil, fmt.Errorf("prepare select by phone: %w", err)
	}
	if r.selectWhereEmail, err = db.Preparex(selectContacts + ` WHERE email = ? AND id <> ? ORDER BY id LIMIT 1`); err != nil {
		return nil, fmt.Errorf("prepare select by email: %w", err)
	}
	if r.selectPage, err = db.Preparex(selectContacts + ` ORDER BY id LIMIT ? OFFSET ?`); err != nil {
		return nil, fmt.Errorf("prepare select page: %w", err)
	}
	if r.deleteWhereID, err = db.Preparex(`DELETE FROM contacts WHERE id = ?`); err != nil {
		return nil, fmt.Errorf("prepare delete: %w", err)
	}
	return r, nil
}

// FindContactByField looks up a contact by phone or email, skipping excludeID.
func (r *ContactRepository) FindContactByField(ctx context.Context, field domain.ContactField, value string, excludeID int64) (*domain.Contact, error) {
	var stmt *sqlx.Stmt
	switch field {
	case domain.FieldPhone:
		stmt = r.selectWherePhone
	case domain.FieldEmail:
		stmt = r.selectWhereEmail
	default:
		return nil, fmt.Errorf("lookup by %q: unsupported field", field)
	}
	var contacts []domain.Contact
	if err := stmt.SelectContext(ctx, &contacts, value, excludeID); err != nil {
		return nil, fmt.Errorf("query contact by %s: %w", field, err)
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return &contacts[0], nil
}

// GetContact retrieves a contact by ID.
func (r *ContactRepository) GetContact(ctx context.Context, id int64) (*domain.Contact, error) {
	var contacts []domain.Contact
	if err := r.selectWhereID.SelectContext(ctx, &contacts, id); err != nil {
		return nil, fmt.Errorf("query contact: %w", err)
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return &contacts[0], nil
}

// ListContacts returns a page of contacts in id order.
func (r *ContactRepository) ListContacts(ctx context.Context, skip, limit int) ([]domain.Contact, error) {
	contacts := []domain.Contact{}
	if err := r.selectPage.SelectContext(ctx, &contacts, limit, skip); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// CreateContact inserts a contact and returns the id assigned by the database.
func (r *ContactRepository) CreateContact(ctx context.Context, contact *domain.Contact) (int64, error) {
	result, err := r.insert.ExecContext(ctx, contact)
	if err != nil {
		return 0, mapError("insert contact", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}
	return id, nil
}

// UpdateContact writes only the present fields of update.
func (r *ContactRepository) UpdateContact(ctx context.Context, id int64, update domain.ContactUpdate) (bool, error) {
	var args []any
	var sets []string
	add := func(column string, value *string) {
		args = append(args, value)
		sets = append(sets, column+" = ?")
	}
	if update.FirstName.Set {
		add("first_name", update.FirstName.Value)
	}
	if update.LastName.Set {
		add("last_name", update.LastName.Value)
	}
	if update.Phone.Set {
		add("phone", update.Phone.Value)
	}
	if update.Email.Set {
		add("email", update.Email.Value)
	}
	if update.Address.Set {
		add("address", update.Address.Value)
	}
	if len(sets) == 0 {
		contact, err := r.GetContact(ctx, id)
		return contact != nil, err
	}

	// MySQL reports zero affected rows when the values are unchanged, so
	// existence is decided by a lookup rather than RowsAffected.
	contact, err := r.GetContact(ctx, id)
	if err != nil || contact == nil {
		return false, err
	}
	args = append(args, id)
	query := "UPDATE contacts SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return false, mapError("update contact", err)
	}
	return true, nil
}

// DeleteContact removes a contact.
func (r *ContactRepository) DeleteContact(ctx context.Context, id int64) (bool, error) {
	result, err := r.deleteWhereID.ExecContext(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete contact: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

// Ping checks the database is reachable.
func (r *ContactRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the prepared statements and the database handle.
func (r *ContactRepository) Close() {
	for _, stmt := range []*sqlx.Stmt{r.selectWhereID, r.selectWherePhone, r.selectWhereEmail, r.selectPage, r.deleteWhereID} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if r.insert != nil {
		_ = r.insert.Close()
	}
	_ = r.db.Close()
}

// mapError turns duplicate-key errors from either driver into domain conflicts.
func mapError(op string, err error) error {
	if conflict := conflictFrom(err); conflict != nil {
		return fmt.Errorf("%s: %w", op, conflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func conflictFrom(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return repository.ConflictFromConstraint(mysqlDuplicateKey(myErr.Message))
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && isSQLiteUnique(liteErr) {
		return repository.ConflictFromConstraint(sqliteUniqueColumn(liteErr.Error()))
	}
	return nil
}

// isSQLiteUnique accepts the extended code and the primary code with a UNIQUE message.
func isSQLiteUnique(err *sqlite.Error) bool {
	switch err.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	}
	return false
}

// mysqlDuplicateKey extracts the key name from
// "Duplicate entry '<value>' for key '<table>.<key>'".
func mysqlDuplicateKey(msg string) string {
	i := strings.LastIndex(msg, "for key ")
	if i < 0 {
		return ""
	}
	return msg[i+len("for key "):]
}

// sqliteUniqueColumn extracts the column from
// "constraint failed: UNIQUE constraint failed: <table>.<column> (2067)".
func sqliteUniqueColumn(msg string) string {
	i := strings.LastIndex(msg, "failed: ")
	if i < 0 {
		return ""
	}
	column := msg[i+len("failed: "):]
	if j := strings.IndexAny(column, " ,("); j >= 0 {
		column = column[:j]
	}
	return column
}
