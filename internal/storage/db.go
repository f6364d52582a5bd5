package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"finance-tracker/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// ErrEmailTaken is returned by CreateUser when the email is already
// registered. Email is the login key and is unique at the schema level.
var ErrEmailTaken = errors.New("email already registered")

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS incomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			amount REAL NOT NULL,
			source TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			amount REAL NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			user_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			remember INTEGER NOT NULL DEFAULT 0,
			last_activity DATETIME DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateUser creates a new user. The email must not already be registered;
// a violation of the unique constraint is reported as ErrEmailTaken.
func (db *DB) CreateUser(username, email, passwordHash string) (*models.User, error) {
	result, err := db.conn.Exec(
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		username, email, passwordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?",
		id,
	)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email, the login key.
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?",
		email,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateIncome inserts a new income record for a user.
func (db *DB) CreateIncome(userID int64, amount float64, source string) (*models.Income, error) {
	result, err := db.conn.Exec(
		"INSERT INTO incomes (amount, source, user_id, created_at) VALUES (?, ?, ?, ?)",
		amount, source, userID, time.Now(),
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	row := db.conn.QueryRow(
		"SELECT id, amount, source, user_id, created_at FROM incomes WHERE id = ?",
		id,
	)
	var in models.Income
	if err := row.Scan(&in.ID, &in.Amount, &in.Source, &in.UserID, &in.CreatedAt); err != nil {
		return nil, err
	}
	return &in, nil
}

// CreateExpense inserts a new expense record for a user.
func (db *DB) CreateExpense(userID int64, amount float64, category, description string) (*models.Expense, error) {
	result, err := db.conn.Exec(
		"INSERT INTO expenses (amount, category, description, user_id, created_at) VALUES (?, ?, ?, ?, ?)",
		amount, category, description, userID, time.Now(),
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	row := db.conn.QueryRow(
		"SELECT id, amount, category, description, user_id, created_at FROM expenses WHERE id = ?",
		id,
	)
	var e models.Expense
	if err := row.Scan(&e.ID, &e.Amount, &e.Category, &e.Description, &e.UserID, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListIncomes retrieves a user's incomes within [from, to), newest first.
func (db *DB) ListIncomes(userID int64, from, to time.Time) ([]models.Income, error) {
	rows, err := db.conn.Query(
		"SELECT id, amount, source, user_id, created_at FROM incomes WHERE user_id = ? AND created_at >= ? AND created_at < ? ORDER BY created_at DESC",
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incomes []models.Income
	for rows.Next() {
		var in models.Income
		if err := rows.Scan(&in.ID, &in.Amount, &in.Source, &in.UserID, &in.CreatedAt); err != nil {
			return nil, err
		}
		incomes = append(incomes, in)
	}
	return incomes, rows.Err()
}

// ListExpenses retrieves a user's expenses within [from, to), newest first.
func (db *DB) ListExpenses(userID int64, from, to time.Time) ([]models.Expense, error) {
	rows, err := db.conn.Query(
		"SELECT id, amount, category, description, user_id, created_at FROM expenses WHERE user_id = ? AND created_at >= ? AND created_at < ? ORDER BY created_at DESC",
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.Category, &e.Description, &e.UserID, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// MonthlySummary holds a user's totals and entries for one calendar month.
type MonthlySummary struct {
	IncomeTotal  float64
	ExpenseTotal float64
	Incomes      []models.Income
	Expenses     []models.Expense
}

// GetMonthlySummary returns a user's incomes and expenses for the given
// month together with their totals.
func (db *DB) GetMonthlySummary(userID int64, year int, month time.Month) (*MonthlySummary, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)

	incomes, err := db.ListIncomes(userID, start, end)
	if err != nil {
		return nil, err
	}
	expenses, err := db.ListExpenses(userID, start, end)
	if err != nil {
		return nil, err
	}

	summary := &MonthlySummary{Incomes: incomes, Expenses: expenses}
	for _, in := range incomes {
		summary.IncomeTotal += in.Amount
	}
	for _, e := range expenses {
		summary.ExpenseTotal += e.Amount
	}
	return summary, nil
}

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(token string, userID int64, remember bool, expiresAt time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, user_id, remember, last_activity, expires_at) VALUES (?, ?, ?, ?, ?)",
		token, userID, remember, time.Now(), expiresAt,
	)
	return err
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	Remember     bool
	LastActivity time.Time
	ExpiresAt    time.Time
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (db *DB) ValidateSessionWithInfo(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(`
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at,
		       s.remember, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP
	`, token)

	var u models.User
	var remember bool
	var lastActivity, expiresAt time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt,
		&remember, &lastActivity, &expiresAt); err != nil {
		return nil, err
	}
	return &SessionInfo{
		User:         &u,
		Remember:     remember,
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		time.Now(), newExpiresAt, token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions.
func (db *DB) CleanExpiredSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP")
	return err
}
