package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if !result {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if result {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if !result {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM members WHERE id = ?",
			expected: "SELECT * FROM members WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM members WHERE id = ?",
			expected: "SELECT * FROM members WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO members (display_name, email) VALUES (?, ?)",
			expected: "INSERT INTO members (display_name, email) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE members SET display_name = ?, email = ? WHERE id = ?",
			expected: "UPDATE members SET display_name = ?, email = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestLockRowsSuffix(t *testing.T) {
	if NewSQLiteDialect().LockRowsSuffix() != "" {
		t.Error("SQLite should not append a row lock clause")
	}
	if NewPostgresDialect().LockRowsSuffix() != " FOR UPDATE" {
		t.Error("PostgreSQL should lock rows with FOR UPDATE")
	}
	if NewMySQLDialect().LockRowsSuffix() != " FOR UPDATE" {
		t.Error("MySQL should lock rows with FOR UPDATE")
	}
}

func TestInsertIgnoreSuffix(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		want    string
	}{
		{name: "SQLite", dialect: NewSQLiteDialect(), want: " ON CONFLICT (member_id) DO NOTHING"},
		{name: "PostgreSQL", dialect: NewPostgresDialect(), want: " ON CONFLICT (member_id) DO NOTHING"},
		{name: "MySQL", dialect: NewMySQLDialect(), want: " ON DUPLICATE KEY UPDATE member_id = member_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.InsertIgnoreSuffix("member_id"); got != tt.want {
				t.Errorf("InsertIgnoreSuffix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	dsn := NewSQLiteDialect().DSN(DialectConfig{Path: "/tmp/family.db"})
	if !strings.HasPrefix(dsn, "file:/tmp/family.db?") {
		t.Errorf("DSN() = %v, want file: URI", dsn)
	}
	if !strings.Contains(dsn, "_txlock=immediate") {
		t.Errorf("DSN() = %v, want immediate transactions", dsn)
	}
}

func TestMySQLDSNForcesParseTime(t *testing.T) {
	dsn := NewMySQLDialect().DSN(DialectConfig{URL: "user:pass@tcp(localhost:3306)/family"})
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("DSN() = %v, want parseTime=true", dsn)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	sqliteDup := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	sqliteFK := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}

	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{name: "SQLite unique", dialect: NewSQLiteDialect(), err: sqliteDup, want: true},
		{name: "SQLite wrapped unique", dialect: NewSQLiteDialect(), err: fmt.Errorf("insert: %w", sqliteDup), want: true},
		{name: "SQLite foreign key", dialect: NewSQLiteDialect(), err: sqliteFK, want: false},
		{name: "PostgreSQL unique", dialect: NewPostgresDialect(), err: &pq.Error{Code: "23505"}, want: true},
		{name: "PostgreSQL not null", dialect: NewPostgresDialect(), err: &pq.Error{Code: "23502"}, want: false},
		{name: "MySQL duplicate entry", dialect: NewMySQLDialect(), err: &mysql.MySQLError{Number: 1062}, want: true},
		{name: "MySQL other", dialect: NewMySQLDialect(), err: &mysql.MySQLError{Number: 1452}, want: false},
		{name: "plain error", dialect: NewPostgresDialect(), err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
