package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"record_state", "record_versions"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestSchema_StateTable(t *testing.T) {
	s := createTestStore(t)
	columns := getTableColumns(t, s.db, "record_state")
	for _, col := range []string{"key", "value", "seq"} {
		if !contains(columns, col) {
			t.Errorf("record_state table missing column %q", col)
		}
	}
}

func TestSchema_VersionsTable(t *testing.T) {
	s := createTestStore(t)
	columns := getTableColumns(t, s.db, "record_versions")
	for _, col := range []string{"seq", "key", "tx_id", "value", "is_delete", "recorded_at"} {
		if !contains(columns, col) {
			t.Errorf("record_versions table missing column %q", col)
		}
	}
}

func TestConstraint_VersionsUniqueTxID(t *testing.T) {
	s := createTestStore(t)

	insert := `INSERT INTO record_versions (key, tx_id, value, is_delete, recorded_at) VALUES (?, ?, ?, 0, ?)`
	if _, err := s.db.Exec(insert, "k", "tx-1", []byte("a"), "2022-06-22T10:00:00Z"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := s.db.Exec(insert, "k", "tx-1", []byte("b"), "2022-06-22T10:00:01Z"); err == nil {
		t.Error("expected UNIQUE violation on duplicate tx_id")
	}
}

func TestConstraint_IsDeleteBoolean(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(
		`INSERT INTO record_versions (key, tx_id, value, is_delete, recorded_at) VALUES ('k', 'tx', x'', 2, 'now')`,
	)
	if err == nil {
		t.Error("expected CHECK violation for is_delete = 2")
	}
}

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open raw db: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	indexes := getTableIndexes(t, s.db, "record_versions")
	if !contains(indexes, "idx_record_versions_key_seq") {
		t.Errorf("expected idx_record_versions_key_seq after migration, got indexes: %v", indexes)
	}
}
