package migrations

import (
	"errors"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (x UInt8) ENGINE = Memory;

-- second
CREATE TABLE b (y String DEFAULT 'it''s') ENGINE = Memory;
`
	stmts, err := splitStatements(input)
	if err != nil {
		t.Fatalf("splitStatements: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (x UInt8) ENGINE = Memory" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
}

func TestSplitStatements_RejectsSemicolonInLiteral(t *testing.T) {
	if _, err := splitStatements("SELECT 'a;b';"); !errors.Is(err, errSemicolonInLiteral) {
		t.Errorf("err = %v, want errSemicolonInLiteral", err)
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/launchpad")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != "launchpad" {
		t.Errorf("db = %q, want launchpad", db)
	}

	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for dsn without database")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	if err != nil {
		t.Fatalf("load postgres: %v", err)
	}
	if len(pg) == 0 {
		t.Error("no embedded postgres migrations")
	}

	ch, err := load(ClickhouseFS, "clickhouse")
	if err != nil {
		t.Fatalf("load clickhouse: %v", err)
	}
	if len(ch) == 0 {
		t.Fatal("no embedded clickhouse migrations")
	}
	for _, m := range ch {
		stmts, err := splitStatements(m.sql)
		if err != nil {
			t.Errorf("%s: %v", m.name, err)
		}
		if len(stmts) == 0 {
			t.Errorf("%s: no statements", m.name)
		}
	}
}
