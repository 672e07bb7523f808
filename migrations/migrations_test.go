package migrations

import (
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestEmbeddedMigrationsParse(t *testing.T) {
	source, err := iofs.New(files, ".")
	if err != nil {
		t.Fatalf("iofs: %v", err)
	}
	first, err := source.First()
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first != 1 {
		t.Errorf("first version = %d, want 1", first)
	}
	up, _, err := source.ReadUp(first)
	if err != nil {
		t.Fatalf("read up: %v", err)
	}
	defer up.Close()
	if _, _, err := source.ReadDown(first); err != nil {
		t.Fatalf("read down: %v", err)
	}
}

func TestSchemaTracksBalanceApplication(t *testing.T) {
	data, err := files.ReadFile("000001_init.up.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	schema := string(data)
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS transactions",
		"balance_applied_at TIMESTAMPTZ",
		"current_balance NUMERIC(15,2)",
		"CREATE TABLE IF NOT EXISTS gas_prices",
	} {
		if !strings.Contains(schema, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}
