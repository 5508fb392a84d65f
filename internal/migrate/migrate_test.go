package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/and161185/honeyrae/migrations"
)

func TestEmbeddedMigrationsAreGooseFiles(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil || len(files) == 0 {
		t.Fatalf("no embedded migrations: %v", err)
	}
	for _, f := range files {
		b, err := fs.ReadFile(migrations.FS, f)
		if err != nil {
			t.Fatal(err)
		}
		s := string(b)
		if !strings.Contains(s, "-- +goose Up") || !strings.Contains(s, "-- +goose Down") {
			t.Fatalf("%s lacks goose annotations", f)
		}
	}
}

func TestSchemaEnforcesCompletionRequiresEmployee(t *testing.T) {
	t.Parallel()

	b, err := fs.ReadFile(migrations.FS, "00001_init.sql")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "CHECK (date_completed IS NULL OR employee_id IS NOT NULL)") {
		t.Fatalf("tickets table must reject completion without an employee")
	}
}
