package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"userauth/migrations"
)

func TestAdoptedVersionsHaveMigrations(t *testing.T) {
	for _, v := range adoptedVersions {
		matches, err := fs.Glob(migrations.Files, fmt.Sprintf("%05d_*.sql", v))
		if err != nil {
			t.Fatalf("glob version %d: %v", v, err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected one migration for adopted version %d, found %v", v, matches)
		}
	}
}

func TestAdoptedVersionsCreateMarkerTable(t *testing.T) {
	createMarker := regexp.MustCompile(`(?i)CREATE TABLE (IF NOT EXISTS )?` + regexp.QuoteMeta(adoptionMarker) + `\b`)
	var created bool
	for _, v := range adoptedVersions {
		matches, _ := fs.Glob(migrations.Files, fmt.Sprintf("%05d_*.sql", v))
		for _, name := range matches {
			body, err := fs.ReadFile(migrations.Files, name)
			if err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			if createMarker.Match(body) {
				created = true
			}
		}
	}
	if !created {
		t.Fatalf("expected an adopted migration to create %s", adoptionMarker)
	}
}

func TestEmbeddedMigrationsAreAnnotated(t *testing.T) {
	entries, err := fs.Glob(migrations.Files, "*.sql")
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(entries) < len(adoptedVersions) {
		t.Fatalf("expected at least %d migrations, found %d", len(adoptedVersions), len(entries))
	}
	for _, name := range entries {
		body, err := fs.ReadFile(migrations.Files, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.Contains(string(body), "-- +goose Up") || !strings.Contains(string(body), "-- +goose Down") {
			t.Errorf("%s is missing goose annotations", name)
		}
	}
}
