package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/palaver-ai/pa/internal/consts"
)

func TestBootstrapWritesTemplatesAndSkipsExisting(t *testing.T) {
	ws := t.TempDir()
	if err := Bootstrap(ws, false); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	for name := range consts.WorkspaceMarkdownTemplates {
		path := filepath.Join(ws, name)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("template %s missing: %v", name, err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("%s mode = %o", name, perm)
		}
	}

	// User edits survive a second run.
	userFile := filepath.Join(ws, "USER.md")
	if err := os.WriteFile(userFile, []byte("my edits"), 0o600); err != nil {
		t.Fatalf("edit USER.md: %v", err)
	}
	if err := Bootstrap(ws, false); err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	got, _ := os.ReadFile(userFile)
	if string(got) != "my edits" {
		t.Errorf("USER.md overwritten: %q", got)
	}

	// Force restores the template.
	if err := Bootstrap(ws, true); err != nil {
		t.Fatalf("forced Bootstrap: %v", err)
	}
	got, _ = os.ReadFile(userFile)
	if string(got) == "my edits" {
		t.Error("force did not overwrite USER.md")
	}
}

func TestAuditLogRoundTrip(t *testing.T) {
	ws := t.TempDir()
	log := NewAuditLog(ws)
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	log.now = func() time.Time { return day }

	log.Record(AuditEntry{Source: "telegram", SessionKey: "telegram--42", OK: true, DurationMs: 1200})
	log.Record(AuditEntry{Source: "heartbeat", SessionKey: "heartbeat--main", OK: false, DurationMs: 30})

	entries, err := log.ReadDay(day)
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Source != "telegram" || !entries[0].OK {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Source != "heartbeat" || entries[1].OK {
		t.Errorf("second entry = %+v", entries[1])
	}

	info, err := os.Stat(filepath.Join(ws, DailyDirName, "2026-03-14.jsonl"))
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("log mode = %o", perm)
	}
}

func TestAuditLogSkipsMalformedLines(t *testing.T) {
	ws := t.TempDir()
	log := NewAuditLog(ws)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	dir := filepath.Join(ws, DailyDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	content := `{"time":"2026-03-14T09:00:00Z","source":"http","sessionKey":"http--x","ok":true,"durationMs":5}
this is not json
{"time":"2026-03-14T10:00:00Z","source":"slack","sessionKey":"slack--C1","ok":true,"durationMs":9}
`
	if err := os.WriteFile(filepath.Join(dir, "2026-03-14.jsonl"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	entries, err := log.ReadDay(day)
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[1].Source != "slack" {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestAuditLogMissingDayIsEmpty(t *testing.T) {
	log := NewAuditLog(t.TempDir())
	entries, err := log.ReadDay(time.Now())
	if err != nil || entries != nil {
		t.Errorf("missing day = (%v, %v)", entries, err)
	}
}
