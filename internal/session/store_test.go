package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
)

func TestAppendAndLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	path := store.Path("telegram--42")

	msgs := []Message{
		NewMessage(RoleUser, "hello"),
		NewMessage(RoleAssistant, "hi there"),
	}
	if err := store.AppendAll(path, msgs); err != nil {
		t.Fatalf("AppendAll: %v", err)
	}

	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d messages, want 2", len(loaded))
	}
	if loaded[0].Role != RoleUser || loaded[0].Content != "hello" {
		t.Errorf("first message = %+v", loaded[0])
	}
	if loaded[1].Role != RoleAssistant || loaded[1].Content != "hi there" {
		t.Errorf("second message = %+v", loaded[1])
	}
}

func TestAppendEmptyBatchIsNoop(t *testing.T) {
	store := NewStore(t.TempDir())
	path := store.Path("k")

	if err := store.AppendAll(path, nil); err != nil {
		t.Fatalf("AppendAll(nil): %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("empty batch created a file")
	}
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	store := NewStore(t.TempDir())
	msgs, err := store.Load(store.Path("never-written"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages from a missing file", len(msgs))
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	store := NewStore(t.TempDir())
	path := store.Path("garbled")

	if err := store.Append(path, NewMessage(RoleUser, "good")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()
	if err := store.Append(path, NewMessage(RoleAssistant, "also good")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	msgs, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("loaded %d messages, want 2 (malformed line skipped)", len(msgs))
	}
}

func TestConcurrentAppendsDoNotTearLines(t *testing.T) {
	store := NewStore(t.TempDir())
	path := store.Path("contended")

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := NewMessage(RoleUser, fmt.Sprintf("m_%d", i))
			if err := store.Append(path, msg); err != nil {
				t.Errorf("Append m_%d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != n {
		t.Fatalf("file has %d lines, want %d", len(lines), n)
	}

	seen := make(map[string]bool, n)
	for _, line := range lines {
		var msg Message
		if err := sonic.UnmarshalString(line, &msg); err != nil {
			t.Fatalf("torn line %q: %v", line, err)
		}
		if seen[msg.Content] {
			t.Errorf("duplicate content %q", msg.Content)
		}
		seen[msg.Content] = true
	}
	for i := 0; i < n; i++ {
		if !seen[fmt.Sprintf("m_%d", i)] {
			t.Errorf("missing message m_%d", i)
		}
	}
}

func TestRewriteIsAtomicAndKeepsBackup(t *testing.T) {
	store := NewStore(t.TempDir())
	path := store.Path("rewritten")

	if err := store.Append(path, NewMessage(RoleUser, "original")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Rewrite(path, []Message{NewMessage(RoleAssistant, "compacted")}); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	msgs, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "compacted" {
		t.Errorf("rewritten transcript = %+v", msgs)
	}

	bak, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(bak), "original") {
		t.Errorf("backup does not hold prior contents: %q", bak)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("tmp file left behind")
	}
}

func TestPathConfinesHostileKeys(t *testing.T) {
	dataDir := t.TempDir()
	store := NewStore(dataDir)
	sessions := filepath.Join(dataDir, "sessions")

	for _, key := range []string{
		"../../etc/passwd",
		"http--../escape",
		"a/b/c",
		"back\\slash",
	} {
		path := store.Path(key)
		if filepath.Dir(path) != sessions {
			t.Errorf("Path(%q) = %q, escapes %q", key, path, sessions)
		}
	}

	// A traversal key still round-trips as an ordinary transcript.
	path := store.Path("../../etc/passwd")
	if err := store.Append(path, NewMessage(RoleUser, "contained")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	msgs, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "contained" {
		t.Errorf("loaded = %+v", msgs)
	}
}

func TestFilePermissions(t *testing.T) {
	dataDir := t.TempDir()
	store := NewStore(dataDir)
	path := store.Path("private")

	if err := store.Append(path, NewMessage(RoleUser, "secret")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
	dirInfo, err := os.Stat(filepath.Join(dataDir, "sessions"))
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if perm := dirInfo.Mode().Perm(); perm != 0o700 {
		t.Errorf("dir mode = %o, want 700", perm)
	}
}
