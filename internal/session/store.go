package session

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/palaver-ai/pa/internal/pkg/logs"
)

const (
	dirMode  = 0o700
	fileMode = 0o600

	maxLineBytes = 4 * 1024 * 1024
)

// Store reads and writes transcript files under root. Writes to a given
// path are serialized by a per-path lock so concurrent appends cannot
// interleave within a JSON line.
type Store struct {
	root  string
	locks sync.Map // path -> *sync.Mutex
}

func NewStore(dataDir string) *Store {
	return &Store{root: filepath.Join(dataDir, "sessions")}
}

// keySanitizer strips path separators out of session keys so a hostile
// sourceId cannot name a file outside the sessions directory.
var keySanitizer = strings.NewReplacer("/", "_", "\\", "_")

// Path returns the transcript file for a session key. The key is
// flattened into a single filename under root.
func (s *Store) Path(sessionKey string) string {
	return filepath.Join(s.root, keySanitizer.Replace(sessionKey)+".jsonl")
}

func (s *Store) pathLock(path string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(path, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Append writes one message as a JSON line, creating the directory as
// needed.
func (s *Store) Append(path string, msg Message) error {
	return s.AppendAll(path, []Message{msg})
}

// AppendAll writes each message as one JSON line terminated by \n. An
// empty batch is a no-op.
func (s *Store) AppendAll(path string, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		line, err := sonic.MarshalString(msg)
		if err != nil {
			return fmt.Errorf("marshal session message: %w", err)
		}
		lines = append(lines, line)
	}

	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fileMode)
	if err != nil {
		return fmt.Errorf("open transcript for append: %w", err)
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := writer.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write transcript line: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush transcript: %w", err)
	}
	return nil
}

// Load parses the transcript at path. A missing file yields an empty
// slice. Malformed lines are skipped with a warning; the loader never
// fails on content.
func (s *Store) Load(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	msgs := make([]Message, 0, 16)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var msg Message
		if err := sonic.UnmarshalString(line, &msg); err != nil {
			logs.Warn("[session] skipping malformed line %d in %s: %v", lineNo, path, err)
			continue
		}
		msgs = append(msgs, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return msgs, nil
}

// Rewrite replaces the transcript atomically: the new contents go to a
// .tmp file which is renamed over the original, and the prior contents
// survive as .bak.
func (s *Store) Rewrite(path string, msgs []Message) error {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	var buf strings.Builder
	for _, msg := range msgs {
		line, err := sonic.MarshalString(msg)
		if err != nil {
			return fmt.Errorf("marshal session message: %w", err)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(buf.String()), fileMode); err != nil {
		return fmt.Errorf("write tmp transcript: %w", err)
	}

	if prior, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(path+".bak", prior, fileMode); err != nil {
			logs.Warn("[session] keep transcript backup for %s: %v", path, err)
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace transcript: %w", err)
	}
	return nil
}
