package workspace

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/palaver-ai/pa/internal/pkg/logs"
)

// DailyDirName holds the per-day audit logs under the workspace.
const DailyDirName = "daily"

// AuditEntry records one processed gateway turn.
type AuditEntry struct {
	Time       time.Time `json:"time"`
	Source     string    `json:"source"`
	SessionKey string    `json:"sessionKey"`
	OK         bool      `json:"ok"`
	DurationMs int64     `json:"durationMs"`
}

// AuditLog appends turn entries to {workspace}/daily/{YYYY-MM-DD}.jsonl.
// Day rollover happens naturally on the next append.
type AuditLog struct {
	dir string
	mu  sync.Mutex

	// now is replaceable in tests.
	now func() time.Time
}

func NewAuditLog(workspace string) *AuditLog {
	return &AuditLog{
		dir: filepath.Join(workspace, DailyDirName),
		now: time.Now,
	}
}

// Record appends one entry to today's log. Audit failures are logged,
// never propagated: a full disk must not stop the message loop.
func (a *AuditLog) Record(entry AuditEntry) {
	if entry.Time.IsZero() {
		entry.Time = a.now()
	}

	raw, err := sonic.Marshal(entry)
	if err != nil {
		logs.Error("[audit] marshal entry: %v", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(a.dir, 0o700); err != nil {
		logs.Error("[audit] create dir %s: %v", a.dir, err)
		return
	}

	path := a.pathFor(entry.Time)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		logs.Error("[audit] open %s: %v", path, err)
		return
	}
	defer file.Close()

	if _, err := file.Write(append(raw, '\n')); err != nil {
		logs.Error("[audit] write %s: %v", path, err)
	}
}

// ReadDay returns the entries for a given day, oldest first. Malformed
// lines are skipped with a warning; a missing file is an empty day.
func (a *AuditLog) ReadDay(day time.Time) ([]AuditEntry, error) {
	path := a.pathFor(day)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}
	defer file.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry AuditEntry
		if err := sonic.Unmarshal(line, &entry); err != nil {
			logs.Warn("[audit] skipping malformed line in %s: %v", path, err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read audit log %s: %w", path, err)
	}
	return entries, nil
}

func (a *AuditLog) pathFor(day time.Time) string {
	return filepath.Join(a.dir, day.Format("2006-01-02")+".jsonl")
}
