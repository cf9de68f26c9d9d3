package cron

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/palaver-ai/pa/internal/pkg/logs"
)

// StoreFileName is the job file kept under the data directory.
const StoreFileName = "cron-jobs.json"

// Store persists the job list as a JSON array. Saves are atomic (tmp +
// rename) and keep a .bak of the previous file.
type Store struct {
	path string
	jobs map[string]Job
	mu   sync.RWMutex
}

func NewStore(dataDir string) *Store {
	return &Store{
		path: filepath.Join(dataDir, StoreFileName),
		jobs: make(map[string]Job),
	}
}

// Load reads the persisted jobs. A missing file means an empty store.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cron store: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var jobs []Job
	if err := sonic.Unmarshal(data, &jobs); err != nil {
		return fmt.Errorf("unmarshal cron store: %w", err)
	}

	s.jobs = make(map[string]Job, len(jobs))
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return nil
}

// Save writes all jobs to disk atomically, backing up the prior file.
func (s *Store) Save() error {
	jobs := s.List()

	data, err := sonic.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("marshal cron store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create cron store directory: %w", err)
	}

	if prior, rerr := os.ReadFile(s.path); rerr == nil {
		if werr := os.WriteFile(s.path+".bak", prior, 0o600); werr != nil {
			logs.Warn("[cron] keep store backup: %v", werr)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write tmp cron store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace cron store: %w", err)
	}
	return nil
}

func (s *Store) Add(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job already exists: %s", job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *Store) Update(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

// List returns all jobs ordered by creation time for stable output.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out
}
