// Package workspace manages the assistant's working directory: the
// identity and checklist templates it boots from, and the daily audit
// log of processed turns.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/palaver-ai/pa/internal/consts"
	"github.com/palaver-ai/pa/internal/pkg/logs"
)

// Bootstrap materializes the embedded markdown templates into the
// workspace. Existing files are left alone unless force is set, so user
// edits survive re-runs of `pa init`.
func Bootstrap(workspace string, force bool) error {
	if workspace == "" {
		return fmt.Errorf("workspace path is empty")
	}
	if err := os.MkdirAll(workspace, 0o700); err != nil {
		return fmt.Errorf("create workspace %s: %w", workspace, err)
	}

	for name, content := range consts.WorkspaceMarkdownTemplates {
		path := filepath.Join(workspace, name)
		if _, err := os.Stat(path); err == nil && !force {
			logs.Debug("[workspace] %s exists, skipping", name)
			continue
		}

		if dir := filepath.Dir(path); dir != workspace {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return fmt.Errorf("create dir %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return fmt.Errorf("write template %s: %w", name, err)
		}
		logs.Info("[workspace] wrote %s", name)
	}
	return nil
}
