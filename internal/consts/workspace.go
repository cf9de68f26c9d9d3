package consts

import _ "embed"

var (
	//go:embed tpl/AGENTS.md
	WorkspaceAgentsTemplate string

	//go:embed tpl/IDENTITY.md
	WorkspaceIdentityTemplate string

	//go:embed tpl/USER.md
	WorkspaceUserTemplate string

	//go:embed tpl/HEARTBEAT.md
	WorkspaceHeartbeatTemplate string

	//go:embed tpl/MEMORY.md
	WorkspaceMemoryTemplate string
)

// HeartbeatFileName is the workspace checklist folded into the standard
// heartbeat prompt when it carries actionable content.
const HeartbeatFileName = "HEARTBEAT.md"

const WorkspaceMemoryFile = "memory/MEMORY.md"

var WorkspaceMarkdownTemplates = map[string]string{
	"AGENTS.md":        WorkspaceAgentsTemplate,
	"IDENTITY.md":      WorkspaceIdentityTemplate,
	"USER.md":          WorkspaceUserTemplate,
	"HEARTBEAT.md":     WorkspaceHeartbeatTemplate,
	"memory/MEMORY.md": WorkspaceMemoryTemplate,
}
