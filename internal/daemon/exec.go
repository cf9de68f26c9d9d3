package daemon

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/palaver-ai/pa/internal/shell"
)

// execRequest is the body of the exec bridge endpoint. The external
// agent binary calls it so every shell command it wants runs behind the
// daemon's security gate and process registry.
type execRequest struct {
	Command    string `json:"command"`
	Background bool   `json:"background,omitempty"`
	YieldMs    int    `json:"yieldMs,omitempty"`
}

func (d *Daemon) handleExec(ctx context.Context, c *app.RequestContext) {
	var req execRequest
	if err := sonic.Unmarshal(c.GetRequest().Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid request body"})
		return
	}
	if req.Command == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "command is required"})
		return
	}

	result := d.executor.Exec(ctx, shell.Options{
		Command:    req.Command,
		Background: req.Background,
		YieldMs:    req.YieldMs,
	})
	c.JSON(consts.StatusOK, result)
}
