package daemon

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// cronRequest is the body of the cron bridge endpoint: the external
// agent manages reminders through it (add/list/update/remove).
type cronRequest struct {
	Action string         `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
}

func (d *Daemon) handleCron(_ context.Context, c *app.RequestContext) {
	var req cronRequest
	if err := sonic.Unmarshal(c.GetRequest().Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid request body"})
		return
	}
	if req.Action == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "action is required"})
		return
	}

	outcome := d.cron.Handle(req.Action, req.Args)
	status := consts.StatusOK
	if !outcome.Success {
		status = consts.StatusUnprocessableEntity
	}
	c.JSON(status, outcome)
}
