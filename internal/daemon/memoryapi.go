package daemon

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// memorySearchRequest is the body of the memory bridge endpoint. The
// external agent queries the daemon's index instead of re-scanning the
// workspace itself.
type memorySearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func (d *Daemon) handleMemorySearch(ctx context.Context, c *app.RequestContext) {
	var req memorySearchRequest
	if err := sonic.Unmarshal(c.GetRequest().Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid request body"})
		return
	}
	if req.Query == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "query is required"})
		return
	}

	hits, err := d.memory.Search(ctx, req.Query, req.Limit)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"hits": hits})
}
