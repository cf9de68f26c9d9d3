package daemon

import (
	"context"
	"net"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	hzServer "github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	hzprom "github.com/hertz-contrib/monitor-prometheus"

	pa "github.com/palaver-ai/pa"
	"github.com/palaver-ai/pa/internal/adapter/httpapi"
	"github.com/palaver-ai/pa/internal/pkg/logs"
	"github.com/palaver-ai/pa/internal/pkg/prometheus"
	pautils "github.com/palaver-ai/pa/internal/pkg/utils"
)

// buildServer constructs the daemon's HTTP surface: health, the
// synchronous message endpoint, the exec bridge, and the Prometheus
// exposition endpoint when a metrics bind is configured.
func (d *Daemon) buildServer() error {
	bind := d.cfg.Gateway.Bind
	if bind == "" {
		bind = "127.0.0.1:7788"
	}
	if host, _, err := net.SplitHostPort(bind); err == nil && !pautils.IsPrivateHost(host) {
		logs.Warn("[daemon] gateway bind %s is not a private interface; the message and exec endpoints are unauthenticated", bind)
	}

	opts := []config.Option{
		hzServer.WithHostPorts(bind),
		hzServer.WithReadTimeout(60 * time.Second),
		hzServer.WithWriteTimeout(6 * time.Minute),
		hzServer.WithExitWaitTime(5 * time.Second),
	}
	if metricsBind := d.cfg.Gateway.MetricsBind; metricsBind != "" {
		opts = append(opts, hzServer.WithTracer(hzprom.NewServerTracer(
			metricsBind, "/metrics",
			hzprom.WithRegistry(prometheus.GetRegistry()),
			hzprom.WithEnableGoCollector(true),
		)))
		logs.Info("[daemon] metrics on %s/metrics", metricsBind)
	}

	hlog.SetLogger(logs.NewHlogLogger(logs.DefaultLogger()))
	d.server = hzServer.New(opts...)

	d.server.GET("/health", func(_ context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, utils.H{"status": "ok", "version": pa.VERSION})
	})
	d.server.POST(httpapi.MessagePath, d.messageRoute())
	d.server.POST("/api/v1/exec", d.handleExec)
	d.server.POST("/api/v1/cron", d.handleCron)
	d.server.POST("/api/v1/memory/search", d.handleMemorySearch)
	return nil
}

// messageRoute serves the synchronous message endpoint. When the http
// adapter is enabled its pending-reply table does the waiting;
// otherwise the endpoint reports itself disabled.
func (d *Daemon) messageRoute() app.HandlerFunc {
	for _, a := range d.adapters {
		if api, ok := a.(*httpapi.API); ok {
			return api.Route()
		}
	}
	return func(_ context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusNotImplemented, utils.H{"error": "http adapter is disabled"})
	}
}
