// Package daemon assembles the long-running assistant: config, the
// transcript store, the cron and heartbeat schedulers, the security
// gate and executor, the transport adapters, and the gateway loop that
// serializes everything into agent turns.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	hzServer "github.com/cloudwego/hertz/pkg/app/server"

	"github.com/palaver-ai/pa/internal/adapter"
	"github.com/palaver-ai/pa/internal/adapter/httpapi"
	"github.com/palaver-ai/pa/internal/adapter/slack"
	"github.com/palaver-ai/pa/internal/adapter/telegram"
	"github.com/palaver-ai/pa/internal/agent"
	"github.com/palaver-ai/pa/internal/bus"
	"github.com/palaver-ai/pa/internal/config"
	"github.com/palaver-ai/pa/internal/cron"
	"github.com/palaver-ai/pa/internal/gateway"
	"github.com/palaver-ai/pa/internal/heartbeat"
	"github.com/palaver-ai/pa/internal/memory"
	"github.com/palaver-ai/pa/internal/pkg/logs"
	"github.com/palaver-ai/pa/internal/procs"
	"github.com/palaver-ai/pa/internal/security"
	"github.com/palaver-ai/pa/internal/session"
	"github.com/palaver-ai/pa/internal/shell"
	"github.com/palaver-ai/pa/internal/workspace"
)

// forceExitDelay is the watchdog deadline for a stuck shutdown.
const forceExitDelay = 10 * time.Second

type Daemon struct {
	cfg *config.Config

	events    *bus.Queue
	registry  *procs.Registry
	executor  *shell.Executor
	store     *session.Store
	memory    memory.Index
	cron      *cron.Manager
	heartbeat *heartbeat.Scheduler
	gateway   *gateway.Gateway
	router    *adapter.Router
	adapters  []adapter.Adapter
	server    *hzServer.Hertz

	runCancel context.CancelFunc
}

func New(cfg *config.Config) *Daemon {
	return &Daemon{cfg: cfg}
}

// Run assembles and starts every component, then blocks in the gateway
// process loop until a shutdown signal arrives.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, d.runCancel = context.WithCancel(ctx)
	defer d.runCancel()

	if err := d.build(ctx); err != nil {
		return err
	}
	d.startAdapters(ctx)

	d.heartbeat.Start(ctx)
	d.cron.RearmTimer()

	go d.server.Spin()

	shutdownDone := d.handleSignals(ctx)

	logs.CtxInfo(ctx, "[daemon] pa is up (config %s)", d.cfg.Hash()[:12])
	d.gateway.ProcessLoop(ctx)

	<-shutdownDone
	return nil
}

func (d *Daemon) build(ctx context.Context) error {
	cfg := d.cfg

	for _, dir := range []string{cfg.Security.Workspace, cfg.Security.DataDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	d.memory = memory.NewFileIndex(cfg.Security.Workspace, cfg.Memory.ExtraPaths)
	if err := d.memory.Init(ctx); err != nil {
		return fmt.Errorf("init memory index: %w", err)
	}

	d.events = bus.NewQueue()
	d.registry = procs.NewRegistry()

	gate := security.NewGate(security.Config{
		AllowedCommands:     cfg.Security.AllowedCommands,
		ExtraValidation:     cfg.Security.CommandsNeedingExtraValidation,
		Workspace:           cfg.Security.Workspace,
		DataDir:             cfg.Security.DataDir,
		AdditionalReadDirs:  cfg.Security.AdditionalReadDirs,
		AdditionalWriteDirs: cfg.Security.AdditionalWriteDirs,
	})
	d.executor = shell.NewExecutor(gate, d.registry, d.events, cfg.Security.Workspace)

	d.store = session.NewStore(cfg.Security.DataDir)
	audit := workspace.NewAuditLog(cfg.Security.Workspace)

	d.cron = cron.NewManager(cfg.Security.DataDir, d.events)
	if err := d.cron.Load(); err != nil {
		return fmt.Errorf("load cron jobs: %w", err)
	}
	d.cron.OnJobFired = func(job cron.Job) {
		logs.Info("[daemon] cron job fired: %s (%s)", job.Label, job.ID)
	}

	d.router = adapter.NewRouter()

	runner := agent.NewCommandRunner(cfg.Agent.Command)
	d.gateway = gateway.New(cfg.Gateway.MaxQueueSize, runner.Turn, agent.OptionsFromConfig(cfg), d.store, d.router, audit)

	d.heartbeat = heartbeat.NewScheduler(cfg.Heartbeat, d.events, cfg.Security.Workspace, func(ctx context.Context, prompt, deliverTo string) {
		_ = d.gateway.Enqueue(ctx, &adapter.Message{
			Source:   heartbeat.Source,
			SourceID: "main",
			Text:     prompt,
		})
	})
	if err := d.router.Register(newHeartbeatDelivery(d.router, cfg.Heartbeat.DeliverTo)); err != nil {
		return err
	}

	if err := d.buildAdapters(); err != nil {
		return err
	}
	return d.buildServer()
}

func (d *Daemon) buildAdapters() error {
	cfg := d.cfg.Adapters

	if cfg.Telegram.Enabled {
		tg, err := telegram.New(cfg.Telegram, d.gateway.Enqueue)
		if err != nil {
			return fmt.Errorf("telegram adapter: %w", err)
		}
		d.adapters = append(d.adapters, tg)
	}
	if cfg.Slack.Enabled {
		sl, err := slack.New(cfg.Slack, d.gateway.Enqueue)
		if err != nil {
			return fmt.Errorf("slack adapter: %w", err)
		}
		d.adapters = append(d.adapters, sl)
	}
	if cfg.HTTP.Enabled {
		d.adapters = append(d.adapters, httpapi.New(d.gateway.Enqueue))
	}

	for _, a := range d.adapters {
		if err := d.router.Register(a); err != nil {
			return fmt.Errorf("register adapter %s: %w", a.Name(), err)
		}
	}
	return nil
}

func (d *Daemon) startAdapters(ctx context.Context) {
	for _, a := range d.adapters {
		go func(a adapter.Adapter) {
			logs.CtxInfo(ctx, "[daemon] starting adapter %s", a.Name())
			if err := a.Start(ctx); err != nil {
				logs.CtxError(ctx, "[daemon] adapter %s stopped with error: %v", a.Name(), err)
			}
		}(a)
	}
}

// handleSignals installs SIGINT/SIGTERM handling. The first signal runs
// an ordered shutdown with a force-exit watchdog; later signals are
// logged and ignored.
func (d *Daemon) handleSignals(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(done)

		var sig os.Signal
		select {
		case sig = <-sigCh:
		case <-ctx.Done():
			d.shutdown(context.Background())
			return
		}
		logs.Info("[daemon] received %s, shutting down", sig)

		go func() {
			for extra := range sigCh {
				logs.Warn("[daemon] received %s during shutdown, ignoring", extra)
			}
		}()

		watchdog := time.AfterFunc(forceExitDelay, func() {
			logs.Error("[daemon] shutdown stuck after %s, forcing exit", forceExitDelay)
			os.Exit(1)
		})
		d.shutdown(context.Background())
		watchdog.Stop()
	}()
	return done
}

// shutdown stops components in reverse dependency order: no new input,
// finish the in-flight turn, then tear down the schedulers.
func (d *Daemon) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, forceExitDelay)
	defer cancel()

	if err := d.gateway.Stop(ctx); err != nil {
		logs.Warn("[daemon] stop gateway: %v", err)
	}
	for _, a := range d.adapters {
		if err := a.Stop(ctx); err != nil {
			logs.Warn("[daemon] stop adapter %s: %v", a.Name(), err)
		}
	}
	d.heartbeat.Stop()
	d.cron.Stop()
	if err := d.server.Shutdown(ctx); err != nil {
		logs.Warn("[daemon] shutdown http server: %v", err)
	}
	if err := d.memory.Close(); err != nil {
		logs.Warn("[daemon] close memory index: %v", err)
	}
	d.runCancel()
	logs.Info("[daemon] all components stopped")
}
