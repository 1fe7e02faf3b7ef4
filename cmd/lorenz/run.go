package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
	"github.com/Carmen-Shannon/oxy-lorenz/common/logger"
	"github.com/Carmen-Shannon/oxy-lorenz/config"
	"github.com/Carmen-Shannon/oxy-lorenz/engine"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/camera"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/points"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/profiler"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/render"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/simulation"
	"github.com/Carmen-Shannon/oxy-lorenz/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// run builds every component from cfg, runs the frame loop until the window closes and
// releases GPU resources on the way out.
func run(cfg *config.Config) error {
	log, err := logger.New(logger.Config{
		LogLevel:    cfg.Logging.Level,
		Encoding:    cfg.Logging.Encoding,
		ServiceName: "lorenz",
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := start(cfg, log); err != nil {
		log.Error("lorenz failed", zap.Error(err))
		return err
	}
	return nil
}

func start(cfg *config.Config, log *zap.Logger) error {
	// ── Window ──────────────────────────────────────────────────────────
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
		window.WithMaxWidth(max(cfg.Window.Width, 1600)),
		window.WithMaxHeight(max(cfg.Window.Height, 1200)),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := win.Close(); err != nil {
			log.Debug("window close", zap.Error(err))
		}
	}()

	// ── Renderer ────────────────────────────────────────────────────────
	presentMode := renderer.PresentModeUncapped
	if cfg.Window.VSync {
		presentMode = renderer.PresentModeVSync
	}
	cc := cfg.Render.ClearColor
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Render.MSAA)),
		renderer.WithClearColor(wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer r.Release()

	// ── Point state ─────────────────────────────────────────────────────
	seeds, err := cfg.Seeds()
	if err != nil {
		return fmt.Errorf("seed points: %w", err)
	}
	buf, err := points.Create(r, seeds)
	if err != nil {
		return err
	}
	defer buf.Release()
	log.Info("point buffer ready",
		zap.Int("count", buf.Count()),
		zap.String("seed", string(cfg.Points.Seed)),
		zap.Uint64("bytes", buf.Size()),
	)

	// ── Camera ──────────────────────────────────────────────────────────
	ctrl := camera.NewFreeFlyController(
		camera.WithPosition(cfg.Camera.Position),
		camera.WithSpeed(cfg.Camera.Speed),
		camera.WithSensitivity(cfg.Camera.Sensitivity),
	)
	if err := ctrl.SetDirection(cfg.Camera.Direction); err != nil {
		return fmt.Errorf("camera direction %v: %w", cfg.Camera.Direction, err)
	}
	cam := camera.NewCamera(
		camera.WithFov(common.Radians(cfg.Camera.FovDegrees)),
		camera.WithAspect(float32(win.Width())/float32(win.Height())),
		camera.WithNear(cfg.Camera.Near),
		camera.WithFar(cfg.Camera.Far),
		camera.WithController(ctrl),
	)

	// ── Simulation ──────────────────────────────────────────────────────
	stageOpts := []simulation.StageOption{simulation.WithLogger(log)}
	if cfg.Simulation.Workers > 0 {
		stageOpts = append(stageOpts, simulation.WithWorkers(cfg.Simulation.Workers))
	}
	var stepper simulation.Stepper
	if cfg.Simulation.HostStepping {
		stepper, err = simulation.NewHostStage(buf, seeds, cfg.Attractor, stageOpts...)
	} else {
		stepper, err = simulation.NewGPUStage(r, buf, cfg.Attractor, stageOpts...)
	}
	if err != nil {
		return fmt.Errorf("create simulation stage: %w", err)
	}
	defer stepper.Release()

	// ── Draw ────────────────────────────────────────────────────────────
	stage, err := render.NewStage(r, cam, buf,
		render.WithPointSize(cfg.Render.PointSize),
		render.WithColor(cfg.Render.Color),
		render.WithSmoothShading(cfg.Render.SmoothShading),
		render.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("create draw stage: %w", err)
	}

	// ── Metrics ─────────────────────────────────────────────────────────
	prof := profiler.NewProfiler(profiler.WithLogger(log))
	if cfg.Metrics.Enabled {
		srv := prof.Serve(cfg.Metrics.Addr)
		defer shutdown(srv, log)
	}

	// ── Engine ──────────────────────────────────────────────────────────
	eng, err := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithCamera(cam),
		engine.WithStepper(stepper),
		engine.WithDrawer(stage),
		engine.WithProfiler(prof),
		engine.WithLogger(log),
		engine.WithPaused(cfg.StartPaused),
		engine.WithFixedStep(cfg.Simulation.FixedStep),
		engine.WithMaxStep(cfg.Simulation.MaxStep),
		engine.WithSingleStep(cfg.Simulation.SingleStep),
	)
	if err != nil {
		return err
	}

	eng.Run()
	return nil
}

func shutdown(srv *http.Server, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("metrics shutdown", zap.Error(err))
	}
}
