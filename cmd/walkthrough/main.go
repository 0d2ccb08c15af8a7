// Command walkthrough opens a glTF/GLB model and lets the user walk through it in first person
// with keyboard and mouse, a gamepad, or both.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-walk/engine"
	"github.com/Carmen-Shannon/oxy-walk/engine/camera"
	"github.com/Carmen-Shannon/oxy-walk/engine/collision"
	"github.com/Carmen-Shannon/oxy-walk/engine/input"
	"github.com/Carmen-Shannon/oxy-walk/engine/lightmap"
	"github.com/Carmen-Shannon/oxy-walk/engine/loader"
	"github.com/Carmen-Shannon/oxy-walk/engine/model"
	"github.com/Carmen-Shannon/oxy-walk/engine/navigation"
	"github.com/Carmen-Shannon/oxy-walk/engine/profiler"
	"github.com/Carmen-Shannon/oxy-walk/engine/renderer"
	"github.com/Carmen-Shannon/oxy-walk/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-walk/engine/window"
	"github.com/Carmen-Shannon/oxy-walk/internal/config"
	"github.com/Carmen-Shannon/oxy-walk/internal/logging"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/samber/lo"
)

// mobileEventBuffer holds a few frames of pointer-drag and gamepad events between snapshots.
const mobileEventBuffer = 256

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the TOML config file (created with defaults if missing)")
	modelPath := flag.String("model", "", "glTF or GLB model to walk through; overrides Viewer.ModelPath")
	lightmapPath := flag.String("lightmap", "", "HDR or EXR lightmap for the model; overrides Viewer.LightmapPath")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.Setup(cfg.Viewer.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	run(cfg, assets{
		model:    lo.CoalesceOrEmpty(*modelPath, cfg.Viewer.ModelPath),
		lightmap: lo.CoalesceOrEmpty(*lightmapPath, cfg.Viewer.LightmapPath),
	}, logger)
}

// assets names the files a run loads in the background.
type assets struct {
	model    string
	lightmap string
}

// run owns the window thread until the window closes.
func run(cfg config.Config, files assets, logger *slog.Logger) {
	win := window.NewWindow(
		window.WithTitle(cfg.Viewer.Title),
		window.WithWidth(cfg.Viewer.Width),
		window.WithHeight(cfg.Viewer.Height),
	)
	defer func() {
		if err := win.Close(); err != nil {
			logger.Warn("window close failed", "error", err)
		}
	}()

	presentMode := renderer.PresentModeUncapped
	if cfg.Viewer.VSync {
		presentMode = renderer.PresentModeVSync
	}
	msaa := renderer.MSAAOff
	if cfg.Viewer.MSAA {
		msaa = renderer.MSAA4x
	}
	r := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(msaa),
		renderer.WithLogger(logger),
	)
	defer r.Release()

	nav := cfg.Navigation
	cam := camera.NewCamera(
		camera.WithPosition(mgl32.Vec3{float32(nav.StartX), float32(nav.StartY), float32(nav.StartZ)}),
		camera.WithAspect(float32(win.Width())/float32(win.Height())),
	)

	events := make(chan input.MobileEvent, mobileEventBuffer)
	agg := input.NewAggregator(
		input.WithLookSensitivity(nav.LookSensitivity),
		input.WithMobileEvents(events),
		input.WithJoystickExponent(nav.JoystickExponent),
		input.WithInitialOrientation(cam.Yaw(), cam.Pitch()),
		input.WithPointerLockRequester(func() { win.SetPointerLock(true) }),
		input.WithLogger(logger),
	)
	navigator := navigation.NewNavigator(cam, agg,
		navigation.WithSpeed(float32(nav.Speed)),
		navigation.WithEyeHeight(float32(nav.EyeHeight)),
		navigation.WithSmoothing(cfg.SmoothingMode()),
		navigation.WithSmoothingFactor(float32(nav.SmoothingFactor)),
		navigation.WithDampingFactor(float32(nav.DampingFactor)),
		navigation.WithReferenceFrameRate(float32(nav.ReferenceFrameRate)),
		navigation.WithLogger(logger),
	)

	win.SetKeyDownCallback(func(code uint32) { agg.KeyDown(int(code)) })
	win.SetKeyUpCallback(func(code uint32) { agg.KeyUp(int(code)) })
	win.SetMouseDeltaCallback(agg.MouseMove)

	// while unlocked, a left drag looks around through the touch pad and a short press is a click
	drag := input.NewPointerDrag(input.NewTouchLookPad(nav.TouchLookSensitivity), events, input.DefaultClickSlop)
	win.SetPointerCallback(func(ev window.PointerEvent) {
		switch ev.Phase {
		case window.PointerDown:
			drag.Press(ev.X, ev.Y)
		case window.PointerMove:
			drag.Move(ev.X, ev.Y)
		case window.PointerUp:
			if drag.Release(ev.X, ev.Y) {
				agg.Click()
			}
		case window.PointerCancel:
			drag.Cancel()
		}
	})
	gamepad := input.NewGamepadFeed(events, nav.JoystickDeadzone, nav.GamepadLookSpeed)

	win.SetPointerLockCallback(func(locked bool) {
		agg.SetPointerLocked(locked)
		logger.Debug("pointer lock changed", "locked", locked)
	})
	win.SetFocusLostCallback(agg.ReleaseAll)

	prof := profiler.NewProfiler(
		profiler.WithLogger(logger),
		profiler.WithStats(func() []any {
			s := navigator.Stats()
			return []any{
				"ready", navigator.Ready(),
				"direct", s.Direct, "slide_x", s.SlideX, "slide_z", s.SlideZ, "rejected", s.Rejected,
				"dropped_events", drag.Dropped() + gamepad.Dropped(),
			}
		}),
	)
	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithProfiler(prof),
		engine.WithProfiling(cfg.Viewer.ProfilerEnabled),
		engine.WithRenderFrameLimit(cfg.Viewer.FrameLimit),
		engine.WithLogger(logger),
	)
	eng.SetResizeCallback(func(width, height int) {
		r.Resize(width, height)
		cam.SetAspect(float32(width) / float32(height))
	})

	eng.SetTickCallback(func(dt float32) {
		state, connected := win.PollGamepad()
		gamepad.Update(input.GamepadAxes(state), connected, float64(dt))
		navigator.Tick(dt)
		cam.Update()
	})
	eng.SetRenderCallback(func(float32) {
		if err := r.Render(cam.Uniform()); err != nil {
			logger.Debug("frame skipped", "error", err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if files.lightmap != "" {
		go applyLightmap(cfg, files.lightmap, eng, r, logger)
	}
	go prepare(ctx, cfg, files.model, eng, r, navigator, logger)

	eng.Run()
}

// prepare loads the model, hands it to the renderer, then collects obstacles and enables
// navigation. GPU and navigation handoffs run on the main thread through eng.Post.
func prepare(ctx context.Context, cfg config.Config, path string, eng engine.Engine, r renderer.Renderer, nav navigation.Navigator, logger *slog.Logger) {
	ld := loader.NewLoader(loader.BackendTypeGLTF, loader.WithLogger(logger))
	pending := ld.LoadAsync(path)

	root, err := pending.Wait(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("model unavailable", "model", path, "error", err)
		}
		return
	}
	baked := model.Bake(path, root)
	if baked.MeshCount() > 0 && baked.LightmapMeshCount() == 0 {
		logger.Debug("model has no texture coordinates; baked light will not show", "model", path)
	}
	eng.Post(func() {
		if err := r.Upload(baked); err != nil {
			logger.Error("model upload failed", "model", path, "error", err)
		}
	})

	set, err := collision.Await(ctx, pending,
		collision.WithLeafSize(cfg.Collision.LeafSize),
		collision.WithWorkers(cfg.Collision.Workers),
		collision.WithScanDelay(cfg.ScanDelay()),
		collision.WithCollectorLogger(logger),
	)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("obstacle collection failed", "model", path, "error", err)
		}
		return
	}

	eng.Post(func() {
		nav.SetObstacles(set,
			collision.WithMargin(float32(cfg.Collision.Margin)),
			collision.WithMinDistance(float32(cfg.Collision.MinMoveDistance)),
			collision.WithBackfaceCulling(cfg.Collision.BackfaceCulling),
		)
	})
}

// applyLightmap decodes the lightmap off the main thread and binds it on the main thread.
// A missing or unreadable lightmap is not fatal: the model renders with directional shading only.
func applyLightmap(cfg config.Config, path string, eng engine.Engine, r renderer.Renderer, logger *slog.Logger) {
	img, err := lightmap.Load(path)
	if err != nil {
		logger.Warn("lightmap unavailable, rendering without baked light", "lightmap", path, "error", err)
		return
	}
	m := material.NewMaterial(
		material.WithName(path),
		material.WithLightmap(img),
		material.WithLightmapIntensity(float32(cfg.Viewer.LightmapIntensity)),
	)
	eng.Post(func() {
		if err := r.SetMaterial(m); err != nil {
			logger.Warn("lightmap upload failed", "lightmap", path, "error", err)
		}
	})
}
