package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/irfansharif/iconwire/internal/app"
	"github.com/irfansharif/iconwire/internal/config"
	"github.com/irfansharif/iconwire/internal/memory"
	"github.com/irfansharif/iconwire/internal/palette"
	"github.com/irfansharif/iconwire/internal/render"
)

const logFlags = log.Ltime | log.Lshortfile

var runtimeLogger *log.Logger = log.New(io.Discard, "", 0)

var configPath = flag.String("config", "", "path to a TOML config file (default $"+config.EnvPath+")")

func init() {
	// OpenGL contexts are tied to specific OS threads - let's pin to just one.
	runtime.LockOSThread()
	log.SetFlags(logFlags)

	if os.Getenv("ICONWIRE_DEBUG_RUNTIME") == "1" {
		runtimeLogger = log.New(os.Stdout, "[runtime] ", log.Ltime|log.Lmsgprefix)
	}
}

func makeTitle(title, toolbar string, fps, avgFrameTime float64, renderStats render.Stats, memStats memory.Stats) string {
	return fmt.Sprintf("%s %s (%.1f FPS, %.2fms/frame, %d elements, %d triangles, %d draw calls/frame, %.2fµs/draw, %.2fms/prepare, %.2fMiB GPU)",
		title,
		toolbar,
		fps,
		avgFrameTime,
		memStats.TotalElements,
		memStats.TotalVertices/3,
		memStats.DrawCallsPerFrame,
		renderStats.LastDrawTimeUs,
		renderStats.LastPrepareTimeMs,
		float64(memStats.TotalGPUBytes)/(1024.0*1024.0),
	)
}

func main() {
	flag.Parse()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	base := palette.Default()
	if s, ok := seed(); ok {
		base = palette.RandomTextures(rand.New(rand.NewSource(s)))
	}
	pal, err := cfg.PaletteFrom(base)
	if err != nil {
		log.Fatalf("Failed to build palette: %v", err)
	}

	if err := glfw.Init(); err != nil {
		log.Fatalf("Failed to initialize GLFW: %v", err)
	}
	defer glfw.Terminate()

	// Configure GLFW window hints - use OpenGL 4.1.
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		log.Fatalf("Failed to initialize OpenGL: %v", err)
	}
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	cw, ch := window.GetFramebufferSize()
	application, err := app.NewApp(cfg, pal, cw, ch)
	if err != nil {
		log.Fatalf("Failed to create editor: %v", err)
	}
	defer application.Cleanup()

	NewEventHandlers(application, window)

	bg := pal.Background
	frameCount, frameTimeSum := 0, 0.0
	frameIndex := 0
	lastFPSUpdate := time.Now()

	// Main loop.
	for !window.ShouldClose() {
		frameStart := time.Now()

		if err := application.PrepareRenderer(); err != nil {
			log.Fatalf("Failed to prepare renderer: %v", err)
		}

		w, h := window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(w), int32(h))
		gl.ClearColor(float32(bg.R), float32(bg.G), float32(bg.B), 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		application.Draw()
		window.SwapBuffers()
		glfw.PollEvents()

		frameTime := time.Since(frameStart).Seconds() * 1000.0 // ms
		frameTimeSum += frameTime

		frameCount++
		frameIndex++
		now := time.Now()
		if now.Sub(lastFPSUpdate) >= time.Second {
			fps := float64(frameCount) / now.Sub(lastFPSUpdate).Seconds()
			avgFrameTime := frameTimeSum / float64(frameCount)
			frameCount, frameTimeSum = 0, 0.0
			lastFPSUpdate = now

			memStats := application.MemoryController.Stats()
			renderStats := application.Renderer.Stats()

			window.SetTitle(
				makeTitle(cfg.Window.Title, application.View.Toolbar(), fps, avgFrameTime, renderStats, memStats),
			)

			runtimeLogger.Println("=== Performance statistics ===")
			runtimeLogger.Printf("Frame rate:     %.1f FPS (%.2f ms/frame, %d draw calls/frame)", fps, avgFrameTime, memStats.DrawCallsPerFrame)
			runtimeLogger.Printf("Scene:          %d nodes, %d connections (%s)", len(application.Scene.Nodes()), len(application.Scene.Connections()), application.View.Tool)
			runtimeLogger.Printf("Geometry:       %d elements, %d triangles, %d uploads last frame", memStats.TotalElements, memStats.TotalVertices/3, renderStats.Uploads)
			runtimeLogger.Printf("GPU memory:     %.2f MiB", float64(memStats.TotalGPUBytes)/(1024.0*1024.0))
			runtimeLogger.Printf("Render time:    %.2f µs (last draw), %.2f ms (last prepare)", renderStats.LastDrawTimeUs, renderStats.LastPrepareTimeMs)
			runtimeLogger.Printf("Compaction:     %d events (%d slots relocated, %d batches deleted), %.2f μs (last)", memStats.CompactionEvents, memStats.SlotsRelocated, memStats.BatchDeletions, memStats.LastCompactionTimeUs)
			runtimeLogger.Println("==============================")

			application.MemoryController.PrintStats()
		}

		if err := application.Maintain(frameIndex); err != nil {
			log.Fatalf("Integrity check failed: %v", err)
		}
	}
}

// seed returns $ICONWIRE_SEED, which randomizes the texture colours.
func seed() (int64, bool) {
	seedStr := os.Getenv("ICONWIRE_SEED")
	if seedStr == "" {
		return 0, false
	}
	seed, err := strconv.ParseInt(seedStr, 10, 64)
	if err != nil {
		log.Fatalf("Invalid ICONWIRE_SEED value '%s': %v", seedStr, err)
	}
	return seed, true
}
