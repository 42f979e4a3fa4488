package main

import (
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/MarvinTM/replaceableParts-sub002/internal/game"
	"github.com/MarvinTM/replaceableParts-sub002/internal/metrics"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
	ebitenrender "github.com/MarvinTM/replaceableParts-sub002/internal/render/ebiten"
	"github.com/MarvinTM/replaceableParts-sub002/internal/world/atlas"
)

func main() {
	settingsPath := flag.String("settings", "settings.yaml", "settings YAML file (missing file uses defaults)")
	dataPath := flag.String("data", "data", "directory of rules catalogs, one per subdirectory")
	assetsDir := flag.String("assets", "assets", "sprite atlases (*.json) and loose textures (<key>.png)")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address, e.g. :9090")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	settings, err := game.LoadSettings(*settingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	// Initialize the renderer backend (ebiten)
	renderer := ebitenrender.NewRenderer()
	inputMgr := ebitenrender.NewInputManager()
	loader := ebitenrender.NewResourceLoader()
	engine := ebitenrender.NewEngine()

	recorder := metrics.New()
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, recorder, logger)
	}

	manager := game.NewManager(settings, game.Deps{
		Renderer:  renderer,
		Input:     inputMgr,
		Textures:  loadTextures(renderer, loader, *assetsDir, logger),
		Metrics:   recorder,
		Clipboard: game.SystemClipboard{},
		Logger:    logger,
	}, *dataPath)

	// Set up the window
	engine.SetWindowSize(settings.ScreenWidth, settings.ScreenHeight)
	engine.SetWindowTitle("Replaceable Parts")
	engine.SetWindowResizable(true)

	logger.Info("starting game", "data", *dataPath, "assets", *assetsDir, "catalogs", len(manager.Entries))
	err = engine.RunGame(manager)
	manager.Close()
	if err != nil {
		log.Fatal(err)
	}
}

// loadTextures registers every atlas in dir and falls back to loose PNG
// files for keys no atlas holds. A broken atlas is skipped; its sprites
// draw as placeholders.
func loadTextures(r render.Renderer, loader render.ResourceLoader, dir string, logger *slog.Logger) *atlas.Library {
	atlases := atlas.NewManager()
	configs, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	for _, path := range configs {
		if err := atlases.LoadAtlasConfig(path, loader); err != nil {
			logger.Warn("skipping atlas", "path", path, "err", err)
		}
	}
	cache := atlas.NewCache(r, atlas.DirLoader{Root: dir}, logger.With("component", "textures"))
	return atlas.NewLibrary(atlases, cache)
}

func serveMetrics(addr string, recorder *metrics.Recorder, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", "err", err)
	}
}
