package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/supersonic-app/nowplaying-bridge/backend/ipc"
	"github.com/supersonic-app/nowplaying-bridge/backend/util"
	"github.com/supersonic-app/nowplaying-bridge/backend/windows"

	"github.com/20after4/configdir"
	"github.com/fsnotify/fsnotify"
)

const (
	configFile = "config.toml"
	artworkDir = "artwork"
)

var ErrAnotherInstance = errors.New("another instance is running")

// Options are command line overrides applied on top of the config file.
type Options struct {
	CLIPath     string
	Interpreter string
	Verbose     bool

	// Event input; os.Stdin if nil.
	Input io.Reader
}

type App struct {
	Config         *Config
	NowPlaying     *NowPlayingManager
	Executor       *CLIExecutor
	Relay          *CommandRelay
	Events         *EventReader
	Artwork        *ArtworkCache
	MPRISHandler   *MPRISHandler
	MPMediaHandler *MPMediaHandler
	SMTCHandler    *SMTCHandler

	appName       string
	appVersionTag string
	configDir     string
	cacheDir      string
	opts          Options

	isFirstLaunch bool // set by config file reader
	bgrndCtx      context.Context
	cancel        context.CancelFunc

	ipcServer   *http.Server
	cfgWatcher  *fsnotify.Watcher
	quitCh      chan struct{}
	quitOnce    sync.Once
	artSurfaces []interface{ ArtworkUpdated() }
}

func (a *App) VersionTag() string {
	return a.appVersionTag
}

func StartupApp(appName, displayAppName, appVersionTag, latestReleaseURL string, opts Options) (*App, error) {
	confDir := configdir.LocalConfig(appName)
	cacheDir := configdir.LocalCache(appName)
	// ensure config and cache dirs exist
	configdir.MakePath(confDir)
	configdir.MakePath(cacheDir)

	a := &App{
		appName:       appName,
		appVersionTag: appVersionTag,
		configDir:     confDir,
		cacheDir:      cacheDir,
		opts:          opts,
		quitCh:        make(chan struct{}),
	}
	a.readConfig(displayAppName)

	if a.Config.IPC.Enabled {
		if _, err := ipc.Connect(); err == nil {
			log.Println("Another instance is running.")
			return nil, ErrAnotherInstance
		}
	}

	if opts.Verbose {
		log.Printf("Starting %s %s...", appName, appVersionTag)
		log.Printf("Using config dir: %s", confDir)
		log.Printf("Using cache dir: %s", cacheDir)
	}

	a.bgrndCtx, a.cancel = context.WithCancel(context.Background())
	a.buildCore()
	a.startIPCServer()
	a.setupSurfaces(displayAppName)
	a.startConfigWatcher()

	if a.Config.Bridge.CheckForUpdates {
		uc := NewUpdateChecker(appVersionTag, latestReleaseURL)
		uc.OnUpdatedVersionFound = func(tag string) {
			log.Printf("A newer version is available: %s (%s)", tag, latestReleaseURL)
		}
		uc.CheckOnce(a.bgrndCtx)
	}

	return a, nil
}

// buildCore creates the state cell, command path and event reader.
func (a *App) buildCore() {
	a.NowPlaying = NewNowPlayingManager()
	interp, cli := a.resolveCommand(a.Config.Bridge)
	a.Executor = NewCLIExecutor(interp, cli)
	a.Relay = NewCommandRelay(a.NowPlaying, a.Executor)

	input := a.opts.Input
	if input == nil {
		input = os.Stdin
	}
	a.Events = NewEventReader(input, a.NowPlaying)
	a.applyVerbose(a.Config.Bridge.Verbose)
	if a.isVerbose(a.Config.Bridge.Verbose) {
		log.Printf("CLI command: %v", a.Executor)
	}

	if a.Config.Artwork.Enabled {
		art, err := NewArtworkCache(filepath.Join(a.cacheDir, artworkDir), a.Config.Artwork)
		if err != nil {
			log.Printf("error creating artwork cache: %v", err)
		} else {
			a.Artwork = art
		}
	}

	a.NowPlaying.OnTrackChange(func(tr NowPlaying) {
		fmt.Printf("[bridge] Now Playing: %s — %s\n", tr.Track, tr.Artist)
		if a.Artwork != nil && tr.ArtURL != "" {
			go a.fetchArtwork(tr.ArtURL)
		}
	})
}

// resolveCommand returns the interpreter and CLI path for the given
// settings, with command line overrides taking precedence.
func (a *App) resolveCommand(b BridgeConfig) (interpreter, cliPath string) {
	cliPath = ResolveCLIPath(firstNonEmpty(a.opts.CLIPath, b.CLIPath))
	if !b.RunCLIDirectly || a.opts.Interpreter != "" {
		interpreter = ResolveInterpreter(firstNonEmpty(a.opts.Interpreter, b.Interpreter))
	}
	return interpreter, cliPath
}

func (a *App) isVerbose(cfgVerbose bool) bool {
	return a.opts.Verbose || cfgVerbose
}

func (a *App) applyVerbose(cfgVerbose bool) {
	v := a.isVerbose(cfgVerbose)
	a.Executor.SetVerbose(v)
	a.Events.SetVerbose(v)
}

func (a *App) startIPCServer() {
	if !a.Config.IPC.Enabled {
		return
	}
	listener, err := ipc.Listen()
	if err != nil {
		log.Printf("error starting IPC listener: %v", err)
		return
	}
	a.ipcServer = ipc.NewServer(a.Relay, ipcBridge{a})
	go a.ipcServer.Serve(listener)
}

// OS media center integrations
func (a *App) setupSurfaces(playerName string) {
	if a.Config.Bridge.PlayerName != "" {
		playerName = a.Config.Bridge.PlayerName
	}
	s := a.Config.Surfaces

	if s.EnableMPRIS && runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		a.setupMPRIS(playerName)
	}
	if s.EnableMPMedia {
		mp, err := InitMPMediaHandler(a.NowPlaying, a.Relay, a.cachedArtPath)
		if err == nil {
			a.MPMediaHandler = mp
			a.artSurfaces = append(a.artSurfaces, mp)
		} else if !errors.Is(err, errUnsupportedPlatform) {
			log.Printf("error initializing macOS media controls: %v", err)
		}
	}
	if s.EnableSMTC {
		sm, err := InitSMTCHandler(a.NowPlaying, a.Relay, a.cachedArtPath)
		if err == nil {
			a.SMTCHandler = sm
			a.artSurfaces = append(a.artSurfaces, sm)
		} else if !errors.Is(err, windows.ErrSMTCUnsupported) {
			log.Printf("error initializing SMTC: %v", err)
		}
	}
}

func (a *App) setupMPRIS(playerName string) {
	a.MPRISHandler = NewMPRISHandler(playerName, a.NowPlaying, a.Relay)
	a.MPRISHandler.ArtURLLookup = func(artURL string) string {
		if p := a.cachedArtPath(artURL); p != "" {
			return util.FileURL(p)
		}
		return ""
	}
	a.MPRISHandler.OnQuit = func() error {
		go a.RequestQuit()
		return nil
	}
	a.MPRISHandler.Start()
	a.artSurfaces = append(a.artSurfaces, a.MPRISHandler)
}

func (a *App) cachedArtPath(artURL string) string {
	if a.Artwork == nil {
		return ""
	}
	return a.Artwork.CachedPath(artURL)
}

// fetchArtwork downloads artwork for a track and tells the surfaces to
// pick it up if the track is still current.
func (a *App) fetchArtwork(artURL string) {
	if _, err := a.Artwork.Fetch(a.bgrndCtx, artURL); err != nil {
		if a.bgrndCtx.Err() == nil {
			log.Printf("error fetching artwork: %v", err)
		}
		return
	}
	if a.NowPlaying.NowPlaying().ArtURL != artURL {
		return
	}
	for _, s := range a.artSurfaces {
		s.ArtworkUpdated()
	}
}

func (a *App) readConfig(playerName string) {
	cfgPath := a.configFilePath()
	var cfgExists bool
	if _, err := os.Stat(cfgPath); err == nil {
		cfgExists = true
	}
	a.isFirstLaunch = !cfgExists
	cfg, err := ReadConfigFile(cfgPath, playerName)
	if err != nil {
		if cfgExists {
			log.Printf("Error reading config file: %v", err)
		}
		cfg = DefaultConfig(playerName)
		if cfgExists {
			backupCfgName := fmt.Sprintf("%s.bak", configFile)
			log.Printf("Config file may be malformed: copying to %s", backupCfgName)
			_ = util.CopyFile(cfgPath, path.Join(a.configDir, backupCfgName))
		}
	}
	a.Config = cfg
}

// startConfigWatcher re-applies [Bridge] settings when the config file
// changes. Other sections take effect on the next start.
func (a *App) startConfigWatcher() {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("error creating config watcher: %v", err)
		return
	}
	if err := w.Add(a.configDir); err != nil {
		log.Printf("error watching config dir: %v", err)
		w.Close()
		return
	}
	a.cfgWatcher = w
	go func() {
		for {
			select {
			case <-a.bgrndCtx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) == configFile && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					a.reloadBridgeConfig()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("config watcher error: %v", err)
			}
		}
	}()
}

func (a *App) reloadBridgeConfig() {
	cfg, err := ReadConfigFile(a.configFilePath(), a.Config.Bridge.PlayerName)
	if err != nil {
		log.Printf("ignoring config change: %v", err)
		return
	}
	a.Executor.SetCommand(a.resolveCommand(cfg.Bridge))
	a.applyVerbose(cfg.Bridge.Verbose)
	if a.isVerbose(cfg.Bridge.Verbose) {
		log.Printf("config reloaded, CLI command: %v", a.Executor)
	}
}

// Run reads events until the input ends, ctx is cancelled or a quit is
// requested. It must be called from the main goroutine, which on macOS
// services the OS run loop meanwhile.
func (a *App) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.Events.Start(runCtx)
	fmt.Println("[bridge] NowPlaying bridge started. Media keys and Control Center active.")

	go func() {
		select {
		case <-a.Events.Done():
		case <-a.quitCh:
		case <-runCtx.Done():
		}
		cancel()
	}()
	RunEventPump(runCtx)
}

// RequestQuit asks Run to return. Safe to call more than once.
func (a *App) RequestQuit() {
	a.quitOnce.Do(func() { close(a.quitCh) })
}

func (a *App) Shutdown() {
	a.cancel()
	if a.cfgWatcher != nil {
		a.cfgWatcher.Close()
	}
	if a.MPRISHandler != nil {
		a.MPRISHandler.Shutdown()
	}
	if a.SMTCHandler != nil {
		a.SMTCHandler.Shutdown()
	}
	if a.ipcServer != nil {
		a.ipcServer.Close()
		ipc.DestroyConn()
	}
	if a.isFirstLaunch {
		// leave a config file with the defaults for the user to edit
		if err := a.Config.WriteConfigFile(a.configFilePath()); err != nil {
			log.Printf("error writing config file: %v", err)
		}
	}
}

func (a *App) configFilePath() string {
	return path.Join(a.configDir, configFile)
}

// ipcBridge exposes the App to the IPC server.
type ipcBridge struct {
	a *App
}

func (b ipcBridge) ProcessLine(line string) bool {
	return b.a.Events.ProcessLine(line)
}

func (b ipcBridge) NowPlaying() ipc.NowPlaying {
	np := b.a.NowPlaying
	tr := np.NowPlaying()
	return ipc.NowPlaying{
		State:      np.PlaybackState().String(),
		Track:      tr.Track,
		Artist:     tr.Artist,
		Album:      tr.Album,
		URI:        tr.URI,
		ArtURL:     tr.ArtURL,
		DurationMs: tr.DurationMs,
		PositionMs: np.Position().Milliseconds(),
	}
}

func (b ipcBridge) Quit() {
	b.a.RequestQuit()
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
