package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"glmctl/internal/config"
	"glmctl/internal/glm"
	"glmctl/internal/hotplug"
	"glmctl/internal/input"
	"glmctl/internal/ipc"
	"glmctl/internal/logging"
	"glmctl/internal/statews"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("glmctld v%s\n", version)
	fmt.Println("Control daemon for Genelec SAM monitors over the GLM USB adapter")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  glmctld [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Daemon that drives a group of Genelec SAM monitors: absolute and")
	fmt.Println("  relative volume with a configurable safety ceiling, mute with a")
	fmt.Println("  capped restore level, standby control, per-monitor mute and LED,")
	fmt.Println("  rotary-dial input and a state WebSocket for UIs.")
	fmt.Println()
	fmt.Println("  The config file is the primary configuration surface; flags override")
	fmt.Println("  individual values for debugging and systemd drop-ins.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (optional; defaults apply without it)")
	fmt.Println()
	fmt.Println("  -max-db float")
	fmt.Printf("        Volume safety ceiling in dB (default %.1f)\n", glm.SafeMaxRestoreDB)
	fmt.Println()
	fmt.Println("  -default-db float")
	fmt.Printf("        Default/reset volume in dB (default %.1f)\n", glm.DefaultVolumeDB)
	fmt.Println()
	fmt.Println("  -simulate")
	fmt.Println("        Use a simulated monitor group instead of real hardware")
	fmt.Println()
	fmt.Println("  -input-device string")
	fmt.Println("        Linux input event device for the rotary dial (e.g. /dev/input/event6)")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for IPC (default \"/tmp/glmctl.sock\")")
	fmt.Println()
	fmt.Println("  -ws-port int")
	fmt.Println("        State WebSocket listener port, 0 disables (default 3002)")
	fmt.Println()
	fmt.Println("  -lock-file string")
	fmt.Println("        Daemon instance lock file (default \"/tmp/glmctld.lock\")")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with defaults (simulated group, IPC + WS on)")
	fmt.Println("  glmctld -simulate")
	fmt.Println()
	fmt.Println("  # Config file plus a one-off ceiling override")
	fmt.Println("  glmctld -config /etc/glmctl.yaml -max-db -20")
}

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		maxDB       = flag.Float64("max-db", glm.SafeMaxRestoreDB, "Volume safety ceiling in dB")
		defaultDB   = flag.Float64("default-db", glm.DefaultVolumeDB, "Default/reset volume in dB")
		simulate    = flag.Bool("simulate", false, "Use a simulated monitor group instead of real hardware")
		inputDevice = flag.String("input-device", "", "Linux input event device for the rotary dial")
		ipcSocket   = flag.String("ipc-socket", "/tmp/glmctl.sock", "Unix domain socket path for IPC")
		wsPort      = flag.Int("ws-port", 3002, "State WebSocket listener port, 0 disables")
		lockFile    = flag.String("lock-file", "/tmp/glmctld.lock", "Daemon instance lock file")
		logLevelStr = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Config file first, then explicit flag overrides on top.
	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	var overrides config.FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-db":
			overrides.MaxVolumeDB = maxDB
		case "default-db":
			overrides.DefaultVolumeDB = defaultDB
		case "simulate":
			overrides.Simulate = simulate
		case "input-device":
			overrides.InputDevice = inputDevice
		case "ipc-socket":
			overrides.IPCSocketPath = ipcSocket
		case "ws-port":
			overrides.StateWSPort = wsPort
		case "lock-file":
			overrides.LockFile = lockFile
		case "log-level":
			overrides.LogLevel = logLevelStr
		}
	})
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := logging.New(logLevel)

	// Single-instance lock.
	lock := flock.New(config.ExpandPath(cfg.Daemon.LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("failed to acquire daemon lock", "lock_file", cfg.Daemon.LockFile, "error", err)
		os.Exit(1)
	}
	if !locked {
		logger.Error("another glmctld instance is already running", "lock_file", cfg.Daemon.LockFile)
		os.Exit(1)
	}
	defer lock.Unlock() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("glmctld stopped")
}

// newDriver selects the GLM transport. Hardware transports plug in here; the
// simulated group is the built-in default.
func newDriver(cfg config.Config) glm.Driver {
	if cfg.GLM.Simulate {
		return glm.NewSimDriver(
			glm.PeerInfo{Address: 2, HardwareName: "8341A", Serial: "SIM-L"},
			glm.PeerInfo{Address: 3, HardwareName: "8341A", Serial: "SIM-R"},
			glm.PeerInfo{Address: 4, HardwareName: "7360A", Serial: "SIM-SUB"},
		)
	}
	return glm.NewSimDriver()
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	driver := newDriver(cfg)
	if !cfg.GLM.Simulate {
		logger.Warn("no hardware transport built in; running against an empty simulated bus",
			"hint", "start with -simulate or inject a hardware driver build")
	}

	ctrl := glm.NewController(driver, logger, glm.Options{
		MaxVolumeDB:     cfg.GLM.MaxVolumeDB,
		DefaultVolumeDB: cfg.GLM.DefaultVolumeDB,
	})
	defer ctrl.Disconnect()

	dial := glm.NewDial(ctrl, cfg.ToDialConfig(), logger)
	defer dial.Close()

	power := glm.NewPowerButton(ctrl, glm.ActionMode(cfg.Power.ActionMode), logger)

	g, gctx := errgroup.WithContext(ctx)

	// State WebSocket: hub + broadcaster + HTTP listener.
	if cfg.StateWS.Port > 0 {
		// KnownMonitors (not Monitors) on purpose: observers and WS clients
		// must never trigger an auto-connect.
		differ := statews.NewDiffer(logger, ctrl.KnownMonitors)
		ctrl.OnStateChange(differ.OnSnapshot)

		server := statews.NewServer(logger, func() statews.InitState {
			return statews.InitState{
				Snapshot: ctrl.Snapshot(),
				PowerOn:  power.IsOn(),
				Monitors: ctrl.KnownMonitors(),
			}
		}, statews.ServerConfig{})

		mux := http.NewServeMux()
		server.Register(mux, "/ws")

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.StateWS.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			server.Hub().Run(gctx)
			return nil
		})
		g.Go(func() error {
			statews.RunBroadcaster(gctx, server.Hub(), differ.Events(), logger)
			return nil
		})
		g.Go(func() error {
			logger.Info("state ws listening", "port", cfg.StateWS.Port)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("state ws server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutCtx)
		})
	}

	// IPC server.
	dispatcher := ipc.NewDispatcher(ctrl, dial, power)
	g.Go(func() error {
		return ipc.RunServer(gctx, config.ExpandPath(cfg.IPC.SocketPath), dispatcher, logger)
	})

	// Input devices.
	if len(cfg.Input.Devices) > 0 {
		devices := cfg.Input.Devices
		g.Go(func() error {
			return input.Run(gctx, devices, dial, power, logger)
		})
	}

	// Adapter hotplug.
	if cfg.Hotplug.Enabled {
		monitor := hotplug.NewMonitor(logger, glm.AdapterVendorID, glm.AdapterProductID,
			func() {
				if err := ctrl.Connect(); err != nil {
					logger.Warn("connect after adapter attach failed", "error", err)
				}
			},
			func() {
				ctrl.Disconnect()
			},
		)
		if err := monitor.Start(gctx); err != nil {
			return fmt.Errorf("start hotplug monitor: %w", err)
		}
		defer monitor.Stop()
	}

	// Initial connect is best-effort: the adapter may not be plugged in yet,
	// and every volume operation auto-connects anyway.
	go func() {
		if err := ctrl.Connect(); err != nil {
			logger.Warn("initial connect failed; waiting for adapter", "error", err)
		}
	}()

	logger.Info("glmctld started",
		"ipc_socket", cfg.IPC.SocketPath,
		"ws_port", cfg.StateWS.Port,
		"max_volume_db", cfg.GLM.MaxVolumeDB,
		"default_volume_db", cfg.GLM.DefaultVolumeDB,
		"simulate", cfg.GLM.Simulate)

	return g.Wait()
}
