package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
	"golang.org/x/term"

	obsipc "github.com/wippyai/obs-ipc"
	"github.com/wippyai/obs-ipc/config"
	"github.com/wippyai/obs-ipc/host"
	"github.com/wippyai/obs-ipc/ipc"
	"github.com/wippyai/obs-ipc/osn"
	"github.com/wippyai/obs-ipc/signal"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to osnctl.yaml")
		envFile     = flag.String("env", ".env", "Dotenv file loaded before the config")
		name        = flag.String("name", "", "Host name, socket path or ws:// URL (overrides config)")
		serve       = flag.Bool("serve", false, "Host an engine and wait for clients")
		list        = flag.Bool("ls", false, "List public sources and scenes and exit")
		callSpec    = flag.String("call", "", "Raw call as Class.Method")
		callArgs    = flag.String("args", "[]", "JSON array of arguments for -call")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg, err := setup(*envFile, *configFile, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *serve:
		err = runServe(cfg)
	case *interactive:
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			err = fmt.Errorf("interactive mode needs a terminal")
			break
		}
		err = runInteractive(cfg)
	case *list:
		err = runList(cfg)
	case *callSpec != "":
		err = runCall(cfg, *callSpec, *callArgs)
	default:
		fmt.Fprintln(os.Stderr, "Usage: osnctl [-config file] [-name host] -serve")
		fmt.Fprintln(os.Stderr, "       osnctl [-name host] -ls")
		fmt.Fprintln(os.Stderr, "       osnctl [-name host] -call Class.Method -args '[...]'")
		fmt.Fprintln(os.Stderr, "       osnctl [-name host] -i  (interactive mode)")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(envFile, configFile, name string) (*config.Config, error) {
	if err := config.LoadEnv(envFile); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if name != "" {
		cfg.Name = name
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	osn.SetLogger(logger)
	host.SetLogger(logger)
	ipc.SetLogger(logger)
	signal.SetLogger(logger)
	return cfg, nil
}

// connect opens a client session on the configured host.
func connect(ctx context.Context, cfg *config.Config) (*osn.Session, error) {
	s := osn.NewSession(cfg.SessionOptions())
	if err := s.Connect(ctx, cfg.Name); err != nil {
		return nil, err
	}
	return s, nil
}

func runServe(cfg *config.Config) error {
	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s := osn.NewSession(cfg.SessionOptions())
	if err := s.Host(ctx, cfg.Name); err != nil {
		return err
	}
	defer func() { _ = s.Disconnect() }()

	if err := s.Startup(ctx, cfg.Engine.Locale, cfg.Engine.DataPath); err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	mods := s.Modules()
	for _, p := range cfg.Engine.ModulePaths {
		if err := mods.AddPath(ctx, p.Bin, p.Data); err != nil {
			return fmt.Errorf("module path %s: %w", p.Bin, err)
		}
	}
	loaded, err := mods.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load modules: %w", err)
	}
	for _, m := range loaded {
		if _, err := m.Initialize(ctx); err != nil {
			return err
		}
	}
	if err := mods.LogLoaded(ctx); err != nil {
		return err
	}

	osn.Logger().Info("serving", zap.String("name", cfg.Name), zap.Int("modules", len(loaded)))
	<-ctx.Done()

	shutdown, done := context.WithTimeout(context.Background(), cfg.CallTimeout)
	defer done()
	return s.Shutdown(shutdown)
}

func runList(cfg *config.Config) error {
	ctx := context.Background()
	s, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Disconnect() }()

	info, err := s.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Host: %s (version %d.%d.%d, locale %s)\n", s.Name(),
		info.Version>>24, info.Version>>16&0xff, info.Version&0xffff, info.Locale)

	inputs, err := s.Inputs().PublicSources(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nInputs:\n")
	for _, in := range inputs {
		n, err := in.Name(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("  %s [%s]\n", n, in.ID())
	}

	scenes, err := s.Scenes().PublicScenes(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nScenes:\n")
	for _, sc := range scenes {
		n, err := sc.Name(ctx)
		if err != nil {
			return err
		}
		items, err := sc.Items(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("  %s (%d items)\n", n, len(items))
	}
	return nil
}

func runCall(cfg *config.Config, spec, rawArgs string) error {
	class, method, ok := strings.Cut(spec, ".")
	if !ok || class == "" || method == "" {
		return fmt.Errorf("call must be Class.Method, got %q", spec)
	}
	var args []any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Errorf("parse args: %w", err)
	}

	ctx := context.Background()
	s, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Disconnect() }()

	return printCall(ctx, s, class, method, args)
}

func printCall(ctx context.Context, c obsipc.Caller, class, method string, args []any) error {
	reply, err := c.Call(ctx, class, method, args...)
	if err != nil {
		return err
	}
	if len(reply.Result) == 0 {
		fmt.Println("ok")
		return nil
	}
	fmt.Println(string(reply.Result))
	return nil
}
