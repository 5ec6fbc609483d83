package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wippyai/obs-ipc/osn"
	"github.com/wippyai/obs-ipc/wire"
)

const (
	meterWidth = 30
	meterFloor = -60.0
)

func commands() []command {
	return []command{
		{name: "info", run: globalInfo},
		{name: "inputs.types", run: func(ctx context.Context, s *osn.Session, _ []string) (string, error) {
			ids, err := s.Inputs().Types(ctx)
			return strings.Join(ids, "\n"), err
		}},
		{name: "inputs.list", run: listInputs},
		{
			name:   "inputs.create",
			params: []paramInfo{{"type", "string"}, {"name", "string"}},
			run: func(ctx context.Context, s *osn.Session, args []string) (string, error) {
				in, err := s.Inputs().Create(ctx, args[0], args[1], nil)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("created %s #%d", in.ID(), in.Handle()), nil
			},
		},
		{
			name:   "inputs.volume",
			params: []paramInfo{{"name", "string"}, {"volume", "float"}},
			run:    setVolume,
		},
		{
			name:   "inputs.meter",
			params: []paramInfo{{"name", "string"}},
			run:    meterInput,
		},
		{
			name:   "inputs.remove",
			params: []paramInfo{{"name", "string"}},
			run: func(ctx context.Context, s *osn.Session, args []string) (string, error) {
				in, err := findInput(ctx, s, args[0])
				if err != nil {
					return "", err
				}
				return "removed", in.Remove(ctx)
			},
		},
		{name: "scenes.list", run: listScenes},
		{
			name:   "scenes.create",
			params: []paramInfo{{"name", "string"}},
			run: func(ctx context.Context, s *osn.Session, args []string) (string, error) {
				sc, err := s.Scenes().Create(ctx, args[0])
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("created scene #%d", sc.Handle()), nil
			},
		},
		{
			name:   "scenes.add",
			params: []paramInfo{{"scene", "string"}, {"input", "string"}},
			run:    addToScene,
		},
		{
			name:   "channel.set",
			params: []paramInfo{{"channel", "int"}, {"scene", "string"}},
			run:    setChannel,
		},
		{name: "stats", run: func(_ context.Context, s *osn.Session, _ []string) (string, error) {
			var b strings.Builder
			fmt.Fprintf(&b, "handles: %d\n", s.Handles())
			for _, g := range s.Stats() {
				fmt.Fprintf(&b, "#%d %s: %d handlers, %d pending, %d dropped\n",
					g.Handle, g.Signal, g.Handlers, g.Pending, g.Dropped)
			}
			return b.String(), nil
		}},
	}
}

func globalInfo(ctx context.Context, s *osn.Session, _ []string) (string, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("initialized: %t\nlocale: %s\nversion: %d.%d.%d",
		info.Initialized, info.Locale, info.Version>>24, info.Version>>16&0xff, info.Version&0xffff), nil
}

func listInputs(ctx context.Context, s *osn.Session, _ []string) (string, error) {
	inputs, err := s.Inputs().PublicSources(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, in := range inputs {
		name, err := in.Name(ctx)
		if err != nil {
			return "", err
		}
		vol, err := in.Volume(ctx)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s [%s] volume %.2f\n", name, in.ID(), vol)
	}
	if b.Len() == 0 {
		return "no inputs", nil
	}
	return b.String(), nil
}

func listScenes(ctx context.Context, s *osn.Session, _ []string) (string, error) {
	scenes, err := s.Scenes().PublicScenes(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, sc := range scenes {
		name, err := sc.Name(ctx)
		if err != nil {
			return "", err
		}
		items, err := sc.Items(ctx)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s\n", name)
		for _, it := range items {
			src, err := it.Source(ctx)
			if err != nil {
				return "", err
			}
			srcName, err := src.Name(ctx)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "  %d: %s\n", it.ID(), srcName)
		}
	}
	if b.Len() == 0 {
		return "no scenes", nil
	}
	return b.String(), nil
}

func findInput(ctx context.Context, s *osn.Session, name string) (*osn.Input, error) {
	in, err := s.Inputs().FromName(ctx, name)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("no input named %q", name)
	}
	return in, nil
}

func findScene(ctx context.Context, s *osn.Session, name string) (*osn.Scene, error) {
	sc, err := s.Scenes().FromName(ctx, name)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, fmt.Errorf("no scene named %q", name)
	}
	return sc, nil
}

func setVolume(ctx context.Context, s *osn.Session, args []string) (string, error) {
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return "", fmt.Errorf("volume: %w", err)
	}
	in, err := findInput(ctx, s, args[0])
	if err != nil {
		return "", err
	}
	if err := in.SetVolume(ctx, v); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s volume %.2f", args[0], v), nil
}

func addToScene(ctx context.Context, s *osn.Session, args []string) (string, error) {
	sc, err := findScene(ctx, s, args[0])
	if err != nil {
		return "", err
	}
	in, err := findInput(ctx, s, args[1])
	if err != nil {
		return "", err
	}
	it, err := sc.Add(ctx, in, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("item %d added", it.ID()), nil
}

func setChannel(ctx context.Context, s *osn.Session, args []string) (string, error) {
	ch, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("channel: %w", err)
	}
	if args[1] == "" {
		return "cleared", s.SetOutputSource(ctx, ch, nil)
	}
	sc, err := findScene(ctx, s, args[1])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("channel %d shows %s", ch, args[1]), s.SetOutputSource(ctx, ch, sc)
}

// meterInput samples one volmeter update for the named input and renders a
// bar per channel.
func meterInput(ctx context.Context, s *osn.Session, args []string) (string, error) {
	in, err := findInput(ctx, s, args[0])
	if err != nil {
		return "", err
	}
	vm, err := s.Volmeters().Create(ctx, wire.FaderLog)
	if err != nil {
		return "", err
	}
	defer func() { _, _ = vm.Release(context.WithoutCancel(ctx)) }()

	if err := vm.SetUpdateInterval(ctx, 20*time.Millisecond); err != nil {
		return "", err
	}
	if err := vm.Attach(ctx, in); err != nil {
		return "", err
	}
	samples := make(chan wire.VolmeterData, 1)
	tok, err := vm.AddCallback(ctx, func(d wire.VolmeterData) {
		select {
		case samples <- d:
		default:
		}
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = vm.RemoveCallback(context.WithoutCancel(ctx), tok) }()

	select {
	case d := <-samples:
		return renderMeter(d), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func renderMeter(d wire.VolmeterData) string {
	var b strings.Builder
	for i, db := range d.Peak {
		n := 0
		if db > meterFloor {
			n = int((db - meterFloor) / -meterFloor * meterWidth)
		}
		n = min(n, meterWidth)
		fmt.Fprintf(&b, "ch%d [%s%s] %6.1f dB\n", i, strings.Repeat("#", n), strings.Repeat(" ", meterWidth-n), db)
	}
	if d.Muted {
		b.WriteString("muted\n")
	}
	return b.String()
}
