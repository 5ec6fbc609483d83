package host

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/wire"
)

func TestTransitionSetAndStart(t *testing.T) {
	h := newHarness(t)
	a := h.input("a")
	b := h.input("b")
	fade := h.ref("Transition", "Create", "fade_transition", "Fade")
	assert.Equal(t, fade.ID, h.ref("Transition", "FromName", "Fade").ID)

	assert.False(t, h.ref("Transition", "GetActiveSource", fade.ID).Valid())

	h.must(nil, "Transition", "Set", fade.ID, a.ID)
	assert.Equal(t, a.ID, h.ref("Transition", "GetActiveSource", fade.ID).ID)
	assert.Equal(t, 2, h.refCount(a.ID))

	var started bool
	h.must(&started, "Transition", "Start", fade.ID, 20, b.ID)
	assert.True(t, started)
	assert.Equal(t, a.ID, h.ref("Transition", "GetActiveSource", fade.ID).ID)

	require.Eventually(t, func() bool {
		return h.ref("Transition", "GetActiveSource", fade.ID).ID == b.ID
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.refCount(a.ID))
	assert.Equal(t, 2, h.refCount(b.ID))
	assert.Equal(t, 1, h.rec.count(wire.SignalTransitionStop))

	h.must(nil, "Transition", "Clear", fade.ID)
	assert.False(t, h.ref("Transition", "GetActiveSource", fade.ID).Valid())
	assert.Equal(t, 1, h.refCount(b.ID))
}

func TestCutTransitionIsImmediate(t *testing.T) {
	h := newHarness(t)
	a := h.input("a")
	cut := h.ref("Transition", "Create", "cut_transition", "Cut")

	h.must(nil, "Transition", "Start", cut.ID, 300, a.ID)
	assert.Equal(t, a.ID, h.ref("Transition", "GetActiveSource", cut.ID).ID)
	assert.Equal(t, 1, h.rec.count(wire.SignalTransitionStop))
}

func TestTransitionSourceRemoved(t *testing.T) {
	h := newHarness(t)
	a := h.input("a")
	fade := h.ref("Transition", "Create", "fade_transition", "Fade")
	h.must(nil, "Transition", "Set", fade.ID, a.ID)

	h.must(nil, "Object", "Remove", a.ID)
	assert.False(t, h.ref("Transition", "GetActiveSource", fade.ID).Valid())

	// Releasing the transition returns references it no longer holds.
	var rr wire.ReleaseResult
	h.must(&rr, "Object", "Release", fade.ID)
	assert.True(t, rr.Destroyed)
}

func TestFaderDrivesVolume(t *testing.T) {
	h := newHarness(t)
	mic := h.ref("Input", "Create", "wasapi_input_capture", "mic")
	fader := h.ref("Fader", "Create", wire.FaderCubic)

	h.fails(errors.KindInvalidArgument, "Fader", "Attach", fader.ID, h.input("video").ID)
	h.must(nil, "Fader", "Attach", fader.ID, mic.ID)
	h.must(nil, "Fader", "AddCallback", fader.ID)

	h.must(nil, "Fader", "SetDeziBel", fader.ID, -20.0)
	var vol float64
	h.must(&vol, "Input", "GetVolume", mic.ID)
	assert.InDelta(t, 0.1, vol, 1e-9)

	var db float64
	h.must(&db, "Fader", "GetDeziBel", fader.ID)
	assert.InDelta(t, -20, db, 1e-9)

	var mul float64
	h.must(&mul, "Fader", "GetMultiplier", fader.ID)
	assert.InDelta(t, 0.1, mul, 1e-9)

	h.must(nil, "Input", "SetVolume", mic.ID, 1.0)
	h.must(&db, "Fader", "GetDeziBel", fader.ID)
	assert.InDelta(t, 0, db, 1e-9)
	assert.Equal(t, 2, h.rec.count(wire.SignalFader))

	var def float64
	h.must(&def, "Fader", "GetDeflection", fader.ID)
	assert.InDelta(t, 1, def, 1e-9)

	h.must(nil, "Fader", "SetDeflection", fader.ID, 0.5)
	h.must(&def, "Fader", "GetDeflection", fader.ID)
	assert.InDelta(t, 0.5, def, 1e-6)

	h.fails(errors.KindInvalidArgument, "Fader", "Create", 7)
	h.fails(errors.KindInvalidArgument, "Fader", "SetMultiplier", fader.ID, -1.0)
}

func TestDeflectionRoundTrip(t *testing.T) {
	for _, typ := range []wire.FaderType{wire.FaderCubic, wire.FaderIEC, wire.FaderLog} {
		for _, db := range []float64{0, -3, -12, -25, -45, -55} {
			got := fromDeflection(typ, deflection(typ, db))
			assert.InDelta(t, db, got, 1e-6, "type %d db %v", typ, db)
		}
	}
}

func TestVolmeterCallbacks(t *testing.T) {
	h := newHarness(t)
	mic := h.ref("Input", "Create", "wasapi_input_capture", "mic")
	meter := h.ref("Volmeter", "Create", wire.FaderLog)
	h.must(nil, "Volmeter", "Attach", meter.ID, mic.ID)

	var interval int
	h.must(&interval, "Volmeter", "GetUpdateInterval", meter.ID)
	assert.Equal(t, 5, interval)

	h.must(nil, "Volmeter", "AddCallback", meter.ID)
	require.Eventually(t, func() bool {
		return h.rec.count(wire.SignalVolmeter) >= 3
	}, time.Second, 5*time.Millisecond)

	var data wire.VolmeterData
	for _, m := range h.rec.take() {
		if m.Signal == wire.SignalVolmeter {
			require.NoError(t, wire.DecodeValue(m.Payload, &data))
			assert.Equal(t, meter.ID, m.Handle)
		}
	}
	require.Len(t, data.Level, meterChannels)
	assert.InDelta(t, 0, data.Level[0], 1e-9)

	h.must(nil, "Volmeter", "RemoveCallback", meter.ID)
	time.Sleep(20 * time.Millisecond)
	h.rec.take()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, h.rec.count(wire.SignalVolmeter))

	h.fails(errors.KindInvalidArgument, "Volmeter", "SetUpdateInterval", meter.ID, 0)
	h.must(nil, "Volmeter", "SetPeakHold", meter.ID, 20)
	var hold int
	h.must(&hold, "Volmeter", "GetPeakHold", meter.ID)
	assert.Equal(t, 20, hold)
}

func TestMutedLevels(t *testing.T) {
	src := &object{volume: 1, muted: true, enabled: true}
	d := levels(src)
	assert.True(t, d.Muted)
	assert.Equal(t, minDB, d.Peak[1])
}

func TestOutputLifecycle(t *testing.T) {
	h := newHarness(t)
	out := h.ref("Output", "Create", "rtmp_output", "stream")
	h.must(nil, "Output", "Connect", out.ID)

	var ok bool
	h.must(&ok, "Output", "Start", out.ID)
	assert.False(t, ok)
	var lastErr string
	h.must(&lastErr, "Output", "GetLastError", out.ID)
	assert.NotEmpty(t, lastErr)

	venc := h.ref("Encoder", "Create", "obs_x264", "video")
	aenc := h.ref("Encoder", "Create", "ffmpeg_aac", "audio")
	svc := h.ref("Service", "Create", "rtmp_custom", "custom", wire.Settings{"server": "rtmp://live", "key": "abc"})

	h.fails(errors.KindInvalidArgument, "Output", "SetVideoEncoder", out.ID, aenc.ID)
	h.fails(errors.KindInvalidArgument, "Output", "SetAudioEncoder", out.ID, venc.ID, 0)
	h.fails(errors.KindOutOfBounds, "Output", "SetAudioEncoder", out.ID, aenc.ID, 6)

	h.must(nil, "Output", "SetVideoEncoder", out.ID, venc.ID)
	h.must(nil, "Output", "SetAudioEncoder", out.ID, aenc.ID, 0)
	h.must(nil, "Output", "SetService", out.ID, svc.ID)
	assert.Equal(t, 2, h.refCount(venc.ID))

	h.must(&ok, "Output", "Start", out.ID)
	require.True(t, ok)
	h.must(&ok, "Encoder", "GetActive", venc.ID)
	assert.True(t, ok)
	h.fails(errors.KindInvalidArgument, "Output", "SetService", out.ID, nil)

	var url string
	h.must(&url, "Service", "GetURL", svc.ID)
	assert.Equal(t, "rtmp://live", url)

	h.must(nil, "Output", "Stop", out.ID)
	h.must(&ok, "Output", "GetActive", out.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, h.rec.count(wire.SignalOutputStart))
	assert.Equal(t, 1, h.rec.count(wire.SignalOutputStop))

	// The output drops its encoder references on destruction.
	h.must(nil, "Object", "Release", out.ID)
	assert.Equal(t, 1, h.refCount(venc.ID))
	assert.Equal(t, 1, h.refCount(svc.ID))
}

func TestNullOutputNeedsNoEncoders(t *testing.T) {
	h := newHarness(t)
	out := h.ref("Output", "Create", "null_output", "null")
	var ok bool
	h.must(&ok, "Output", "Start", out.ID)
	assert.True(t, ok)

	// No signals without Connect.
	assert.Zero(t, h.rec.count(wire.SignalOutputStart))
}

func TestEncoderTypes(t *testing.T) {
	h := newHarness(t)
	var all, audio []string
	h.must(&all, "Encoder", "Types")
	h.must(&audio, "Encoder", "Types", true)
	assert.Len(t, all, 4)
	assert.ElementsMatch(t, []string{"ffmpeg_aac", "ffmpeg_opus"}, audio)

	enc := h.ref("Encoder", "Create", "ffmpeg_opus", "opus")
	var typ int
	h.must(&typ, "Encoder", "GetType", enc.ID)
	assert.Equal(t, EncoderAudio, typ)
	h.fails(errors.KindInvalidType, "Encoder", "Create", "h266", "x")
}

func TestOutputChannels(t *testing.T) {
	h := newHarness(t)
	scene := h.ref("Scene", "Create", "main")
	in := h.input("cam")
	h.ref("Scene", "AddSource", scene.ID, in.ID)

	h.must(nil, "Global", "SetOutputSource", 0, scene.ID)
	assert.Equal(t, scene.ID, h.ref("Global", "GetOutputSource", 0).ID)
	assert.Equal(t, 2, h.refCount(scene.ID))

	var showing bool
	h.must(&showing, "Input", "GetShowing", in.ID)
	assert.True(t, showing)

	h.must(nil, "Global", "SetOutputSource", 0, nil)
	assert.False(t, h.ref("Global", "GetOutputSource", 0).Valid())
	assert.Equal(t, 1, h.refCount(scene.ID))
	h.must(&showing, "Input", "GetShowing", in.ID)
	assert.False(t, showing)

	h.fails(errors.KindOutOfBounds, "Global", "SetOutputSource", Channels, scene.ID)
	h.fails(errors.KindOutOfBounds, "Global", "GetOutputSource", -1)
}

func TestStartupShutdown(t *testing.T) {
	h := newHarness(t)
	var info wire.GlobalInfo
	h.must(&info, "Global", "GetInfo")
	assert.False(t, info.Initialized)

	h.must(nil, "Global", "Startup", "de-DE", "/data")
	h.fails(errors.KindInvalidArgument, "Global", "Startup", "en-US", "")
	h.must(&info, "Global", "GetInfo")
	assert.True(t, info.Initialized)
	assert.Equal(t, "de-DE", info.Locale)
	assert.Equal(t, Version, info.Version)

	scene, _ := h.populate("main", "a", "b")
	h.must(nil, "Global", "SetOutputSource", 3, scene.ID)
	h.rec.take()

	h.must(nil, "Global", "Shutdown")
	assert.Zero(t, h.e.Len())
	assert.Len(t, destroyed(h.rec.take()), 5)
	assert.False(t, h.ref("Global", "GetOutputSource", 3).Valid())
}

func TestOutputFlagsFromID(t *testing.T) {
	h := newHarness(t)
	var flags wire.OutputFlags
	h.must(&flags, "Global", "GetOutputFlagsFromId", "wasapi_input_capture")
	assert.NotZero(t, flags&wire.FlagAudio)
	assert.Zero(t, flags&wire.FlagVideo)

	h.must(&flags, "Global", "GetOutputFlagsFromId", "scene")
	assert.NotZero(t, flags&wire.FlagComposite)

	h.fails(errors.KindInvalidType, "Global", "GetOutputFlagsFromId", "nope")
}

func TestPropertiesAndButtons(t *testing.T) {
	h := newHarness(t)
	media := h.ref("Input", "Create", "ffmpeg_source", "clip")

	visible := func() map[string]bool {
		var props []wire.PropertyInfo
		h.must(&props, "Properties", "Get", media.ID)
		out := make(map[string]bool)
		for _, p := range props {
			out[p.Name] = p.Visible
		}
		return out
	}
	assert.True(t, visible()["local_file"])
	assert.False(t, visible()["input"])

	h.must(nil, "Object", "Update", media.ID, wire.Settings{"is_local_file": false})
	assert.False(t, visible()["local_file"])
	assert.True(t, visible()["input"])

	cam := h.ref("Input", "Create", "dshow_input", "cam")
	var changed bool
	h.must(&changed, "Properties", "ButtonClicked", cam.ID, "activate")
	assert.True(t, changed)
	var s wire.Settings
	h.must(&s, "Object", "GetSettings", cam.ID)
	assert.Equal(t, false, s["active"])

	h.fails(errors.KindInvalidArgument, "Properties", "ButtonClicked", cam.ID, "video_device_id")
	h.fails(errors.KindNotFound, "Properties", "ButtonClicked", cam.ID, "nope")

	var configurable bool
	h.must(&configurable, "Object", "IsConfigurable", cam.ID)
	assert.True(t, configurable)
}

func TestModules(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	for _, name := range []string{"obs-ffmpeg.so", "win-capture.dll", "readme.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	h.fails(errors.KindNotFound, "Module", "Open", filepath.Join(dir, "missing.so"), "")

	mod := h.ref("Module", "Open", filepath.Join(dir, "obs-ffmpeg.so"), "/data/obs-ffmpeg")
	assert.Equal(t, "obs-ffmpeg", mod.Name)

	h.must(nil, "Module", "AddPath", dir, "/data/%module%")
	var loaded []wire.ObjectRef
	h.must(&loaded, "Module", "LoadAll")
	require.Len(t, loaded, 1)
	assert.Equal(t, "win-capture", loaded[0].Name)

	var info wire.ModuleInfo
	h.must(&info, "Module", "GetInfo", loaded[0].ID)
	assert.Equal(t, "/data/win-capture", info.DataPath)
	assert.Equal(t, "win-capture.dll", info.FileName)

	var ok bool
	h.must(&ok, "Module", "Initialize", mod.ID)
	assert.True(t, ok)
	h.must(&ok, "Module", "Initialize", mod.ID)
	assert.False(t, ok)

	var all []wire.ObjectRef
	h.must(&all, "Module", "Modules")
	assert.Len(t, all, 2)
	h.must(nil, "Module", "LogLoaded")
}

func TestDisplay(t *testing.T) {
	h := newHarness(t)
	d := h.ref("Display", "Create", "preview", wire.DisplayInit{Width: 640, Height: 360})

	h.must(nil, "Display", "AddDrawer", d.ID, "grid")
	h.must(nil, "Display", "AddDrawer", d.ID, "grid")
	var drawers []string
	h.must(&drawers, "Display", "GetDrawers", d.ID)
	assert.Equal(t, []string{"grid"}, drawers)

	h.must(nil, "Display", "RemoveDrawer", d.ID, "grid")
	h.fails(errors.KindNotFound, "Display", "RemoveDrawer", d.ID, "grid")

	var size wire.Vec2
	h.must(&size, "Display", "GetSize", d.ID)
	assert.Equal(t, wire.Vec2{X: 640, Y: 360}, size)

	h.must(nil, "Display", "SetEnabled", d.ID, false)
	var enabled bool
	h.must(&enabled, "Display", "GetEnabled", d.ID)
	assert.False(t, enabled)

	var rr wire.ReleaseResult
	h.must(&rr, "Display", "Destroy", d.ID)
	assert.True(t, rr.Destroyed)
}
