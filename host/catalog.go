package host

import (
	"github.com/wippyai/obs-ipc/wire"
)

// typeInfo describes one creatable type.
type typeInfo struct {
	id       string
	flags    wire.OutputFlags
	defaults wire.Settings
	props    []wire.PropertyInfo
}

type catalog struct {
	order []string
	types map[string]*typeInfo
}

func newCatalog(types ...*typeInfo) *catalog {
	c := &catalog{types: make(map[string]*typeInfo, len(types))}
	for _, t := range types {
		c.order = append(c.order, t.id)
		c.types[t.id] = t
	}
	return c
}

func (c *catalog) ids() []string {
	return append([]string(nil), c.order...)
}

func (c *catalog) lookup(id string) (*typeInfo, bool) {
	t, ok := c.types[id]
	return t, ok
}

func boolProp(name, desc string) wire.PropertyInfo {
	return wire.PropertyInfo{Name: name, Description: desc, Type: wire.PropertyBoolean, Enabled: true, Visible: true}
}

func intProp(name, desc string, minV, maxV, step float64) wire.PropertyInfo {
	return wire.PropertyInfo{
		Name: name, Description: desc, Type: wire.PropertyInt, Enabled: true, Visible: true,
		Number: &wire.NumberDetails{Type: wire.NumberScroller, Min: minV, Max: maxV, Step: step},
	}
}

func sliderProp(name, desc string, minV, maxV, step float64) wire.PropertyInfo {
	return wire.PropertyInfo{
		Name: name, Description: desc, Type: wire.PropertyFloat, Enabled: true, Visible: true,
		Number: &wire.NumberDetails{Type: wire.NumberSlider, Min: minV, Max: maxV, Step: step},
	}
}

func textProp(name, desc string, tt wire.TextType) wire.PropertyInfo {
	return wire.PropertyInfo{
		Name: name, Description: desc, Type: wire.PropertyText, Enabled: true, Visible: true,
		Text: &wire.TextDetails{Type: tt},
	}
}

func pathProp(name, desc string) wire.PropertyInfo {
	return wire.PropertyInfo{
		Name: name, Description: desc, Type: wire.PropertyPath, Enabled: true, Visible: true,
		Path: &wire.PathDetails{Type: wire.PathFile},
	}
}

func colorProp(name, desc string) wire.PropertyInfo {
	return wire.PropertyInfo{Name: name, Description: desc, Type: wire.PropertyColor, Enabled: true, Visible: true}
}

func buttonProp(name, desc string) wire.PropertyInfo {
	return wire.PropertyInfo{Name: name, Description: desc, Type: wire.PropertyButton, Enabled: true, Visible: true}
}

func listProp(name, desc string, items ...wire.ListItem) wire.PropertyInfo {
	return wire.PropertyInfo{
		Name: name, Description: desc, Type: wire.PropertyList, Enabled: true, Visible: true,
		List: &wire.ListDetails{Format: wire.ListString, Items: items},
	}
}

func audioDevices() []wire.ListItem {
	return []wire.ListItem{
		{Name: "Default", Value: "default"},
		{Name: "Microphone", Value: "mic0"},
		{Name: "Line In", Value: "line0"},
	}
}

var (
	video      = wire.FlagVideo
	asyncVideo = wire.FlagAsyncVideo | wire.FlagAudio
	audio      = wire.FlagAudio
)

func inputCatalog() *catalog {
	return newCatalog(
		&typeInfo{id: "image_source", flags: video,
			defaults: wire.Settings{"file": "", "unload": false},
			props:    []wire.PropertyInfo{pathProp("file", "Image File"), boolProp("unload", "Unload image when not showing")}},
		&typeInfo{id: "color_source", flags: video | wire.FlagCustomDraw,
			defaults: wire.Settings{"color": float64(0xFFFFFFFF), "width": float64(1920), "height": float64(1080)},
			props: []wire.PropertyInfo{
				colorProp("color", "Color"),
				intProp("width", "Width", 0, 4096, 1),
				intProp("height", "Height", 0, 4096, 1),
			}},
		&typeInfo{id: "ffmpeg_source", flags: asyncVideo,
			defaults: wire.Settings{"is_local_file": true, "local_file": "", "looping": false, "restart_on_activate": true},
			props: []wire.PropertyInfo{
				boolProp("is_local_file", "Local File"),
				pathProp("local_file", "Local File"),
				boolProp("looping", "Loop"),
				boolProp("restart_on_activate", "Restart playback when source becomes active"),
				textProp("input", "Input", wire.TextDefault),
			}},
		&typeInfo{id: "browser_source", flags: video | wire.FlagAudio | wire.FlagInteraction,
			defaults: wire.Settings{"url": "https://obsproject.com/browser-source", "width": float64(800), "height": float64(600), "css": ""},
			props: []wire.PropertyInfo{
				textProp("url", "URL", wire.TextDefault),
				intProp("width", "Width", 1, 4096, 1),
				intProp("height", "Height", 1, 4096, 1),
				textProp("css", "Custom CSS", wire.TextMultiline),
				buttonProp("refreshnocache", "Refresh cache of current page"),
			}},
		&typeInfo{id: "text_gdiplus", flags: video,
			defaults: wire.Settings{"text": "", "font_size": float64(32)},
			props:    []wire.PropertyInfo{textProp("text", "Text", wire.TextMultiline), intProp("font_size", "Size", 1, 512, 1)}},
		&typeInfo{id: "wasapi_input_capture", flags: audio | wire.FlagDoNotSelfMonitor,
			defaults: wire.Settings{"device_id": "default", "use_device_timing": false},
			props:    []wire.PropertyInfo{listProp("device_id", "Device", audioDevices()...), boolProp("use_device_timing", "Use Device Timestamps")}},
		&typeInfo{id: "wasapi_output_capture", flags: audio | wire.FlagDoNotSelfMonitor,
			defaults: wire.Settings{"device_id": "default", "use_device_timing": true},
			props:    []wire.PropertyInfo{listProp("device_id", "Device", audioDevices()...), boolProp("use_device_timing", "Use Device Timestamps")}},
		&typeInfo{id: "monitor_capture", flags: video,
			defaults: wire.Settings{"monitor": float64(0), "capture_cursor": true},
			props:    []wire.PropertyInfo{intProp("monitor", "Display", 0, 8, 1), boolProp("capture_cursor", "Capture Cursor")}},
		&typeInfo{id: "window_capture", flags: video,
			defaults: wire.Settings{"window": "", "cursor": true},
			props:    []wire.PropertyInfo{textProp("window", "Window", wire.TextDefault), boolProp("cursor", "Capture Cursor")}},
		&typeInfo{id: "game_capture", flags: video,
			defaults: wire.Settings{"capture_mode": "any_fullscreen", "allow_transparency": false},
			props: []wire.PropertyInfo{
				listProp("capture_mode", "Mode",
					wire.ListItem{Name: "Capture any fullscreen application", Value: "any_fullscreen"},
					wire.ListItem{Name: "Capture specific window", Value: "window"}),
				boolProp("allow_transparency", "Allow Transparency"),
			}},
		&typeInfo{id: "dshow_input", flags: asyncVideo,
			defaults: wire.Settings{"video_device_id": "", "active": true},
			props:    []wire.PropertyInfo{textProp("video_device_id", "Device", wire.TextDefault), buttonProp("activate", "Deactivate")}},
	)
}

func filterCatalog() *catalog {
	return newCatalog(
		&typeInfo{id: "color_filter", flags: video,
			defaults: wire.Settings{"brightness": 0.0, "contrast": 0.0, "saturation": 0.0, "opacity": 1.0},
			props: []wire.PropertyInfo{
				sliderProp("brightness", "Brightness", -1, 1, 0.01),
				sliderProp("contrast", "Contrast", -2, 2, 0.01),
				sliderProp("saturation", "Saturation", -1, 5, 0.01),
				sliderProp("opacity", "Opacity", 0, 1, 0.01),
			}},
		&typeInfo{id: "crop_filter", flags: video,
			defaults: wire.Settings{"left": float64(0), "right": float64(0), "top": float64(0), "bottom": float64(0), "relative": true},
			props: []wire.PropertyInfo{
				boolProp("relative", "Relative"),
				intProp("left", "Left", -8192, 8192, 1),
				intProp("right", "Right", -8192, 8192, 1),
				intProp("top", "Top", -8192, 8192, 1),
				intProp("bottom", "Bottom", -8192, 8192, 1),
			}},
		&typeInfo{id: "chroma_key_filter", flags: video,
			defaults: wire.Settings{"key_color_type": "green", "similarity": float64(400), "smoothness": float64(80)},
			props: []wire.PropertyInfo{
				listProp("key_color_type", "Key Color Type",
					wire.ListItem{Name: "Green", Value: "green"},
					wire.ListItem{Name: "Blue", Value: "blue"},
					wire.ListItem{Name: "Magenta", Value: "magenta"}),
				intProp("similarity", "Similarity", 1, 1000, 1),
				intProp("smoothness", "Smoothness", 1, 1000, 1),
			}},
		&typeInfo{id: "scroll_filter", flags: video,
			defaults: wire.Settings{"speed_x": 0.0, "speed_y": 0.0, "loop": true},
			props: []wire.PropertyInfo{
				sliderProp("speed_x", "Horizontal Speed", -500, 500, 0.1),
				sliderProp("speed_y", "Vertical Speed", -500, 500, 0.1),
				boolProp("loop", "Loop"),
			}},
		&typeInfo{id: "sharpness_filter", flags: video,
			defaults: wire.Settings{"sharpness": 0.08},
			props:    []wire.PropertyInfo{sliderProp("sharpness", "Sharpness", 0, 1, 0.01)}},
		&typeInfo{id: "gain_filter", flags: audio,
			defaults: wire.Settings{"db": 0.0},
			props:    []wire.PropertyInfo{sliderProp("db", "Gain", -30, 30, 0.1)}},
		&typeInfo{id: "noise_gate_filter", flags: audio,
			defaults: wire.Settings{"open_threshold": -26.0, "close_threshold": -32.0},
			props: []wire.PropertyInfo{
				sliderProp("close_threshold", "Close Threshold", -96, 0, 1),
				sliderProp("open_threshold", "Open Threshold", -96, 0, 1),
			}},
		&typeInfo{id: "compressor_filter", flags: audio,
			defaults: wire.Settings{"ratio": 10.0, "threshold": -18.0},
			props: []wire.PropertyInfo{
				sliderProp("ratio", "Ratio", 1, 32, 0.5),
				sliderProp("threshold", "Threshold", -60, 0, 0.1),
			}},
		&typeInfo{id: "limiter_filter", flags: audio,
			defaults: wire.Settings{"threshold": -6.0, "release_time": float64(60)},
			props: []wire.PropertyInfo{
				sliderProp("threshold", "Threshold", -60, 0, 0.1),
				intProp("release_time", "Release", 1, 1000, 1),
			}},
		&typeInfo{id: "async_delay_filter", flags: asyncVideo,
			defaults: wire.Settings{"delay_ms": float64(0)},
			props:    []wire.PropertyInfo{intProp("delay_ms", "Delay", 0, 20000, 1)}},
	)
}

func transitionCatalog() *catalog {
	durationOnly := func(id string) *typeInfo {
		return &typeInfo{id: id, flags: video | audio, defaults: wire.Settings{}}
	}
	return newCatalog(
		durationOnly("cut_transition"),
		durationOnly("fade_transition"),
		&typeInfo{id: "swipe_transition", flags: video | audio,
			defaults: wire.Settings{"direction": "left", "swipe_in": false},
			props: []wire.PropertyInfo{
				listProp("direction", "Direction",
					wire.ListItem{Name: "Left", Value: "left"},
					wire.ListItem{Name: "Right", Value: "right"}),
				boolProp("swipe_in", "Swipe In"),
			}},
		&typeInfo{id: "slide_transition", flags: video | audio,
			defaults: wire.Settings{"direction": "left"},
			props: []wire.PropertyInfo{listProp("direction", "Direction",
				wire.ListItem{Name: "Left", Value: "left"},
				wire.ListItem{Name: "Right", Value: "right"})}},
		&typeInfo{id: "fade_to_color_transition", flags: video | audio,
			defaults: wire.Settings{"color": float64(0xFF000000), "switch_point": float64(50)},
			props:    []wire.PropertyInfo{colorProp("color", "Color"), intProp("switch_point", "Peak Color Point", 0, 100, 1)}},
		&typeInfo{id: "wipe_transition", flags: video | audio,
			defaults: wire.Settings{"luma_image": "linear-h.png", "luma_softness": 0.03},
			props:    []wire.PropertyInfo{textProp("luma_image", "Luma Image", wire.TextDefault), sliderProp("luma_softness", "Softness", 0, 1, 0.01)}},
		&typeInfo{id: "obs_stinger_transition", flags: video | audio,
			defaults: wire.Settings{"path": "", "transition_point": float64(0)},
			props:    []wire.PropertyInfo{pathProp("path", "Video File"), intProp("transition_point", "Transition Point", 0, 120000, 1)}},
	)
}

func sceneType() *typeInfo {
	return &typeInfo{id: "scene", flags: video | audio | wire.FlagCustomDraw | wire.FlagComposite, defaults: wire.Settings{}}
}

func outputCatalog() *catalog {
	return newCatalog(
		&typeInfo{id: "rtmp_output", flags: video | audio,
			defaults: wire.Settings{"bind_ip": "default", "low_latency_mode_enabled": false}},
		&typeInfo{id: "ffmpeg_muxer", flags: video | audio,
			defaults: wire.Settings{"path": "", "muxer_settings": ""},
			props:    []wire.PropertyInfo{pathProp("path", "File Path"), textProp("muxer_settings", "Muxer Settings", wire.TextDefault)}},
		&typeInfo{id: "replay_buffer", flags: video | audio,
			defaults: wire.Settings{"max_time_sec": float64(20), "max_size_mb": float64(512)},
			props:    []wire.PropertyInfo{intProp("max_time_sec", "Maximum Replay Time", 1, 21600, 1), intProp("max_size_mb", "Maximum Memory", 1, 8192, 1)}},
		&typeInfo{id: "null_output", flags: video | audio, defaults: wire.Settings{}},
	)
}

// encoderCatalog lists video and audio encoders; audio ids carry the audio
// flag only.
func encoderCatalog() *catalog {
	return newCatalog(
		&typeInfo{id: "obs_x264", flags: video,
			defaults: wire.Settings{"rate_control": "CBR", "bitrate": float64(2500), "keyint_sec": float64(2), "preset": "veryfast"},
			props: []wire.PropertyInfo{
				listProp("rate_control", "Rate Control",
					wire.ListItem{Name: "CBR", Value: "CBR"},
					wire.ListItem{Name: "VBR", Value: "VBR"},
					wire.ListItem{Name: "CRF", Value: "CRF"}),
				intProp("bitrate", "Bitrate", 50, 1000000, 50),
				intProp("keyint_sec", "Keyframe Interval", 0, 20, 1),
				listProp("preset", "CPU Usage Preset",
					wire.ListItem{Name: "ultrafast", Value: "ultrafast"},
					wire.ListItem{Name: "veryfast", Value: "veryfast"},
					wire.ListItem{Name: "medium", Value: "medium"}),
			}},
		&typeInfo{id: "ffmpeg_nvenc", flags: video,
			defaults: wire.Settings{"rate_control": "CBR", "bitrate": float64(6000), "preset": "p5"},
			props: []wire.PropertyInfo{
				intProp("bitrate", "Bitrate", 50, 300000, 50),
				listProp("preset", "Preset",
					wire.ListItem{Name: "P1: Fastest", Value: "p1"},
					wire.ListItem{Name: "P5: Slow", Value: "p5"},
					wire.ListItem{Name: "P7: Slowest", Value: "p7"}),
			}},
		&typeInfo{id: "ffmpeg_aac", flags: audio,
			defaults: wire.Settings{"bitrate": float64(160)},
			props:    []wire.PropertyInfo{intProp("bitrate", "Bitrate", 32, 320, 32)}},
		&typeInfo{id: "ffmpeg_opus", flags: audio,
			defaults: wire.Settings{"bitrate": float64(128)},
			props:    []wire.PropertyInfo{intProp("bitrate", "Bitrate", 32, 512, 32)}},
	)
}

func serviceCatalog() *catalog {
	return newCatalog(
		&typeInfo{id: "rtmp_common", flags: 0,
			defaults: wire.Settings{"service": "Twitch", "server": "auto", "key": ""},
			props: []wire.PropertyInfo{
				listProp("service", "Service",
					wire.ListItem{Name: "Twitch", Value: "Twitch"},
					wire.ListItem{Name: "YouTube - RTMPS", Value: "YouTube - RTMPS"}),
				textProp("server", "Server", wire.TextDefault),
				textProp("key", "Stream Key", wire.TextPassword),
			}},
		&typeInfo{id: "rtmp_custom", flags: 0,
			defaults: wire.Settings{"server": "", "key": "", "use_auth": false, "username": "", "password": ""},
			props: []wire.PropertyInfo{
				textProp("server", "Server", wire.TextDefault),
				textProp("key", "Stream Key", wire.TextPassword),
				boolProp("use_auth", "Use authentication"),
				textProp("username", "Username", wire.TextDefault),
				textProp("password", "Password", wire.TextPassword),
			}},
	)
}
