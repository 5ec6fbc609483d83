package host

import (
	"math"
	"time"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/wire"
)

// minDB is the floor for levels; -inf does not survive JSON.
const minDB = -96.0

type object struct {
	settings wire.Settings
	typ      *typeInfo

	scene      *sceneState
	item       *itemState
	transition *transitionState
	fader      *faderState
	volmeter   *volmeterState
	output     *outputState
	encoder    *encoderState
	display    *displayState
	module     *moduleState

	// parent is the source a filter is attached to.
	parent  *object
	filters []*object

	name string
	kind wire.Kind

	id          uint64
	refs        int
	flags       uint32
	volume      float64
	syncOffset  int64
	mixers      uint32
	monitoring  wire.MonitoringType
	fieldOrder  wire.DeinterlaceFieldOrder
	deinterlace wire.DeinterlaceMode

	private bool
	muted   bool
	enabled bool
	dead    bool
}

type sceneState struct {
	items      []*object
	nextItemID int64
	signals    int
}

type itemState struct {
	scene       *object
	source      *object
	transform   wire.TransformInfo
	crop        wire.CropInfo
	itemID      int64
	scaleFilter wire.ScaleType
	deferred    int
	selected    bool
	visible     bool
	dirty       bool
}

type transitionState struct {
	active  *object
	pending *object
	timer   *time.Timer
	gen     uint64
}

type faderState struct {
	source    *object
	db        float64
	typ       wire.FaderType
	callbacks int
}

type volmeterState struct {
	source    *object
	stop      chan struct{}
	typ       wire.FaderType
	peakHold  int
	interval  int
	callbacks int
}

type outputState struct {
	video     *object
	audio     map[int]*object
	service   *object
	lastError string
	signals   int
	active    bool
}

type encoderState struct {
	lastError string
	audio     bool
	active    bool
}

type displayState struct {
	drawers []string
	init    wire.DisplayInit
}

type moduleState struct {
	info wire.ModuleInfo
}

func (o *object) typeID() string {
	if o.typ == nil {
		return ""
	}
	return o.typ.id
}

func (o *object) ref() wire.ObjectRef {
	if o == nil {
		return wire.ObjectRef{}
	}
	r := wire.ObjectRef{
		ID:     o.id,
		Kind:   o.kind,
		TypeID: o.typeID(),
		Name:   o.name,
	}
	if o.item != nil {
		r.ItemID = o.item.itemID
		r.SceneID = o.item.scene.id
		r.SourceID = o.item.source.id
		r.Name = o.item.source.name
		r.TypeID = o.item.source.typeID()
	}
	return r
}

func refs(objs []*object) []wire.ObjectRef {
	out := make([]wire.ObjectRef, len(objs))
	for i, o := range objs {
		out[i] = o.ref()
	}
	return out
}

func (o *object) outputFlags() wire.OutputFlags {
	if o.typ == nil {
		return 0
	}
	return o.typ.flags
}

func (o *object) hasAudio() bool {
	return o.outputFlags()&wire.FlagAudio != 0
}

// dimension returns a numeric setting, falling back to def.
func (o *object) dimension(key string, def uint32) uint32 {
	if v, ok := o.settings[key].(float64); ok && v >= 0 {
		return uint32(v)
	}
	return def
}

func (o *object) width() uint32 {
	if o.outputFlags()&wire.FlagVideo == 0 {
		return 0
	}
	return o.dimension("width", 1920)
}

func (o *object) height() uint32 {
	if o.outputFlags()&wire.FlagVideo == 0 {
		return 0
	}
	return o.dimension("height", 1080)
}

// properties returns the property list as it applies to the current
// settings.
func (o *object) properties() []wire.PropertyInfo {
	if o.typ == nil {
		return []wire.PropertyInfo{}
	}
	out := make([]wire.PropertyInfo, len(o.typ.props))
	copy(out, o.typ.props)

	switch o.typ.id {
	case "ffmpeg_source":
		local, _ := o.settings["is_local_file"].(bool)
		for i := range out {
			switch out[i].Name {
			case "local_file":
				out[i].Visible = local
			case "input":
				out[i].Visible = !local
			}
		}
	case "rtmp_custom":
		auth, _ := o.settings["use_auth"].(bool)
		for i := range out {
			if out[i].Name == "username" || out[i].Name == "password" {
				out[i].Visible = auth
			}
		}
	case "dshow_input":
		active, _ := o.settings["active"].(bool)
		for i := range out {
			if out[i].Name == "activate" && !active {
				out[i].Description = "Activate"
			}
		}
	}
	return out
}

// validateSettings checks the values of known properties against their
// declared types.
func validateSettings(t *typeInfo, s wire.Settings) error {
	if t == nil {
		return nil
	}
	for _, p := range t.props {
		v, ok := s[p.Name]
		if !ok || v == nil {
			continue
		}
		valid := true
		switch p.Type {
		case wire.PropertyBoolean:
			_, valid = v.(bool)
		case wire.PropertyInt, wire.PropertyFloat, wire.PropertyColor:
			_, valid = v.(float64)
		case wire.PropertyText, wire.PropertyPath:
			_, valid = v.(string)
		case wire.PropertyList:
			switch v.(type) {
			case string, float64:
			default:
				valid = false
			}
		}
		if !valid {
			return errors.InvalidArgument(errors.PhaseHost, []string{"settings", p.Name},
				"unexpected value for "+p.Name)
		}
	}
	return nil
}

func dbToMul(db float64) float64 {
	if db <= minDB {
		return 0
	}
	return math.Pow(10, db/20)
}

func mulToDB(mul float64) float64 {
	if mul <= 0 {
		return minDB
	}
	return math.Max(minDB, 20*math.Log10(mul))
}

// deflection maps a level in dB to a fader position in [0, 1].
func deflection(t wire.FaderType, db float64) float64 {
	switch t {
	case wire.FaderCubic:
		return math.Cbrt(dbToMul(db))
	case wire.FaderIEC:
		switch {
		case db >= -9:
			return 0.75 + (db+9)/9*0.25
		case db >= -20:
			return 0.5 + (db+20)/11*0.25
		case db >= -30:
			return 0.3 + (db+30)/10*0.2
		case db >= -40:
			return 0.15 + (db+40)/10*0.15
		case db >= -50:
			return 0.075 + (db+50)/10*0.075
		case db >= -60:
			return (db + 60) / 10 * 0.075
		}
		return 0
	}
	return math.Max(0, math.Min(1, (db-minDB)/-minDB))
}

// fromDeflection inverts deflection.
func fromDeflection(t wire.FaderType, def float64) float64 {
	def = math.Max(0, math.Min(1, def))
	switch t {
	case wire.FaderCubic:
		return mulToDB(def * def * def)
	case wire.FaderIEC:
		switch {
		case def >= 0.75:
			return (def-0.75)/0.25*9 - 9
		case def >= 0.5:
			return (def-0.5)/0.25*11 - 20
		case def >= 0.3:
			return (def-0.3)/0.2*10 - 30
		case def >= 0.15:
			return (def-0.15)/0.15*10 - 40
		case def >= 0.075:
			return (def-0.075)/0.075*10 - 50
		case def > 0:
			return def/0.075*10 - 60
		}
		return minDB
	}
	return minDB + def*-minDB
}
