package wire

// Settings is a dynamically typed configuration object. Updates merge:
// keys present in an update replace prior values, absent keys are kept.
type Settings map[string]any

// Merge copies every key of update into s and returns s.
func (s Settings) Merge(update Settings) Settings {
	if s == nil {
		s = make(Settings, len(update))
	}
	for k, v := range update {
		s[k] = v
	}
	return s
}

// Clone returns a shallow copy of s.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ObjectRef identifies a remote object in replies.
type ObjectRef struct {
	ID     uint64 `json:"id"`
	Kind   Kind   `json:"kind"`
	TypeID string `json:"type,omitempty"`
	Name   string `json:"name,omitempty"`

	// Scene items only.
	ItemID   int64  `json:"item,omitempty"`
	SceneID  uint64 `json:"scene,omitempty"`
	SourceID uint64 `json:"source,omitempty"`
}

// Valid reports whether r points at an object.
func (r ObjectRef) Valid() bool {
	return r.ID != 0
}

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type TransformInfo struct {
	Pos             Vec2       `json:"pos"`
	Rot             float64    `json:"rot"`
	Scale           Vec2       `json:"scale"`
	Alignment       Alignment  `json:"alignment"`
	BoundsType      BoundsType `json:"boundsType"`
	BoundsAlignment uint32     `json:"boundsAlignment"`
	Bounds          Vec2       `json:"bounds"`
}

type CropInfo struct {
	Left   int32 `json:"left"`
	Right  int32 `json:"right"`
	Top    int32 `json:"top"`
	Bottom int32 `json:"bottom"`
}

// PropertyInfo describes one configurable property of a source.
type PropertyInfo struct {
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	LongDescription string       `json:"longDescription,omitempty"`
	Type            PropertyType `json:"type"`
	Enabled         bool         `json:"enabled"`
	Visible         bool         `json:"visible"`

	List         *ListDetails         `json:"list,omitempty"`
	EditableList *EditableListDetails `json:"editableList,omitempty"`
	Number       *NumberDetails       `json:"number,omitempty"`
	Text         *TextDetails         `json:"text,omitempty"`
	Path         *PathDetails         `json:"path,omitempty"`
}

type ListItem struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type ListDetails struct {
	Format ListFormat `json:"format"`
	Items  []ListItem `json:"items"`
}

type EditableListDetails struct {
	ListDetails
	Type        EditableListType `json:"type"`
	Filter      string           `json:"filter,omitempty"`
	DefaultPath string           `json:"defaultPath,omitempty"`
}

type NumberDetails struct {
	Type NumberType `json:"type"`
	Min  float64    `json:"min"`
	Max  float64    `json:"max"`
	Step float64    `json:"step"`
}

type TextDetails struct {
	Type TextType `json:"type"`
}

type PathDetails struct {
	Type PathType `json:"type"`
}

// VolmeterData is one per-channel level snapshot.
type VolmeterData struct {
	Level     []float64 `json:"level"`
	Magnitude []float64 `json:"magnitude"`
	Peak      []float64 `json:"peak"`
	Muted     bool      `json:"muted"`
}

// FaderData carries the fader level in decibels.
type FaderData struct {
	DB float64 `json:"db"`
}

// SceneSignalData accompanies scene signals.
type SceneSignalData struct {
	Scene  uint64 `json:"scene"`
	Item   uint64 `json:"item,omitempty"`
	ItemID int64  `json:"itemId,omitempty"`
	Source uint64 `json:"source,omitempty"`
}

// OutputSignalData accompanies output start/stop signals.
type OutputSignalData struct {
	Code  int    `json:"code"`
	Error string `json:"error,omitempty"`
}

// ReleaseResult reports the outcome of a release or remove.
type ReleaseResult struct {
	Destroyed bool `json:"destroyed"`
	Refs      int  `json:"refs"`
}

type DisplayInit struct {
	Width    uint32         `json:"width"`
	Height   uint32         `json:"height"`
	Format   ColorFormat    `json:"format"`
	ZSFormat ZStencilFormat `json:"zsformat"`
}

type ModuleInfo struct {
	FileName    string `json:"fileName"`
	Name        string `json:"name"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	BinPath     string `json:"binPath"`
	DataPath    string `json:"dataPath"`
	Initialized bool   `json:"initialized"`
}

// GlobalInfo is the host's global state.
type GlobalInfo struct {
	Initialized bool   `json:"initialized"`
	Locale      string `json:"locale"`
	DataPath    string `json:"dataPath,omitempty"`
	Version     uint32 `json:"version"`
}
