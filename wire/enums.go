package wire

// SourceType is the public classification of a source.
type SourceType int

const (
	SourceInput SourceType = iota
	SourceFilter
	SourceTransition
	SourceScene
)

// Alignment is a bit set anchoring an item inside its bounds.
type Alignment uint32

const (
	AlignCenter      Alignment = 0
	AlignLeft        Alignment = 1 << 0
	AlignRight       Alignment = 1 << 1
	AlignTop         Alignment = 1 << 2
	AlignBottom      Alignment = 1 << 3
	AlignTopLeft               = AlignTop | AlignLeft
	AlignTopRight              = AlignTop | AlignRight
	AlignBottomLeft            = AlignBottom | AlignLeft
	AlignBottomRight           = AlignBottom | AlignRight
)

type BoundsType int

const (
	BoundsNone BoundsType = iota
	BoundsStretch
	BoundsScaleInner
	BoundsScaleOuter
	BoundsScaleToWidth
	BoundsScaleToHeight
	BoundsMaxOnly
)

type ScaleType int

const (
	ScaleDisable ScaleType = iota
	ScalePoint
	ScaleBicubic
	ScaleBilinear
	ScaleLanczos
	ScaleArea
)

type MonitoringType int

const (
	MonitoringNone MonitoringType = iota
	MonitoringOnly
	MonitoringAndOutput
)

type DeinterlaceFieldOrder int

const (
	FieldOrderTop DeinterlaceFieldOrder = iota
	FieldOrderBottom
)

type DeinterlaceMode int

const (
	DeinterlaceDisable DeinterlaceMode = iota
	DeinterlaceDiscard
	DeinterlaceRetro
	DeinterlaceBlend
	DeinterlaceBlend2X
	DeinterlaceLinear
	DeinterlaceLinear2X
	DeinterlaceYadif
	DeinterlaceYadif2X
)

// OrderMovement moves an element within an ordered chain. Movement past
// either end is clamped.
type OrderMovement int

const (
	OrderUp OrderMovement = iota
	OrderDown
	OrderTop
	OrderBottom
)

// SceneDupType selects how Scene.Duplicate treats the items' sources.
type SceneDupType int

const (
	DupRefs SceneDupType = iota
	DupCopy
	DupPrivateRefs
	DupPrivateCopy
)

// Private reports whether the duplicate is excluded from name lookups.
func (d SceneDupType) Private() bool {
	return d == DupPrivateRefs || d == DupPrivateCopy
}

// Copies reports whether item sources are duplicated rather than shared.
func (d SceneDupType) Copies() bool {
	return d == DupCopy || d == DupPrivateCopy
}

type FaderType int

const (
	FaderCubic FaderType = iota
	FaderIEC
	FaderLog
)

// OutputFlags describe a source type's capabilities.
type OutputFlags uint32

const (
	FlagVideo            OutputFlags = 1 << 0
	FlagAudio            OutputFlags = 1 << 1
	FlagAsync            OutputFlags = 1 << 2
	FlagAsyncVideo                   = FlagAsync | FlagVideo
	FlagCustomDraw       OutputFlags = 1 << 3
	FlagInteraction      OutputFlags = 1 << 5
	FlagComposite        OutputFlags = 1 << 6
	FlagDoNotDuplicate   OutputFlags = 1 << 7
	FlagDeprecated       OutputFlags = 1 << 8
	FlagDoNotSelfMonitor OutputFlags = 1 << 9
)

type PropertyType int

const (
	PropertyInvalid PropertyType = iota
	PropertyBoolean
	PropertyInt
	PropertyFloat
	PropertyText
	PropertyPath
	PropertyList
	PropertyColor
	PropertyButton
	PropertyFont
	PropertyEditableList
	PropertyFrameRate
)

type ListFormat int

const (
	ListInvalid ListFormat = iota
	ListInt
	ListFloat
	ListString
)

type EditableListType int

const (
	EditableStrings EditableListType = iota
	EditableFiles
	EditableFilesAndURLs
)

type PathType int

const (
	PathFile PathType = iota
	PathFileSave
	PathDirectory
)

type TextType int

const (
	TextDefault TextType = iota
	TextPassword
	TextMultiline
)

type NumberType int

const (
	NumberScroller NumberType = iota
	NumberSlider
)

type ColorFormat int

const (
	ColorUnknown ColorFormat = iota
	ColorA8
	ColorR8
	ColorRGBA
	ColorBGRX
	ColorBGRA
)

type ZStencilFormat int

const (
	ZSNone ZStencilFormat = iota
	ZS16
	ZS24S8
	ZS32F
	ZS32FS8X24
)
