package wire

// Kind tags the class of a remote object. Two references alias the same
// remote object when their id and Kind are equal.
type Kind string

const (
	KindInput      Kind = "input"
	KindFilter     Kind = "filter"
	KindTransition Kind = "transition"
	KindScene      Kind = "scene"
	KindSceneItem  Kind = "scene_item"
	KindOutput     Kind = "output"
	KindEncoder    Kind = "encoder"
	KindService    Kind = "service"
	KindDisplay    Kind = "display"
	KindFader      Kind = "fader"
	KindVolmeter   Kind = "volmeter"
	KindModule     Kind = "module"
	KindProperties Kind = "properties"
	KindProperty   Kind = "property"
)

// IsSource reports whether objects of kind k live in the source namespace
// (name lookups, filters, settings, properties).
func (k Kind) IsSource() bool {
	switch k {
	case KindInput, KindFilter, KindTransition, KindScene:
		return true
	}
	return false
}

// Class returns the RPC class that serves objects of kind k.
func (k Kind) Class() string {
	switch k {
	case KindInput:
		return "Input"
	case KindFilter:
		return "Filter"
	case KindTransition:
		return "Transition"
	case KindScene:
		return "Scene"
	case KindSceneItem:
		return "SceneItem"
	case KindOutput:
		return "Output"
	case KindEncoder:
		return "Encoder"
	case KindService:
		return "Service"
	case KindDisplay:
		return "Display"
	case KindFader:
		return "Fader"
	case KindVolmeter:
		return "Volmeter"
	case KindModule:
		return "Module"
	case KindProperties, KindProperty:
		return "Properties"
	}
	return ""
}

// SourceType returns the public source type for source kinds.
func (k Kind) SourceType() SourceType {
	switch k {
	case KindFilter:
		return SourceFilter
	case KindTransition:
		return SourceTransition
	case KindScene:
		return SourceScene
	}
	return SourceInput
}
