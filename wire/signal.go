package wire

// Signal names an asynchronous host event.
type Signal string

const (
	// SignalDestroyed is pushed for every object the host destroys, before
	// the reply of the call that destroyed it.
	SignalDestroyed Signal = "destroyed"

	SignalVolmeter Signal = "volmeter"
	SignalFader    Signal = "fader"

	SignalItemAdd       Signal = "item_add"
	SignalItemRemove    Signal = "item_remove"
	SignalReorder       Signal = "reorder"
	SignalItemVisible   Signal = "item_visible"
	SignalItemSelect    Signal = "item_select"
	SignalItemDeselect  Signal = "item_deselect"
	SignalItemTransform Signal = "item_transform"

	SignalOutputStart Signal = "start"
	SignalOutputStop  Signal = "stop"

	SignalTransitionStop Signal = "transition_stop"
)

// Lossy reports whether intermediate events of this signal may be dropped
// when the receiver falls behind.
func (s Signal) Lossy() bool {
	return s == SignalVolmeter || s == SignalFader
}

// SceneSignal enumerates the scene signals in their public order.
type SceneSignal int

const (
	SceneItemAdd SceneSignal = iota
	SceneItemRemove
	SceneReorder
	SceneItemVisible
	SceneItemSelect
	SceneItemDeselect
	SceneItemTransform
)

var sceneSignals = [...]Signal{
	SceneItemAdd:       SignalItemAdd,
	SceneItemRemove:    SignalItemRemove,
	SceneReorder:       SignalReorder,
	SceneItemVisible:   SignalItemVisible,
	SceneItemSelect:    SignalItemSelect,
	SceneItemDeselect:  SignalItemDeselect,
	SceneItemTransform: SignalItemTransform,
}

// Signal returns the wire signal for a scene signal type.
func (s SceneSignal) Signal() (Signal, bool) {
	if s < 0 || int(s) >= len(sceneSignals) {
		return "", false
	}
	return sceneSignals[s], true
}
