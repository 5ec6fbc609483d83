package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettings_Merge(t *testing.T) {
	s := Settings{"url": "a", "width": 100}
	s.Merge(Settings{"width": 200, "height": 50})

	assert.Equal(t, Settings{"url": "a", "width": 200, "height": 50}, s)

	var empty Settings
	merged := empty.Merge(Settings{"k": true})
	assert.Equal(t, Settings{"k": true}, merged)
}

func TestSettings_CloneIsIndependent(t *testing.T) {
	s := Settings{"a": 1}
	c := s.Clone()
	c["a"] = 2
	assert.Equal(t, 1, s["a"])
}

func TestKind_Helpers(t *testing.T) {
	assert.True(t, KindScene.IsSource())
	assert.True(t, KindFilter.IsSource())
	assert.False(t, KindSceneItem.IsSource())
	assert.False(t, KindVolmeter.IsSource())

	assert.Equal(t, "SceneItem", KindSceneItem.Class())
	assert.Equal(t, "Properties", KindProperty.Class())
	assert.Equal(t, SourceTransition, KindTransition.SourceType())
	assert.Equal(t, SourceInput, KindInput.SourceType())
}

func TestSceneSignal_Signal(t *testing.T) {
	sig, ok := SceneItemTransform.Signal()
	assert.True(t, ok)
	assert.Equal(t, SignalItemTransform, sig)

	_, ok = SceneSignal(99).Signal()
	assert.False(t, ok)
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "invalid_reference", CodeInvalidReference.String())
	assert.Equal(t, "code(42)", Code(42).String())
}

func TestSceneDupType(t *testing.T) {
	assert.False(t, DupRefs.Private())
	assert.True(t, DupPrivateCopy.Private())
	assert.True(t, DupPrivateCopy.Copies())
	assert.False(t, DupPrivateRefs.Copies())
}

func TestSignal_Lossy(t *testing.T) {
	assert.True(t, SignalVolmeter.Lossy())
	assert.True(t, SignalFader.Lossy())
	assert.False(t, SignalItemAdd.Lossy())
	assert.False(t, SignalDestroyed.Lossy())
}
