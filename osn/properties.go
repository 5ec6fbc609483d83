package osn

import (
	"context"
	"iter"

	"github.com/wippyai/obs-ipc/wire"
)

// Properties is a snapshot of an object's property descriptions.
type Properties struct {
	owner *object
	list  []wire.PropertyInfo
}

func (p *Properties) fetch(ctx context.Context) error {
	list, err := get[[]wire.PropertyInfo](ctx, p.owner, "Properties", "Get")
	if err != nil {
		return err
	}
	p.list = list
	return nil
}

// Property is one description and the cursor position after it. A cursor
// is single pass and not safe for concurrent use.
type Property struct {
	wire.PropertyInfo
	props *Properties
	index int
}

func (p *Properties) at(i int) *Property {
	if i < 0 || i >= len(p.list) {
		return nil
	}
	return &Property{PropertyInfo: p.list[i], props: p, index: i}
}

// First refreshes the snapshot and returns its first property, or nil
// when the object has none.
func (p *Properties) First(ctx context.Context) (*Property, error) {
	if err := p.fetch(ctx); err != nil {
		return nil, err
	}
	return p.at(0), nil
}

// Next returns the following property, or nil at the end.
func (p *Property) Next() *Property {
	return p.props.at(p.index + 1)
}

// Count returns the size of the current snapshot.
func (p *Properties) Count() int { return len(p.list) }

// Get finds a property by name in the current snapshot.
func (p *Properties) Get(name string) *Property {
	for i := range p.list {
		if p.list[i].Name == name {
			return p.at(i)
		}
	}
	return nil
}

// All yields every property of a fresh snapshot. Each range over the
// sequence fetches again.
func (p *Properties) All(ctx context.Context) iter.Seq2[*Property, error] {
	return func(yield func(*Property, error) bool) {
		first, err := p.First(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for prop := first; prop != nil; prop = prop.Next() {
			if !yield(prop, nil) {
				return
			}
		}
	}
}

// ButtonClicked presses a button property. It reports whether the
// property list should be fetched again.
func (p *Property) ButtonClicked(ctx context.Context) (bool, error) {
	return get[bool](ctx, p.props.owner, "Properties", "ButtonClicked", p.Name)
}
