package ipc

import (
	"context"
	"sort"
	"sync"

	"github.com/wippyai/obs-ipc/errors"
)

// Func handles one request. The returned value is encoded as the reply
// result; a nil value sends an empty result.
type Func func(ctx context.Context, call *Call) (any, error)

// Registry maps class and method names to functions.
type Registry struct {
	funcs map[string]map[string]Func
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]map[string]Func),
	}
}

// Register adds every function of funcs under class.
func (r *Registry) Register(class string, funcs map[string]Func) error {
	if class == "" {
		return errors.InvalidArgument(errors.PhaseHost, []string{"class"}, "class cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[class] == nil {
		r.funcs[class] = make(map[string]Func, len(funcs))
	}
	for name, fn := range funcs {
		if name == "" || fn == nil {
			return errors.InvalidArgument(errors.PhaseHost, []string{class}, "method needs a name and a function")
		}
		r.funcs[class][name] = fn
	}
	return nil
}

// RegisterFunc adds a single function.
func (r *Registry) RegisterFunc(class, method string, fn Func) error {
	return r.Register(class, map[string]Func{method: fn})
}

// Lookup finds the function for class and method.
func (r *Registry) Lookup(class, method string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[class][method]
	return fn, ok
}

// Methods lists the registered methods of class in sorted order.
func (r *Registry) Methods(class string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs[class]))
	for name := range r.funcs[class] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Classes lists the registered classes in sorted order.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for class := range r.funcs {
		out = append(out, class)
	}
	sort.Strings(out)
	return out
}
