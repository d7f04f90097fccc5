// Package deferred provides lazily resolved references to named values that
// only exist once the build step producing them has executed.
//
// A producing operation owns an Outputs set and hands out refs to it at
// registration time, long before its own step has run. A consuming step that
// resolves a ref inside its argument factory sees populated data, as long as
// the producer was registered earlier in the workflow.
package deferred

import "sync"

// Outputs is a set of named values owned by a producing operation. It starts
// empty and is populated by the producer's step action at the moment it runs.
type Outputs struct {
	mutex  sync.RWMutex
	values map[string]string
}

// NewOutputs returns a new, empty output set.
func NewOutputs() *Outputs {
	return &Outputs{}
}

// Set stores a named value, overwriting any previous value with that name.
func (o *Outputs) Set(name, value string) {
	o.mutex.Lock()
	if o.values == nil {
		o.values = make(map[string]string)
	}
	o.values[name] = value
	o.mutex.Unlock()
}

// SetAll stores all values from the map.
func (o *Outputs) SetAll(values map[string]string) {
	o.mutex.Lock()
	if o.values == nil {
		o.values = make(map[string]string, len(values))
	}
	for name, value := range values {
		o.values[name] = value
	}
	o.mutex.Unlock()
}

// Lookup reads a named value. The second return is false if the value has
// not been produced yet.
func (o *Outputs) Lookup(name string) (string, bool) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	value, ok := o.values[name]
	return value, ok
}

// Ref returns a lazily resolved reference to the named output. The reference
// may be created before the value exists.
func (o *Outputs) Ref(name string) Ref {
	return Ref{
		outputs: o,
		name:    name,
	}
}

// Ref is a lazily resolved handle to a named output of a not-yet-executed
// step.
type Ref struct {
	outputs *Outputs
	name    string
}

// Name returns the name of the referenced output.
func (r Ref) Name() string {
	return r.name
}

// Resolve reads the referenced value at call time. It reports ok=false while
// the producing step has not run yet. An absent value means the build script
// resolved the reference before its producer was executed; that is an
// ordering bug in the script, not a transient condition to retry.
func (r Ref) Resolve() (string, bool) {
	if r.outputs == nil {
		return "", false
	}
	return r.outputs.Lookup(r.name)
}

// ResolveOr resolves the referenced value, or returns the fallback when the
// value is absent.
func (r Ref) ResolveOr(fallback string) string {
	if value, ok := r.Resolve(); ok {
		return value
	}
	return fallback
}
