// Package transform composes named image transforms into a single function.
package transform

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/user/frameset/pkg/pipeline"
)

// Func maps an image to a new image. It never mutates its input.
type Func = pipeline.TransformFunc

// Spec names one transform and its parameters.
type Spec struct {
	Name   string `yaml:"name"`
	Params Params `yaml:"params,omitempty"`
}

// Factory builds a transform from its parameters, validating them.
type Factory func(params Params) (Func, error)

// UnknownTransformError reports a transform name absent from the registry.
type UnknownTransformError struct {
	Name     string
	Position int
}

func (e *UnknownTransformError) Error() string {
	return fmt.Sprintf("unknown transform %q at position %d", e.Name, e.Position)
}

// InvalidParamsError reports parameters rejected by a transform factory.
type InvalidParamsError struct {
	Name     string
	Position int
	Err      error
}

func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid params for transform %q at position %d: %v", e.Name, e.Position, e.Err)
}

func (e *InvalidParamsError) Unwrap() error {
	return e.Err
}

// Registry maps transform names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a registry holding the built-in transforms.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	for name, f := range builtins() {
		r.factories[name] = f
	}
	return r
}

// Register adds or replaces a transform kind.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Names returns the registered transform names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compose resolves every spec and returns their composition in declaration order.
// All specs are resolved before the returned function can run, so an unknown name
// or invalid parameter fails here. An empty list composes to the identity.
func (r *Registry) Compose(specs []Spec) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make([]Func, 0, len(specs))
	for i, spec := range specs {
		factory, ok := r.factories[spec.Name]
		if !ok {
			return nil, &UnknownTransformError{Name: spec.Name, Position: i}
		}
		fn, err := factory(spec.Params)
		if err != nil {
			return nil, &InvalidParamsError{Name: spec.Name, Position: i, Err: err}
		}
		steps = append(steps, fn)
	}

	return func(img image.Image) (image.Image, error) {
		var err error
		for i, step := range steps {
			img, err = step(img)
			if err != nil {
				return nil, fmt.Errorf("transform %s: %w", specs[i].Name, err)
			}
		}
		return img, nil
	}, nil
}

// Identity returns its input unchanged.
func Identity(img image.Image) (image.Image, error) {
	return img, nil
}
