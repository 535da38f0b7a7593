// Copyright (c) 2026 Keymaster Team
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

// Package container is a small service container. Services are registered
// under a string id with a factory and built on first Get.
package container

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrServiceNotFound is returned by Get for an id nothing was registered under.
var ErrServiceNotFound = errors.New("container: service not found")

// Factory builds a service. It may look up other services on c.
type Factory func(c *Container) (any, error)

// ServiceProvider registers a group of services.
type ServiceProvider interface {
	Provides() []string
	Register(c *Container)
}

type entry struct {
	factory Factory
	shared  bool

	once     sync.Once
	instance any
	err      error
}

// Container maps ids to factories.
type Container struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New returns an empty Container.
func New() *Container {
	return &Container{entries: make(map[string]*entry)}
}

// Share registers a service that is built once; every Get returns the same
// instance (or the same error).
func (c *Container) Share(id string, f Factory) {
	c.set(id, &entry{factory: f, shared: true})
}

// Add registers a service that is built anew on every Get.
func (c *Container) Add(id string, f Factory) {
	c.set(id, &entry{factory: f})
}

func (c *Container) set(id string, e *entry) {
	c.mu.Lock()
	c.entries[id] = e
	c.mu.Unlock()
}

// AddServiceProvider lets p register its services.
func (c *Container) AddServiceProvider(p ServiceProvider) {
	p.Register(c)
}

// Has reports whether id is registered.
func (c *Container) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[id]
	return ok
}

// IDs returns the registered ids, sorted.
func (c *Container) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get builds or returns the service registered under id. The container lock
// is not held while a factory runs, so factories may call Get themselves.
func (c *Container) Get(id string) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, id)
	}
	if !e.shared {
		return e.factory(c)
	}
	e.once.Do(func() {
		e.instance, e.err = e.factory(c)
	})
	return e.instance, e.err
}

// Resolve is Get with a type assertion.
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T
	v, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: service %q is %T, not %T", id, v, zero)
	}
	return t, nil
}
