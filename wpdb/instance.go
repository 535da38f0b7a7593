// Copyright (c) 2026 Keymaster Team
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package wpdb

import (
	"context"
	"errors"
	"sync"

	"github.com/toeirei/wpdatabase/container"
)

// ErrNotInitialized is returned by Instance before any Registry was built.
var ErrNotInitialized = errors.New("wpdb: registry not initialized")

// ServiceID is the container id the Registry is shared under.
const ServiceID = "wpdb.Registry"

var (
	instanceMu sync.RWMutex
	instance   *Registry
)

// Instance returns the process-wide Registry.
func Instance() (*Registry, error) {
	instanceMu.RLock()
	defer instanceMu.RUnlock()
	if instance == nil {
		return nil, ErrNotInitialized
	}
	return instance, nil
}

func setInstanceIfNil(r *Registry) {
	instanceMu.Lock()
	if instance == nil {
		instance = r
	}
	instanceMu.Unlock()
}

// resetInstance forgets the process-wide Registry. Used by tests.
func resetInstance() {
	instanceMu.Lock()
	instance = nil
	instanceMu.Unlock()
}

// Resolve returns the process-wide Registry. When none exists yet it is
// built through c (when c has it registered) or from the environment.
func Resolve(ctx context.Context, c *container.Container) (*Registry, error) {
	r, err := Instance()
	if err == nil {
		return r, nil
	}
	if c != nil && c.Has(ServiceID) {
		return container.Resolve[*Registry](c, ServiceID)
	}
	return New(ctx, Config{})
}

// ServiceProvider shares the Registry in a container.
type ServiceProvider struct{}

var _ container.ServiceProvider = ServiceProvider{}

// Provides lists the ids registered by Register.
func (ServiceProvider) Provides() []string {
	return []string{ServiceID}
}

// Register shares a Registry built from the environment under ServiceID.
func (ServiceProvider) Register(c *container.Container) {
	c.Share(ServiceID, func(c *container.Container) (any, error) {
		return New(context.Background(), Config{}, WithContainer(c))
	})
}
