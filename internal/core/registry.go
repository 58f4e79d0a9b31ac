package core

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// DefaultMaxPathDepth bounds the number of segments in a member path.
const DefaultMaxPathDepth = 32

// Options configures a Directory.
type Options struct {
	CacheEnabled  bool // Identity caching for every manager
	DistributedTx bool // Process-wide default for MethodDefault
	MaxPathDepth  int  // Zero means DefaultMaxPathDepth

	// Default collaborators for types that do not bring their own.
	Provider QueryProvider
	Executor QueryExecutor

	// WarningSink is installed on every manager the directory creates.
	WarningSink WarningSink

	Logger *slog.Logger
}

// ManagerFactory produces managers for types that are not registered
// directly. Returning nil means the factory does not handle the type.
type ManagerFactory interface {
	NewManager(d *Directory, typeName string) *Manager
}

type metaEntry struct {
	once sync.Once
	meta *Metadata
	err  error
}

// Directory owns the per-type metadata and the single manager of each
// mapped type.
type Directory struct {
	opts Options

	specsMu sync.RWMutex
	specs   map[string]TypeSpec
	meta    sync.Map // type name -> *metaEntry

	mu        sync.RWMutex
	managers  map[string]*Manager
	factories []ManagerFactory
}

// NewDirectory creates an empty directory.
func NewDirectory(opts Options) *Directory {
	if opts.MaxPathDepth <= 0 {
		opts.MaxPathDepth = DefaultMaxPathDepth
	}
	if opts.Provider == nil {
		opts.Provider = DefaultProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Directory{
		opts:     opts,
		specs:    make(map[string]TypeSpec),
		managers: make(map[string]*Manager),
	}
}

// Options returns the directory's settings.
func (d *Directory) Options() Options {
	return d.opts
}

// Register adds a type and validates its metadata. A type can be
// registered once; the returned error is a *ConfigError.
func (d *Directory) Register(spec TypeSpec) error {
	d.specsMu.Lock()
	if _, exists := d.specs[spec.Name]; exists {
		d.specsMu.Unlock()
		return &ConfigError{Type: spec.Name, Reason: "type already registered"}
	}
	d.specs[spec.Name] = spec
	d.specsMu.Unlock()

	if _, err := d.Describe(spec.Name); err != nil {
		d.specsMu.Lock()
		delete(d.specs, spec.Name)
		d.specsMu.Unlock()
		d.meta.Delete(spec.Name)
		return err
	}
	return nil
}

// MustRegister is Register that panics on a configuration error.
func (d *Directory) MustRegister(specs ...TypeSpec) {
	for _, spec := range specs {
		if err := d.Register(spec); err != nil {
			panic(err)
		}
	}
}

// Describe returns the metadata of a registered type, computing it on
// first use. The result, success or failure, is cached.
func (d *Directory) Describe(typeName string) (*Metadata, error) {
	d.specsMu.RLock()
	spec, ok := d.specs[typeName]
	d.specsMu.RUnlock()
	if !ok {
		if v, ok := d.meta.Load(typeName); ok {
			e := v.(*metaEntry)
			return e.meta, e.err
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	return d.describeSpec(spec)
}

func (d *Directory) describeSpec(spec TypeSpec) (*Metadata, error) {
	v, _ := d.meta.LoadOrStore(spec.Name, &metaEntry{})
	e := v.(*metaEntry)
	e.once.Do(func() {
		e.meta, e.err = describe(spec)
	})
	return e.meta, e.err
}

// NewManager builds a manager for spec without registering a constructor.
// Factories use it for the types they serve.
func (d *Directory) NewManager(spec TypeSpec) (*Manager, error) {
	meta, err := d.describeSpec(spec)
	if err != nil {
		return nil, err
	}
	return newManager(d, meta, spec.Provider, spec.Executor), nil
}

// GetManager returns the single manager for typeName. Registered types are
// built from their spec; other types are offered to the factories in
// registration order and the first non-nil result is kept. ok is false
// when nobody can serve the type.
func (d *Directory) GetManager(typeName string) (*Manager, bool) {
	d.mu.RLock()
	m, ok := d.managers[typeName]
	factories := d.factories
	d.mu.RUnlock()
	if ok {
		return m, true
	}

	d.specsMu.RLock()
	spec, registered := d.specs[typeName]
	d.specsMu.RUnlock()

	if registered {
		built, err := d.NewManager(spec)
		if err != nil {
			d.opts.Logger.Error("manager construction failed", "type", typeName, "error", err)
			return nil, false
		}
		m = built
	} else {
		for _, f := range factories {
			if m = f.NewManager(d, typeName); m != nil {
				break
			}
		}
		if m == nil {
			return nil, false
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.managers[typeName]; ok {
		return existing, true
	}
	d.managers[typeName] = m
	return m, true
}

// Manager is GetManager returning ErrUnknownType when no manager exists.
func (d *Directory) Manager(typeName string) (*Manager, error) {
	m, ok := d.GetManager(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	return m, nil
}

// AddManagerFactory appends f unless it is already registered.
func (d *Directory) AddManagerFactory(f ManagerFactory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.factories {
		if existing == f {
			return
		}
	}
	next := make([]ManagerFactory, 0, len(d.factories)+1)
	next = append(next, d.factories...)
	d.factories = append(next, f)
}

// RemoveManagerFactory removes f. Managers it already produced stay live.
func (d *Directory) RemoveManagerFactory(f ManagerFactory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := make([]ManagerFactory, 0, len(d.factories))
	for _, existing := range d.factories {
		if existing != f {
			next = append(next, existing)
		}
	}
	d.factories = next
}

// ClearObjectsCache drops the identity cache of every live manager.
func (d *Directory) ClearObjectsCache() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, m := range d.managers {
		m.ClearObjectsCache()
	}
}

// Types returns the registered type names, sorted.
func (d *Directory) Types() []string {
	d.specsMu.RLock()
	defer d.specsMu.RUnlock()

	names := make([]string, 0, len(d.specs))
	for name := range d.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ManagerCount returns the number of live managers.
func (d *Directory) ManagerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.managers)
}

// Reset removes all managers, factories, registrations and metadata.
// Primarily useful for testing.
func (d *Directory) Reset() {
	d.mu.Lock()
	d.managers = make(map[string]*Manager)
	d.factories = nil
	d.mu.Unlock()

	d.specsMu.Lock()
	d.specs = make(map[string]TypeSpec)
	d.specsMu.Unlock()

	d.meta.Range(func(k, _ any) bool {
		d.meta.Delete(k)
		return true
	})
}
