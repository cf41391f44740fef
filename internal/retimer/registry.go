package retimer

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// PropertySource resolves static configuration properties for parent
// devices. Implementations return the raw stored bytes; string property
// values carry a trailing NUL terminator, matching how the configuration
// tree stores them.
//
// Lookups must be read-only and safe for concurrent use.
type PropertySource interface {
	LookupProperty(node, key string) ([]byte, bool)
}

// labelProperty is the parent property backing the label attribute.
const labelProperty = "label"

// labelFallback is returned when the property is absent, empty, or the
// parent is unavailable. Absent and present-but-empty deliberately collapse
// into the same fallback.
const labelFallback = "unknown"

// Registry manages the bindings between identifiers and registered handles.
// It owns an Allocator and the table of externally visible handles; both
// live for the Registry's lifetime, and all handle creation and destruction
// happens through it.
//
// All public methods are thread-safe.
type Registry struct {
	alloc  *Allocator
	source PropertySource

	mu      sync.RWMutex
	handles map[string]*Handle // Visible handles keyed by generated name

	logger Logger

	sinkMu sync.RWMutex
	sinks  []Sink
}

// NewRegistry creates a registry resolving label lookups through source.
// maxDevices caps the number of simultaneously registered handles; a value
// <= 0 means unbounded. A nil source is allowed and makes every label read
// degrade to the fallback.
func NewRegistry(source PropertySource, maxDevices int) *Registry {
	return &Registry{
		alloc:   NewAllocator(maxDevices),
		source:  source,
		handles: make(map[string]*Handle),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// AddSink registers a lifecycle event sink. Sinks added after handles exist
// only observe subsequent transitions.
func (r *Registry) AddSink(s Sink) {
	r.sinkMu.Lock()
	r.sinks = append(r.sinks, s)
	r.sinkMu.Unlock()
}

// Register acquires an identifier, constructs a handle named after it as a
// child of parent, and publishes it. On success the handle is externally
// visible (enumerable via Handles and Lookup) until Unregister.
//
// Failure conditions: ErrExhausted if the allocator cannot issue an
// identifier, ErrRegistrationFailed if handle construction or publication
// fails afterwards. On every error path the acquired identifier is released
// before returning, so allocator state is left unchanged.
func (r *Registry) Register(parent *Parent) (*Handle, error) {
	if parent == nil {
		return nil, fmt.Errorf("%w: nil parent", ErrRegistrationFailed)
	}

	id, err := r.alloc.Acquire()
	if err != nil {
		return nil, err
	}

	h := &Handle{
		id:     id,
		name:   HandleName(id),
		parent: parent,
	}

	r.mu.Lock()
	if _, exists := r.handles[h.name]; exists {
		r.mu.Unlock()
		r.alloc.Release(id)
		r.logger.Error("handle name collision", "name", h.name)
		return nil, fmt.Errorf("%w: name %q already registered", ErrRegistrationFailed, h.name)
	}
	r.handles[h.name] = h
	live := len(r.handles)
	r.mu.Unlock()

	r.logger.Info("retimer attached", "id", id, "name", h.name, "parent", parent.Node)
	r.emit(Event{
		Type:       EventAttached,
		ID:         id,
		Name:       h.name,
		ParentName: parent.Name,
		ParentNode: parent.Node,
		Live:       live,
		Timestamp:  time.Now().UTC(),
	})

	return h, nil
}

// Unregister tears down a handle previously returned by Register and
// reclaims its identifier. The handle is removed from the visible set first
// and the identifier released after, so no concurrent Register can reuse the
// identifier of a still-visible handle.
//
// The identifier is re-derived from the handle's name as a corruption check.
// If the name no longer decodes to the handle's identifier the operation is
// logged and aborted without destructive side effects: the handle stays
// registered rather than risk releasing an identifier it does not own.
// Unregister never reports an error to the caller.
func (r *Registry) Unregister(h *Handle) {
	if h == nil {
		return
	}

	id, err := ParseHandleName(h.name)
	if err != nil {
		r.logger.Error("unregister aborted: unexpected handle name", "name", h.name, "error", err)
		return
	}
	if id != h.id {
		r.logger.Error("unregister aborted: name does not match identifier",
			"name", h.name, "id", h.id, "parsed_id", id)
		return
	}

	r.mu.Lock()
	cur, ok := r.handles[h.name]
	if !ok || cur != h {
		r.mu.Unlock()
		r.logger.Warn("unregister of unknown handle", "name", h.name)
		return
	}
	delete(r.handles, h.name)
	live := len(r.handles)
	r.mu.Unlock()

	// The handle is no longer visible; only now may the identifier be reused.
	r.alloc.Release(id)

	r.logger.Info("retimer detached", "id", id, "name", h.name)
	e := Event{
		Type:      EventDetached,
		ID:        id,
		Name:      h.name,
		Live:      live,
		Timestamp: time.Now().UTC(),
	}
	if h.parent != nil {
		e.ParentName = h.parent.Name
		e.ParentNode = h.parent.Node
	}
	r.emit(e)
}

// Lookup returns the registered handle with the given name.
func (r *Registry) Lookup(name string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[name]
	return h, ok
}

// Handles returns the registered handles ordered by identifier.
func (r *Registry) Handles() []*Handle {
	r.mu.RLock()
	handles := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	sort.Slice(handles, func(i, j int) bool { return handles[i].id < handles[j].id })
	return handles
}

// Count returns the number of registered handles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Capacity returns the configured handle ceiling, or 0 if unbounded.
func (r *Registry) Capacity() int {
	return r.alloc.Capacity()
}

// ReadLabel copies the handle's label attribute into buf using the attribute
// transport convention: the label bytes without their stored terminator,
// then a newline, then a NUL terminator. The return value counts the bytes
// written excluding the trailing NUL. Output is truncated to fit buf and is
// always NUL-terminated when buf is non-empty.
//
// A missing property, an empty value, or an unavailable parent all yield the
// "unknown" fallback; ReadLabel has no error path and mutates nothing.
func (r *Registry) ReadLabel(h *Handle, buf []byte) int {
	label := r.labelBytes(h)

	if len(buf) == 0 {
		return 0
	}

	n := copy(buf, label)
	if n < len(buf) {
		buf[n] = '\n'
		n++
	}
	if n < len(buf) {
		buf[n] = 0
	} else {
		buf[len(buf)-1] = 0
		n = len(buf) - 1
	}
	return n
}

// Label returns the handle's label as a plain string, without the transport
// framing that ReadLabel applies.
func (r *Registry) Label(h *Handle) string {
	return string(r.labelBytes(h))
}

// labelBytes resolves the label property, stripping the stored terminator
// and degrading to the fallback for absent or empty values.
func (r *Registry) labelBytes(h *Handle) []byte {
	if h == nil || h.parent == nil || r.source == nil {
		return []byte(labelFallback)
	}
	v, ok := r.source.LookupProperty(h.parent.Node, labelProperty)
	if !ok {
		return []byte(labelFallback)
	}
	v = bytes.TrimSuffix(v, []byte{0})
	if len(v) == 0 {
		return []byte(labelFallback)
	}
	return v
}

// emit fans an event out to all registered sinks.
func (r *Registry) emit(e Event) {
	r.sinkMu.RLock()
	sinks := r.sinks
	r.sinkMu.RUnlock()

	for _, s := range sinks {
		s.HandleEvent(e)
	}
}
