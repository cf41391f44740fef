package retimer

import (
	"errors"
	"sync"
	"testing"
)

// fakeSource is a map-backed PropertySource for tests. String values are
// stored with the trailing NUL the configuration tree would carry.
type fakeSource struct {
	mu    sync.RWMutex
	props map[string]map[string][]byte
}

func newFakeSource() *fakeSource {
	return &fakeSource{props: make(map[string]map[string][]byte)}
}

func (f *fakeSource) setString(node, key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.props[node] == nil {
		f.props[node] = make(map[string][]byte)
	}
	f.props[node][key] = append([]byte(value), 0)
}

func (f *fakeSource) setRaw(node, key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.props[node] == nil {
		f.props[node] = make(map[string][]byte)
	}
	f.props[node][key] = value
}

func (f *fakeSource) LookupProperty(node, key string) ([]byte, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.props[node][key]
	return v, ok
}

// recordingSink captures emitted lifecycle events.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) HandleEvent(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestRegisterAssignsSequentialIdentifiers(t *testing.T) {
	reg := NewRegistry(newFakeSource(), 0)
	parent := &Parent{Name: "host-port", Node: "/ports/0"}

	for want := 0; want < 3; want++ {
		h, err := reg.Register(parent)
		if err != nil {
			t.Fatalf("Register() error: %v", err)
		}
		if h.ID() != want {
			t.Errorf("handle ID = %d, want %d", h.ID(), want)
		}
		if h.Name() != HandleName(want) {
			t.Errorf("handle name = %q, want %q", h.Name(), HandleName(want))
		}
		if h.Parent() != parent {
			t.Errorf("handle parent = %p, want %p", h.Parent(), parent)
		}
	}

	if got := reg.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}

func TestRegisterNilParent(t *testing.T) {
	reg := NewRegistry(newFakeSource(), 0)

	if _, err := reg.Register(nil); !errors.Is(err, ErrRegistrationFailed) {
		t.Fatalf("Register(nil) error = %v, want ErrRegistrationFailed", err)
	}

	// No identifier may have been consumed.
	h, err := reg.Register(&Parent{Node: "/ports/0"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if h.ID() != 0 {
		t.Errorf("handle ID = %d, want 0", h.ID())
	}
}

func TestUnregisterReleasesIdentifierForReuse(t *testing.T) {
	reg := NewRegistry(newFakeSource(), 0)
	parent := &Parent{Node: "/ports/0"}

	h0, err := reg.Register(parent)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	h1, err := reg.Register(parent)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	reg.Unregister(h0)

	if _, ok := reg.Lookup(h0.Name()); ok {
		t.Errorf("unregistered handle %q still visible", h0.Name())
	}
	if _, ok := reg.Lookup(h1.Name()); !ok {
		t.Errorf("handle %q should still be visible", h1.Name())
	}

	h2, err := reg.Register(parent)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if h2.ID() != 0 {
		t.Errorf("reused handle ID = %d, want 0", h2.ID())
	}
}

func TestUnregisterMalformedNameIsInert(t *testing.T) {
	reg := NewRegistry(newFakeSource(), 0)
	parent := &Parent{Node: "/ports/0"}

	h, err := reg.Register(parent)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	registeredName := h.Name()

	// Simulate name corruption: the handle's name no longer matches the
	// expected pattern. Unregister must refuse to release the identifier or
	// remove the handle.
	h.name = "timer0"
	reg.Unregister(h)

	if _, ok := reg.Lookup(registeredName); !ok {
		t.Errorf("handle %q was destroyed despite malformed name", registeredName)
	}
	if got := reg.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}

	// The identifier must not have been released: the next register gets 1.
	h2, err := reg.Register(parent)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if h2.ID() != 1 {
		t.Errorf("next handle ID = %d, want 1 (0 must still be held)", h2.ID())
	}
}

func TestUnregisterMismatchedIdentifierIsInert(t *testing.T) {
	reg := NewRegistry(newFakeSource(), 0)

	h, err := reg.Register(&Parent{Node: "/ports/0"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	// Name parses fine but decodes to a different identifier than the handle
	// holds. Treated as corruption: nothing is released or destroyed.
	h.name = HandleName(5)
	reg.Unregister(h)

	if got := reg.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}

	h2, err := reg.Register(&Parent{Node: "/ports/0"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if h2.ID() != 1 {
		t.Errorf("next handle ID = %d, want 1", h2.ID())
	}
}

func TestUnregisterUnknownHandle(t *testing.T) {
	reg := NewRegistry(newFakeSource(), 0)

	// Never registered; must be absorbed without panicking or corrupting
	// allocator state.
	reg.Unregister(&Handle{id: 0, name: HandleName(0)})
	reg.Unregister(nil)

	h, err := reg.Register(&Parent{Node: "/ports/0"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if h.ID() != 0 {
		t.Errorf("handle ID = %d, want 0", h.ID())
	}
}

func TestRegisterNameCollisionReleasesIdentifier(t *testing.T) {
	reg := NewRegistry(newFakeSource(), 0)

	// Occupy the name "retimer0" without holding identifier 0, simulating a
	// namespace creation failure.
	forged := &Handle{id: 99, name: HandleName(0)}
	reg.mu.Lock()
	reg.handles[forged.name] = forged
	reg.mu.Unlock()

	if _, err := reg.Register(&Parent{Node: "/ports/0"}); !errors.Is(err, ErrRegistrationFailed) {
		t.Fatalf("Register() error = %v, want ErrRegistrationFailed", err)
	}

	// The acquired identifier must have been released on the failure path.
	reg.mu.Lock()
	delete(reg.handles, forged.name)
	reg.mu.Unlock()

	h, err := reg.Register(&Parent{Node: "/ports/0"})
	if err != nil {
		t.Fatalf("Register() after collision cleanup error: %v", err)
	}
	if h.ID() != 0 {
		t.Errorf("handle ID = %d, want 0 (identifier leaked on failure path)", h.ID())
	}
}

func TestRegisterExhaustion(t *testing.T) {
	reg := NewRegistry(newFakeSource(), 1)

	h, err := reg.Register(&Parent{Node: "/ports/0"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if _, err := reg.Register(&Parent{Node: "/ports/1"}); !errors.Is(err, ErrExhausted) {
		t.Fatalf("Register() at capacity: error = %v, want ErrExhausted", err)
	}

	reg.Unregister(h)
	if _, err := reg.Register(&Parent{Node: "/ports/1"}); err != nil {
		t.Fatalf("Register() after reclamation error: %v", err)
	}
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	const workers = 50

	reg := NewRegistry(newFakeSource(), 0)

	var wg sync.WaitGroup
	handles := make([]*Handle, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			h, err := reg.Register(&Parent{Node: "/ports/x"})
			if err != nil {
				t.Errorf("Register() error: %v", err)
				return
			}
			handles[slot] = h
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, workers)
	for _, h := range handles {
		if h == nil {
			t.Fatal("missing handle from concurrent register")
		}
		if seen[h.ID()] {
			t.Fatalf("identifier %d bound to two handles", h.ID())
		}
		seen[h.ID()] = true
	}
	if got := reg.Count(); got != workers {
		t.Fatalf("Count() = %d, want %d", got, workers)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			reg.Unregister(handles[slot])
		}(i)
	}
	wg.Wait()

	if got := reg.Count(); got != 0 {
		t.Fatalf("Count() after unregistering all = %d, want 0", got)
	}

	// Identifier range fully reclaimed: fresh registrations are dense from 0.
	h, err := reg.Register(&Parent{Node: "/ports/x"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if h.ID() != 0 {
		t.Errorf("handle ID after full reclamation = %d, want 0", h.ID())
	}
}

func TestHandlesOrderedByIdentifier(t *testing.T) {
	reg := NewRegistry(newFakeSource(), 0)

	var created []*Handle
	for i := 0; i < 5; i++ {
		h, err := reg.Register(&Parent{Node: "/ports/0"})
		if err != nil {
			t.Fatalf("Register() error: %v", err)
		}
		created = append(created, h)
	}
	reg.Unregister(created[2])

	handles := reg.Handles()
	if len(handles) != 4 {
		t.Fatalf("Handles() returned %d entries, want 4", len(handles))
	}
	for i := 1; i < len(handles); i++ {
		if handles[i-1].ID() >= handles[i].ID() {
			t.Errorf("Handles() not ordered: %d before %d", handles[i-1].ID(), handles[i].ID())
		}
	}
}

func TestLifecycleEvents(t *testing.T) {
	reg := NewRegistry(newFakeSource(), 0)
	sink := &recordingSink{}
	reg.AddSink(sink)

	parent := &Parent{Name: "host-port", Node: "/ports/0"}
	h, err := reg.Register(parent)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	reg.Unregister(h)

	events := sink.snapshot()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	attach := events[0]
	if attach.Type != EventAttached || attach.ID != 0 || attach.Name != "retimer0" {
		t.Errorf("attach event = %+v", attach)
	}
	if attach.ParentNode != "/ports/0" || attach.Live != 1 {
		t.Errorf("attach event parent/live = %+v", attach)
	}

	detach := events[1]
	if detach.Type != EventDetached || detach.ID != 0 || detach.Live != 0 {
		t.Errorf("detach event = %+v", detach)
	}
}
