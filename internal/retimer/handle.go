package retimer

import (
	"fmt"
	"strconv"
	"strings"
)

// NamePrefix is the fixed prefix of every registered handle name. The full
// name is the prefix followed by the decimal identifier ("retimer0",
// "retimer3", ...). Anything parsing these names depends on this format
// staying bit-exact.
const NamePrefix = "retimer"

// Parent is a non-owning back-reference to the caller's device. The parent
// is owned by its own subsystem; the registry never mutates it and only
// reads the configuration node it points at.
type Parent struct {
	// Name is a human-readable identifier for the owning device.
	Name string `json:"name"`

	// Node is the configuration-tree path holding the device's static
	// properties (the "label" property is resolved beneath it).
	Node string `json:"node"`
}

// Handle represents one registered device instance. The identifier is a
// first-class field bound to the handle for its registered lifetime; the
// generated name is kept alongside it for external visibility, and name
// parsing is only used at boundaries as a consistency cross-check.
type Handle struct {
	id     int
	name   string
	parent *Parent
}

// ID returns the identifier bound to this handle.
func (h *Handle) ID() int { return h.id }

// Name returns the generated handle name, e.g. "retimer3".
func (h *Handle) Name() string { return h.name }

// Parent returns the non-owning parent reference.
func (h *Handle) Parent() *Parent { return h.parent }

// HandleName returns the deterministic name for an identifier.
func HandleName(id int) string {
	return NamePrefix + strconv.Itoa(id)
}

// ParseHandleName extracts the identifier encoded in a handle name.
// It returns ErrMalformedName if the name does not match the
// prefix-plus-digits pattern.
func ParseHandleName(name string) (int, error) {
	digits, ok := strings.CutPrefix(name, NamePrefix)
	if !ok || digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedName, name)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedName, name)
		}
	}
	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrMalformedName, name, err)
	}
	return id, nil
}
