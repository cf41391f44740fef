// Package retimer provides the device registry for retimer-core.
//
// A retimer is a signal-conditioning component sitting between a host port
// and a physical link. This package manages the bindings between those
// devices and their small-integer identifiers: identifiers are issued by an
// Allocator, handles are published through a Registry, and each handle
// exposes one derived read-only attribute ("label") resolved lazily from
// static configuration data.
//
// # Key Types
//
//   - Allocator: issues and reclaims unique non-negative identifiers
//   - Registry: register/unregister lifecycle and handle enumeration
//   - Handle: one registered device instance, named "retimer<N>"
//   - PropertySource: injected capability for static property lookups
//
// # Usage
//
//	tree, _ := devtree.Load("configs/device_tree.yaml")
//	registry := retimer.NewRegistry(tree, 0)
//	registry.SetLogger(log)
//
//	h, err := registry.Register(&retimer.Parent{Name: "port-a", Node: "/ports/a"})
//	if err != nil {
//	    return err
//	}
//
//	buf := make([]byte, 64)
//	n := registry.ReadLabel(h, buf) // buf holds "east-link\n\x00", n == 10
//
//	registry.Unregister(h)
//
// # Thread Safety
//
// All Registry and Allocator methods are safe for concurrent use. Two
// concurrent Register calls never observe the same identifier.
package retimer
