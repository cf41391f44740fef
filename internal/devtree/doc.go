// Package devtree loads the static configuration tree that backs parent
// device properties.
//
// The tree is a flat map of node paths to property maps, loaded once from
// YAML at startup and immutable afterwards. It implements
// retimer.PropertySource, so the registry can resolve the "label" attribute
// without knowing where the data comes from.
//
// File format:
//
//	nodes:
//	  /soc/i2c@1/retimer@18:
//	    label: east-link
//	    vendor: acme
//	  /soc/i2c@1/retimer@19:
//	    label: west-link
//
// String property values are handed out with a trailing NUL terminator,
// matching the convention the registry's attribute transport expects.
package devtree
