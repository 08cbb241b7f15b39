package topic

import (
	"strings"
)

// Builder prefixes topic names with an optional root namespace
// (e.g. "site-a/box-7"), so several agents can share one broker.
type Builder struct {
	root string
}

// NewBuilder creates a Builder. An empty root leaves names untouched.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.Trim(root, "/")}
}

// Build returns name under the builder's root.
// Pattern: {root}/{name}, or {name} when no root is set.
func (b *Builder) Build(name string) string {
	name = strings.TrimPrefix(name, "/")
	if b.root == "" {
		return name
	}
	return b.root + "/" + name
}

// Root returns the configured root namespace.
func (b *Builder) Root() string {
	return b.root
}
