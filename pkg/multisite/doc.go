// Package multisite keeps the site ownership of every node in the site tree
// consistent with its position.
//
// A page belongs to the nearest site above it, or to the default site when it
// has none. The Engine enforces that on every create and re-parent, the
// BootstrapGuard makes sure a default site exists in fixture environments, and
// HomePolicy keeps a site's home page on the site root path.
package multisite
