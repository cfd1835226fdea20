// Package hash provides keyed digests for secrets kept at rest.
//
// One-time codes are never stored in plaintext; the repository layer stores
// and matches their digests instead.
package hash
