// Package repository manages remote cheatsheet collections.
//
// A collection is a git repository (currently GitHub only) cloned beneath
// the cheatsheet storage directory so the library scanner picks up its
// files. The package covers the full lifecycle: URL parsing and
// validation, clone-path derivation, public-first cloning with a keyring
// stored Personal Access Token as fallback for private repositories, and
// fast-forward syncing that never overwrites local edits.
package repository
