// Package fileops provides secure file operations with defense-in-depth validation.
//
// The cheatsheet library is the main consumer: it scans user-controlled storage
// directories, imports files picked in a terminal browser, and syncs clones of
// remote repositories. Every one of those paths is attacker-influenceable, so
// the package combines atomic writes with layered checks against path
// traversal and symlink escapes.
//
// # Validation Order
//
// For a file about to be read or imported, validate in this order:
//
//  1. ValidatePathSecurity - rejects traversal sequences and reserved targets
//  2. ValidateFileSizeLimit - caps reads before any content is loaded
//  3. ValidateFileAccess - confirms the file is a readable regular file
//  4. ValidateFileInDirectory - confirms containment in the storage root
//  5. IsSymlink + ValidateSymlinkSecurity - pins down where links resolve
//
// # Atomic Operations
//
// AtomicCopy writes through a temp file and renames, so the destination either
// appears complete or not at all. Imports into the cheatsheet store go through
// it exclusively.
//
// # Scanning
//
// SecureDirectoryScanner walks a directory inside an os.Root boundary with
// loop detection, so a hostile storage dir cannot lead the walk outside
// itself. ScanWithFilter is the one-shot convenience built on top of it.
package fileops
