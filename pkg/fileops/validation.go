package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ValidatePathSecurity performs static security validation on a file path.
// It rejects empty paths, traversal sequences, and absolute paths that land
// in reserved system locations. No filesystem access happens here; symlink
// resolution is a separate concern (see ValidateSymlinkSecurity).
func ValidatePathSecurity(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// Check for path traversal in raw input
	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	// Clean and re-check for traversal
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	if filepath.IsAbs(path) {
		if IsReservedDirectory(cleanPath) {
			return fmt.Errorf("path is in a reserved system directory")
		}
	}

	return nil
}

// ValidateFileInDirectory validates that filePath lies within baseDir and
// points at an accessible regular file. Symlinked files are allowed only when
// their final target also stays inside baseDir.
//
// The cheatsheet lookup path runs every requested file through this before
// opening it, so a crafted name cannot read outside the storage root.
func ValidateFileInDirectory(filePath, baseDir string) error {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("cannot resolve file path: %w", err)
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("cannot resolve base directory: %w", err)
	}

	relPath, err := filepath.Rel(absBaseDir, absFilePath)
	if err != nil {
		return fmt.Errorf("cannot determine relative path: %w", err)
	}

	if strings.HasPrefix(relPath, "..") {
		return fmt.Errorf("file is not within base directory")
	}

	// Lstat so a symlink is seen as such instead of through its target
	linkInfo, err := os.Lstat(absFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filepath.Base(filePath))
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	// Symlinks must still resolve inside the base directory. The base is
	// canonicalized as well so platforms with symlinked temp dirs compare
	// like against like.
	if linkInfo.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(absFilePath)
		if err != nil {
			return fmt.Errorf("cannot resolve symlink: %w", err)
		}

		baseCanonical, err := filepath.EvalSymlinks(absBaseDir)
		if err != nil {
			baseCanonical = absBaseDir
		}

		relResolved, err := filepath.Rel(baseCanonical, resolved)
		if err != nil {
			return fmt.Errorf("cannot determine resolved relative path: %w", err)
		}

		if strings.HasPrefix(relResolved, "..") {
			return fmt.Errorf("symlink resolves outside base directory")
		}
	}

	fileInfo, err := os.Stat(absFilePath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file")
	}

	return nil
}

// SanitizeFilename reduces a filename to a safe base name: path components
// are stripped, traversal sequences removed, and reserved names rejected.
// Returns an error when nothing safe remains.
func SanitizeFilename(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	// Remove any path components - use only the base name
	clean := filepath.Base(filename)

	clean = strings.ReplaceAll(clean, "..", "")
	clean = strings.TrimSpace(clean)

	if clean == "" || clean == "." || clean == ".." {
		return "", fmt.Errorf("invalid filename after sanitization: %q", filename)
	}

	// On Unix a backslash is a legal filename character, so only the forward
	// slash needs a second look here
	if strings.ContainsAny(clean, `/`) {
		return "", fmt.Errorf("filename contains path separators: %q", clean)
	}

	return clean, nil
}

// ValidateFileAccess checks that filePath is an existing regular file that is
// readable, and writable as well when requireWrite is set. Access is tested
// by actually opening the file, not by inspecting permission bits.
func ValidateFileAccess(filePath string, requireWrite bool) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filePath)
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("file is not readable: %w", err)
	}
	file.Close()

	if requireWrite {
		file, err := os.OpenFile(filePath, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("file is not writable: %w", err)
		}
		file.Close()
	}

	return nil
}

// ExpandPath expands a leading "~/" to the user's home directory. Any other
// path is returned unchanged.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// IsReservedDirectory reports whether path is a system or otherwise reserved
// directory that must never be used for application storage. Symlinks are
// resolved first so a link into /etc is caught the same as /etc itself.
func IsReservedDirectory(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return true // If we can't resolve it, treat as reserved
	}
	absPath = filepath.Clean(absPath)

	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		absPath = resolvedPath
	}

	// Always treat root as reserved
	if absPath == "/" || absPath == "\\" || absPath == "C:\\" {
		return true
	}

	absPath = filepath.Clean(absPath)
	reservedDirs := getReservedDirectories()

	for _, reserved := range reservedDirs {
		reservedAbs, err := filepath.Abs(reserved)
		if err != nil {
			continue
		}
		resolvedReserved, err := filepath.EvalSymlinks(reservedAbs)
		if err == nil {
			reservedAbs = filepath.Clean(resolvedReserved)
		} else {
			reservedAbs = filepath.Clean(reservedAbs)
		}

		// Exact match
		if strings.EqualFold(absPath, reservedAbs) {
			return true
		}

		// Child directory match, with an exception for user temp dirs
		reservedPrefix := strings.ToLower(reserved) + string(os.PathSeparator)
		pathLower := strings.ToLower(absPath)

		if strings.HasPrefix(pathLower, reservedPrefix) {
			if isUserTempDirectory(absPath) {
				continue
			}
			return true
		}
	}

	return false
}

// getReservedDirectories returns platform-specific reserved directories
func getReservedDirectories() []string {
	var reservedDirs []string

	switch runtime.GOOS {
	case "windows":
		reservedDirs = []string{
			"C:\\Windows",
			"C:\\Program Files",
			"C:\\Program Files (x86)",
			"C:\\System32",
			"C:\\ProgramData\\Microsoft",
		}

	case "darwin": // macOS
		reservedDirs = []string{
			"/System",
			"/usr/bin",
			"/usr/sbin",
			"/bin",
			"/sbin",
			"/etc",
			"/var/log",
			"/var/db",
			"/var/root",
			"/Library/System",
			"/Applications",
			"/private/etc",
		}

	default: // Linux and other Unix
		reservedDirs = []string{
			"/bin",
			"/sbin",
			"/usr/bin",
			"/usr/sbin",
			"/etc",
			"/boot",
			"/dev",
			"/proc",
			"/sys",
			"/var/log",
			"/var/lib",
			"/var/cache",
			"/root",
		}
	}

	// Critical user directories are off-limits as well
	if home, err := os.UserHomeDir(); err == nil {
		systemUserDirs := []string{
			filepath.Join(home, ".ssh"),
			filepath.Join(home, ".gnupg"),
		}
		reservedDirs = append(reservedDirs, systemUserDirs...)
	}

	return reservedDirs
}

// isUserTempDirectory detects legitimate user temp directories
func isUserTempDirectory(path string) bool {
	// macOS: /var/folders/xx/yyyy/T/ are user temp dirs
	if runtime.GOOS == "darwin" {
		if strings.Contains(path, "/var/folders/") {
			return true
		}
	}

	if runtime.GOOS == "linux" {
		if strings.HasPrefix(path, "/tmp/") || path == "/tmp" {
			return true
		}
	}

	if runtime.GOOS == "windows" {
		if strings.Contains(strings.ToLower(path), "\\temp\\") ||
			strings.Contains(strings.ToLower(path), "\\tmp\\") {
			return true
		}
	}

	systemTemp := os.TempDir()
	cleanSystemTemp := filepath.Clean(systemTemp)
	cleanPath := filepath.Clean(path)

	return strings.HasPrefix(cleanPath, cleanSystemTemp)
}

// ValidateDirectoryWritable tests that dirPath is writable by creating and
// removing a probe file, creating the directory first when missing. Call
// after path validation: this one has side effects.
func ValidateDirectoryWritable(dirPath string) error {
	expandedPath := ExpandPath(strings.TrimSpace(dirPath))

	if err := EnsureDirectoryExists(expandedPath); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	testFile := filepath.Join(expandedPath, ".fileops-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("no write permission in directory: %w", err)
	}

	// Cleanup failure leaves a stray probe file but the directory is usable
	_ = os.Remove(testFile)

	return nil
}

// ValidateStoragePath validates a directory path intended for application
// data storage: non-empty, no traversal, absolute or home-relative, not a
// reserved directory (even through symlinks), and with an accessible parent.
func ValidateStoragePath(path string) error {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return fmt.Errorf("storage directory cannot be empty")
	}

	if err := ValidatePathSecurity(trimmedPath); err != nil {
		return err
	}

	expandedPath := ExpandPath(trimmedPath)

	if !filepath.IsAbs(expandedPath) && !strings.HasPrefix(trimmedPath, "~/") {
		return fmt.Errorf("path must be absolute or relative to home directory (~)")
	}

	// A symlinked storage dir must not resolve into a reserved directory
	if resolved, err := filepath.EvalSymlinks(expandedPath); err == nil {
		if IsReservedDirectory(resolved) {
			return fmt.Errorf("path resolves to reserved directory")
		}
	}

	if IsReservedDirectory(expandedPath) {
		return fmt.Errorf("cannot use system or reserved directories")
	}

	parentDir := filepath.Dir(expandedPath)
	if parentDir != "." {
		if _, err := os.Stat(parentDir); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("parent directory does not exist: %s", parentDir)
			}
			return fmt.Errorf("cannot access parent directory: %w", err)
		}
	}

	return nil
}

// SanitizeIdentifier reduces a string to a filesystem-safe identifier:
// alphanumerics, dots, hyphens and underscores survive; spaces become
// underscores; runs of separators collapse. Repository IDs and clone
// directory names are derived through this.
func SanitizeIdentifier(identifier string, maxLength int) (string, error) {
	if strings.TrimSpace(identifier) == "" {
		return "", fmt.Errorf("identifier cannot be empty")
	}

	var cleanName strings.Builder

	for _, r := range identifier {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == ' ' || r == '-' || r == '_' || r == '.' {
			cleanName.WriteRune(r)
		}
	}

	result := strings.TrimSpace(cleanName.String())

	result = strings.ReplaceAll(result, "  ", " ")
	result = strings.ReplaceAll(result, " ", "_")
	result = strings.ReplaceAll(result, "--", "_")
	result = strings.ReplaceAll(result, "__", "_")

	if maxLength > 0 && len(result) > maxLength {
		result = result[:maxLength]
	}

	result = strings.Trim(result, "_-.")

	if result == "" {
		return "", fmt.Errorf("identifier becomes empty after sanitization")
	}

	return result, nil
}

// ValidateFileSizeLimit checks that the file at filePath does not exceed
// maxSize bytes. Run before reading user-supplied files into memory.
func ValidateFileSizeLimit(filePath string, maxSize int64) error {
	if maxSize <= 0 {
		return fmt.Errorf("invalid size limit: %d", maxSize)
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filepath.Base(filePath))
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if fileInfo.Size() > maxSize {
		return fmt.Errorf("file size %d bytes exceeds limit %d bytes", fileInfo.Size(), maxSize)
	}

	return nil
}
