// Package catalog lists the commands installed in the well-known binary
// directories and tags the famous ones by category. The category table is
// fixed; only the installed subset of each category is ever shown.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"unixman/internal/logging"
)

// Category names a group of well-known commands. Commands is a membership
// set, not a display order; rendering follows the sorted installed list.
type Category struct {
	Name     string
	Commands []string
}

// grep is deliberately in two categories. It is the one tool people reach
// for in both contexts.
var categoryTable = []Category{
	{
		Name:     "File Operations",
		Commands: []string{"ls", "cp", "mv", "rm", "mkdir", "touch", "chmod", "chown", "find", "grep"},
	},
	{
		Name:     "Text Processing",
		Commands: []string{"cat", "less", "more", "head", "tail", "grep", "sed", "awk", "sort", "uniq", "wc"},
	},
	{
		Name:     "System Information",
		Commands: []string{"ps", "top", "htop", "df", "du", "free", "uname", "uptime", "who", "whoami"},
	},
	{
		Name:     "Networking",
		Commands: []string{"ping", "netstat", "ifconfig", "ip", "ssh", "scp", "curl", "wget"},
	},
}

// Categories returns the fixed category table. The result is a copy;
// callers can reorder or filter it freely.
func Categories() []Category {
	out := make([]Category, len(categoryTable))
	for i, cat := range categoryTable {
		out[i] = Category{
			Name:     cat.Name,
			Commands: append([]string(nil), cat.Commands...),
		}
	}
	return out
}

// DefaultDirs are the directories scanned when no explicit list is
// configured.
func DefaultDirs() []string {
	return []string{"/bin", "/usr/bin", "/usr/local/bin"}
}

// Lister scans binary directories for executable commands.
type Lister struct {
	dirs []string
	log  *logging.AppLogger
}

// NewLister builds a Lister over dirs. An empty dirs selects DefaultDirs
// and a nil logger selects the process default.
func NewLister(dirs []string, logger *logging.AppLogger) *Lister {
	if len(dirs) == 0 {
		dirs = DefaultDirs()
	}
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Lister{dirs: dirs, log: logger}
}

// Installed returns the sorted, deduplicated names of executable regular
// files across the lister's directories. Unreadable directories are logged
// and skipped; a partial listing beats no listing.
func (l *Lister) Installed() []string {
	seen := make(map[string]bool)

	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			l.log.Warn("Cannot list command directory", "dir", dir, "error", err)
			continue
		}
		l.log.Debug("Scanning directory", "dir", dir, "entries", len(entries))

		for _, entry := range entries {
			// Stat, not Lstat: /bin is a symlink farm on most systems and
			// a link to an executable is still a command
			info, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			if info.Mode().IsRegular() && info.Mode()&0o111 != 0 {
				seen[entry.Name()] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	l.log.Info("Found unique commands", "count", len(names))
	return names
}

// Report scans and renders in one step.
func (l *Lister) Report() string {
	return Render(l.Installed())
}

// Render formats an installed-command list in the shape clients expect:
// a header, one block per category that has at least one installed member,
// the total count, and a pointer at the documentation tool. Category
// members appear in sorted order because installed is sorted.
func Render(installed []string) string {
	var b strings.Builder
	b.WriteString("Common Unix commands available on this system:\n\n")

	have := make(map[string]bool, len(installed))
	for _, name := range installed {
		have[name] = true
	}

	for _, cat := range categoryTable {
		members := make(map[string]bool, len(cat.Commands))
		for _, name := range cat.Commands {
			members[name] = true
		}

		var found []string
		for _, name := range installed {
			if members[name] {
				found = append(found, name)
			}
		}
		if len(found) == 0 {
			continue
		}

		b.WriteString(cat.Name)
		b.WriteString(":\n")
		b.WriteString(strings.Join(found, ", "))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Total commands found: %d\n", len(installed))
	b.WriteString("Use get-command-documentation to learn more about any command.")

	return b.String()
}
