package library

import (
	"path/filepath"
	"slices"
	"strings"

	"unixman/pkg/fileops"
)

// markdownExtensions contains supported markdown file extensions
var markdownExtensions = []string{
	".md", ".mdown", ".mkdn", ".mkd", ".markdown",
}

// maxScanDepth bounds recursion below the storage directory. Synced
// repositories nest sheets a few levels deep at most.
const maxScanDepth = 10

// scanSheetFiles recursively scans the storage directory for markdown
// files using the secure directory scanner, so symlink escapes and scan
// loops are handled before any file is read.
func scanSheetFiles(storageDir string) ([]fileops.FileInfo, error) {
	opts := &fileops.DirectoryScanOptions{
		SkipUnreadableDirs: true,
		MaxDepth:           maxScanDepth,
		IncludeHidden:      false,
		SkipPatterns:       []string{".git", "node_modules", "vendor"},
		FileFilter:         isMarkdownFile,
	}

	scanner, err := fileops.NewDirectoryScanner(storageDir, opts)
	if err != nil {
		return nil, err
	}
	defer scanner.Close()

	files, err := scanner.ScanDirectory()
	if err != nil {
		return nil, err
	}

	// Directories show up in the results too; sheets are files only
	var result []fileops.FileInfo
	for _, file := range files {
		if !file.IsDir {
			result = append(result, file)
		}
	}

	return result, nil
}

// isMarkdownFile checks if a filename has a markdown extension.
// This function is used as a file filter for the directory scanner.
func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return slices.Contains(markdownExtensions, ext)
}
