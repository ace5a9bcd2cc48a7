// Package fileutils provides the file operations shared by the CLI and the
// persistence backends.
package fileutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileExists checks if a file exists and is not a directory
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirectoryExists checks if a directory exists
func DirectoryExists(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDirectoryExists creates a directory if it doesn't exist
func EnsureDirectoryExists(dirPath string) error {
	if dirPath == "" || DirectoryExists(dirPath) {
		return nil
	}
	if err := os.MkdirAll(dirPath, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// ListFilesWithExtension returns the files under dirPath whose extension
// matches, case-insensitively, in lexical order.
func ListFilesWithExtension(dirPath, extension string) ([]string, error) {
	if !DirectoryExists(dirPath) {
		return nil, fmt.Errorf("directory does not exist: %s", dirPath)
	}

	var files []string
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(path), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// ExpandInputs resolves command-line inputs into the queue of files for a
// run. Directories contribute their files with extension; gs:// URIs pass
// through unchanged; repeated entries are queued once.
func ExpandInputs(inputs []string, extension string) ([]string, error) {
	seen := make(map[string]bool)
	var queue []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			queue = append(queue, p)
		}
	}

	for _, in := range inputs {
		switch {
		case strings.HasPrefix(in, "gs://"):
			add(in)
		case DirectoryExists(in):
			files, err := ListFilesWithExtension(in, extension)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		case FileExists(in):
			add(in)
		default:
			return nil, fmt.Errorf("file does not exist: %s", in)
		}
	}
	return queue, nil
}
