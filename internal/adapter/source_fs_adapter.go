// Package adapter contains infrastructure adapters for the ctestgen CLI.
package adapter

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

// SourceFSAdapter abstracts filesystem-specific operations that the domain
// layer relies on when scanning C repositories. It intentionally hides direct
// `os` access so the workflow logic can be tested without touching the disk.
type SourceFSAdapter interface {
	// EnumerateSourceFiles returns the production .c files beneath the src
	// subtree of root, in directory-walk order. Test harnesses and generated
	// output are filtered out by name heuristics.
	EnumerateSourceFiles(root m.Path) ([]m.Path, error)

	// ListRepositoryFiles returns every .c and .h file under root, as paths
	// relative to root. Used for the repository inventory in prompts.
	ListRepositoryFiles(root m.Path) (cFiles []m.Path, hFiles []m.Path, err error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path m.Path, perm os.FileMode) error

	// FileExists reports whether path exists and is a regular file.
	FileExists(path m.Path) bool

	// FileInfo returns metadata for a path so the domain can check existence
	// or distinguish files from directories when necessary.
	FileInfo(path m.Path) (os.FileInfo, error)

	// ReadDirNames returns the names of the regular files directly inside
	// dir, in directory order.
	ReadDirNames(dir m.Path) ([]string, error)

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// Directories never descended into during enumeration.
var skippedDirs = map[string]struct{}{
	"build":        {},
	"cmake-build":  {},
	"node_modules": {},
}

// LocalSourceFSAdapter is the concrete SourceFSAdapter backed by the os
// package.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter ready to be wired
// into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// EnumerateSourceFiles walks root and collects production .c files that live
// beneath a src directory component.
func (a *LocalSourceFSAdapter) EnumerateSourceFiles(root m.Path) ([]m.Path, error) {
	var files []m.Path

	err := filepath.WalkDir(string(root), func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries contribute nothing; the run continues.
			return nil
		}

		if entry.IsDir() {
			name := entry.Name()
			if path != string(root) && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}

			if _, skip := skippedDirs[name]; skip {
				return filepath.SkipDir
			}

			return nil
		}

		if !entry.Type().IsRegular() || filepath.Ext(path) != ".c" {
			return nil
		}

		if !underSrcSubtree(string(root), path) {
			return nil
		}

		if IsTestLikeFile(path) {
			return nil
		}

		files = append(files, m.Path(path))

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// underSrcSubtree reports whether path has a "src" component between root and
// the file itself.
func underSrcSubtree(root, path string) bool {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return false
	}

	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "src" {
			return true
		}
	}

	return false
}

// IsTestLikeFile reports whether the file name looks like a test harness or
// previously generated output. The check is intentionally broad so the
// analyzer never treats its own artifacts as production code.
func IsTestLikeFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))

	return strings.HasPrefix(name, "test_") ||
		strings.Contains(name, "test") ||
		strings.Contains(name, "unity")
}

// ListRepositoryFiles collects the .c/.h inventory of the repository.
func (a *LocalSourceFSAdapter) ListRepositoryFiles(root m.Path) ([]m.Path, []m.Path, error) {
	var cFiles, hFiles []m.Path

	err := filepath.WalkDir(string(root), func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if entry.IsDir() {
			if path != string(root) && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}

			return nil
		}

		rel, relErr := filepath.Rel(string(root), path)
		if relErr != nil {
			return nil
		}

		switch filepath.Ext(path) {
		case ".c":
			cFiles = append(cFiles, m.Path(rel))
		case ".h":
			hFiles = append(hFiles, m.Path(rel))
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return cFiles, hFiles, nil
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSourceFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// MkdirAll creates a directory and any missing parents.
func (a *LocalSourceFSAdapter) MkdirAll(path m.Path, perm os.FileMode) error {
	return os.MkdirAll(string(path), perm)
}

// FileExists reports whether path names an existing regular file.
func (a *LocalSourceFSAdapter) FileExists(path m.Path) bool {
	info, err := os.Stat(string(path))

	return err == nil && info.Mode().IsRegular()
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(path m.Path) (os.FileInfo, error) {
	return os.Stat(string(path))
}

// ReadDirNames lists the regular files directly inside dir.
func (a *LocalSourceFSAdapter) ReadDirNames(dir m.Path) ([]string, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		return nil, err
	}

	var names []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		names = append(names, entry.Name())
	}

	return names, nil
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
