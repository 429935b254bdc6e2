package scanner

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/class-inspect/pkg/model"
)

// Entry is one class file discovered by the walker. Entries for plain
// files and archive members read lazily, so discovery stays cheap even
// on large trees.
type Entry struct {
	// Path identifies the class file. Archive members use the form
	// "lib/app.jar!com/example/Foo.class".
	Path string

	file    string
	zipFile *zip.File
}

// Read returns the raw class file bytes.
func (e Entry) Read() ([]byte, error) {
	if e.zipFile != nil {
		rc, err := e.zipFile.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive member: %w", err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return os.ReadFile(e.file)
}

// FileSet is the result of discovery: the class file entries plus the
// archives that must stay open while entries are read.
type FileSet struct {
	Root    string
	Entries []Entry

	// Failures lists paths that could not be opened during discovery,
	// such as unreadable directories or corrupt archives.
	Failures []model.ScanFailure

	archives []io.Closer
}

// Close releases any archives opened during discovery. Entries must
// not be read afterwards.
func (s *FileSet) Close() error {
	var first error
	for _, a := range s.archives {
		if err := a.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.archives = nil
	return first
}

// Discover walks root for class files. Root may be a directory, a
// single .class file, or an archive. Unreadable paths are recorded as
// failures rather than aborting the walk.
func Discover(root string, scanArchives bool) (*FileSet, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root: %w", err)
	}

	set := &FileSet{Root: root}

	if !info.IsDir() {
		switch {
		case isClassFile(root):
			set.Entries = append(set.Entries, Entry{Path: root, file: root})
		case isArchive(root):
			set.addArchive(root)
		default:
			return nil, fmt.Errorf("%s is not a class file, archive, or directory", root)
		}
		return set, nil
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			set.Failures = append(set.Failures, model.ScanFailure{Path: path, Error: err.Error()})
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case isClassFile(path):
			set.Entries = append(set.Entries, Entry{Path: path, file: path})
		case scanArchives && isArchive(path):
			set.addArchive(path)
		}
		return nil
	})
	if walkErr != nil {
		set.Close()
		return nil, fmt.Errorf("failed to walk %s: %w", root, walkErr)
	}

	return set, nil
}

// addArchive opens an archive and registers its class file members. An
// unreadable archive becomes a failure, not an error.
func (s *FileSet) addArchive(path string) {
	r, err := zip.OpenReader(path)
	if err != nil {
		s.Failures = append(s.Failures, model.ScanFailure{Path: path, Error: err.Error()})
		return
	}
	s.archives = append(s.archives, r)

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		s.Entries = append(s.Entries, Entry{
			Path:    path + "!" + f.Name,
			zipFile: f,
		})
	}
}

func isClassFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".class")
}

func isArchive(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jar", ".war":
		return true
	}
	return false
}
