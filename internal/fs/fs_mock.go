package fs

// This is a mock implementation of the "fs" module for use with tests. It does
// not actually read from the file system. Instead, it reads from a pre-specified
// map of file paths to files.

import (
	"path"
	"syscall"
)

type mockFS struct {
	files map[string]string
	dirs  map[string]bool
	cwd   string
}

func MockFS(input map[string]string, absWorkingDir string) FS {
	files := make(map[string]string, len(input))
	dirs := make(map[string]bool)

	for k, v := range input {
		files[k] = v

		// Every ancestor of a file is a directory
		for dir := path.Dir(k); !dirs[dir]; dir = path.Dir(dir) {
			dirs[dir] = true
			if dir == "/" || dir == "." {
				break
			}
		}
	}

	return &mockFS{files: files, dirs: dirs, cwd: absWorkingDir}
}

func (fs *mockFS) ReadFile(p string) (string, error) {
	if contents, ok := fs.files[path.Clean(p)]; ok {
		return contents, nil
	}
	if fs.dirs[path.Clean(p)] {
		return "", syscall.EISDIR
	}
	return "", syscall.ENOENT
}

func (fs *mockFS) IsFile(p string) bool {
	_, ok := fs.files[path.Clean(p)]
	return ok
}

func (fs *mockFS) Cwd() string {
	return fs.cwd
}
