package fs

import (
	"os"
	"path/filepath"
	"syscall"
)

type realFS struct {
	cwd string
}

// If "absWorkingDir" is empty, the process working directory is used instead.
func RealFS(absWorkingDir string) FS {
	cwd := absWorkingDir
	if cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		} else {
			cwd = "/"
		}
	}

	// Resolve symlinks in the working directory. Input file paths are converted
	// to absolute paths with symlinks resolved, and the relative file names we
	// generate must be computed against a directory processed the same way.
	if path, err := filepath.EvalSymlinks(cwd); err == nil {
		cwd = path
	}

	return &realFS{cwd: cwd}
}

func (fs *realFS) ReadFile(path string) (string, error) {
	buffer, err := os.ReadFile(path)

	// Unwrap to get the underlying error
	if pathErr, ok := err.(*os.PathError); ok {
		err = pathErr.Unwrap()
	}

	// Windows returns ENOTDIR here even though nothing we've done yet has asked
	// for a directory. This really means ENOENT on Windows.
	if err == syscall.ENOTDIR {
		return "", syscall.ENOENT
	}

	return string(buffer), err
}

func (fs *realFS) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (fs *realFS) Cwd() string {
	return fs.cwd
}
