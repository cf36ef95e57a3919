package fs

// The resolver and the loader only need a narrow view of the file system: read
// a file, check whether a path is a regular file, and know the directory that
// relative paths in output and diagnostics are computed from. Tests use the
// mock implementation so they never depend on the machine they run on.

type FS interface {
	ReadFile(path string) (contents string, err error)

	// Returns true only for regular files. Directories and missing paths both
	// return false.
	IsFile(path string) bool

	// The absolute working directory. This is used to compute the "pretty"
	// relative file names embedded in generated code and as the root for the
	// "node_modules" lookup of style imports.
	Cwd() string
}
