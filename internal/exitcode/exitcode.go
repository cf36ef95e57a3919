package exitcode

import (
	"errors"
	"os"

	"github.com/pipe01/esbuild-plugin-vue3/internal/alias"
	"github.com/pipe01/esbuild-plugin-vue3/internal/htmlinject"
	"github.com/pipe01/esbuild-plugin-vue3/pkg/sfc"
)

// Exit codes of the command-line tool
const (
	Success = 0
	Failure = 1

	// The path alias configuration or the config file could not be parsed
	Config = 2

	// A block needs a compiler or preprocessor that isn't available
	MissingDependency = 3

	// The HTML document could not be generated from the build, or the
	// options for generating it are invalid
	HTML = 4
)

// Coder is an interface to control what value Get returns.
type Coder interface {
	error
	ExitCode() int
}

// Get gets the exit code associated with an error. Cases:
//
//	nil => Success
//	errors implementing Coder => value returned by ExitCode
//	*alias.ConfigParseError => Config
//	*sfc.MissingDependencyError => MissingDependency
//	missing metafile or output path => HTML
//	all other errors => Failure
func Get(err error) int {
	if err == nil {
		return Success
	}

	if coder := Coder(nil); errors.As(err, &coder) {
		return coder.ExitCode()
	}

	var parseErr *alias.ConfigParseError
	if errors.As(err, &parseErr) {
		return Config
	}

	var missing *sfc.MissingDependencyError
	if errors.As(err, &missing) {
		return MissingDependency
	}

	if errors.Is(err, htmlinject.ErrManifestMissing) || errors.Is(err, htmlinject.ErrOutputPathUnresolvable) {
		return HTML
	}

	return Failure
}

// Set wraps an error in a Coder, setting its error code.
func Set(err error, code int) error {
	if err == nil {
		return nil
	}
	return coder{err, code}
}

var _ Coder = coder{}

type coder struct {
	error
	int
}

func (co coder) ExitCode() int {
	return co.int
}

func (co coder) Unwrap() error {
	return co.error
}

// Exit is a convenience function that calls os.Exit
// with the exit code associated with err.
func Exit(err error) {
	os.Exit(Get(err))
}
