package alias

import (
	"path/filepath"

	"github.com/pipe01/esbuild-plugin-vue3/internal/fs"
)

// Where the rules of one build come from. Exactly one source is used:
// explicit mappings if there are any, the tsconfig file otherwise, or nothing
// at all when Disabled is set.
type Source struct {
	Disabled bool

	// A non-nil slice replaces the tsconfig file, even if it is empty
	Mappings []Mapping

	// Relative to the working directory. Defaults to "tsconfig.json".
	Tsconfig string
}

// A nil rule set with no error means aliasing is off.
func Load(fs fs.FS, source Source) (*RuleSet, error) {
	if source.Disabled {
		return nil, nil
	}

	name := "path aliases"
	mappings := source.Mappings
	if mappings == nil {
		tsconfig := source.Tsconfig
		if tsconfig == "" {
			tsconfig = "tsconfig.json"
		}
		if !filepath.IsAbs(tsconfig) {
			tsconfig = filepath.Join(fs.Cwd(), tsconfig)
		}
		name = tsconfig

		var err error
		if mappings, err = LoadTSConfig(fs, tsconfig); err != nil {
			return nil, err
		}
	}

	rules, err := Compile(mappings)
	if err != nil {
		return nil, &ConfigParseError{Path: name, Err: err}
	}
	return rules, nil
}
