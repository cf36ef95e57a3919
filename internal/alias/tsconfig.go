package alias

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"syscall"

	"github.com/pipe01/esbuild-plugin-vue3/internal/fs"
	"github.com/tailscale/hujson"
)

// A malformed alias source aborts the build instead of silently disabling
// aliasing.
type ConfigParseError struct {
	Path string
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("Failed to parse path aliases from %q: %v", e.Path, e.Err)
}

func (e *ConfigParseError) Unwrap() error {
	return e.Err
}

type tsconfigJSON struct {
	CompilerOptions struct {
		BaseURL string       `json:"baseUrl"`
		Paths   orderedPaths `json:"paths"`
	} `json:"compilerOptions"`
}

type pathEntry struct {
	pattern string
	targets []string
}

// The order of entries in "paths" is significant because every matching rule
// is applied in sequence, and Go maps don't remember insertion order.
type orderedPaths []pathEntry

func (paths *orderedPaths) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	if token, err := decoder.Token(); err != nil {
		return err
	} else if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return errors.New("\"paths\" must be an object")
	}

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		pattern, _ := token.(string)

		var targets []string
		if err := decoder.Decode(&targets); err != nil {
			return fmt.Errorf("Invalid value for %q in \"paths\": %w", pattern, err)
		}
		*paths = append(*paths, pathEntry{pattern: pattern, targets: targets})
	}

	_, err := decoder.Token()
	return err
}

// Reads "compilerOptions.paths" from a tsconfig file. A missing file is not an
// error and yields no mappings. Only the first fallback of each entry is used
// and targets are made absolute relative to "baseUrl" (or the directory of the
// tsconfig file when "baseUrl" is absent).
func LoadTSConfig(fs fs.FS, path string) ([]Mapping, error) {
	contents, err := fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, syscall.ENOENT) {
			return nil, nil
		}
		return nil, &ConfigParseError{Path: path, Err: err}
	}
	return ParseTSConfig([]byte(contents), filepath.Dir(path), path)
}

// Like LoadTSConfig but for tsconfig contents that didn't come from a file.
// "dir" is the directory relative targets are resolved against and "name" is
// only used in error messages.
func ParseTSConfig(contents []byte, dir string, name string) ([]Mapping, error) {
	// The "tsconfig.json" format allows comments and trailing commas
	standard, err := hujson.Standardize(contents)
	if err != nil {
		return nil, &ConfigParseError{Path: name, Err: err}
	}

	var tsconfig tsconfigJSON
	if err := json.Unmarshal(standard, &tsconfig); err != nil {
		return nil, &ConfigParseError{Path: name, Err: err}
	}

	baseDir := tsconfig.CompilerOptions.BaseURL
	if !filepath.IsAbs(baseDir) {
		baseDir = filepath.Join(dir, baseDir)
	}
	var mappings []Mapping
	for _, entry := range tsconfig.CompilerOptions.Paths {
		if len(entry.targets) == 0 {
			continue
		}
		target := entry.targets[0]
		if !filepath.IsAbs(target) {
			target = filepath.Join(baseDir, target)
		}
		mappings = append(mappings, Mapping{Pattern: entry.pattern, Target: target})
	}
	return mappings, nil
}
