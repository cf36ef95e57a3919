package scopeid

// Each single-file component gets a short scope id that namespaces its scoped
// CSS selectors and is attached to the component at run-time. Ids are hex so
// they are safe inside CSS attribute selectors and as JavaScript identifier
// suffixes.

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/pipe01/esbuild-plugin-vue3/internal/helpers"
)

const Prefix = "data-v-"

// The number of hex characters in the id itself, after the prefix.
const hexLength = 8

type Strategy uint8

const (
	// Derived from the file's path relative to the working directory. The same
	// file always gets the same id regardless of the order files are loaded in.
	StrategyHash Strategy = iota

	// Drawn from a seeded pseudo-random stream shared by the whole build.
	StrategyRandom
)

// A Generator belongs to exactly one plugin instance. Nothing here is global,
// so concurrent builds in one process cannot observe each other's state.
type Generator struct {
	strategy Strategy
	cwd      string
	random   *Random

	// Ids are assigned once per physical file. Loading the same file again,
	// whether later in the build or in an incremental rebuild, yields the id
	// that was assigned the first time.
	mutex    sync.Mutex
	assigned map[string]string
}

func NewGenerator(strategy Strategy, seed string, cwd string) *Generator {
	g := &Generator{
		strategy: strategy,
		cwd:      cwd,
		assigned: make(map[string]string),
	}
	if strategy == StrategyRandom {
		g.random = NewRandom([]byte(seed))
	}
	return g
}

func (g *Generator) ScopeID(absPath string) string {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if id, ok := g.assigned[absPath]; ok {
		return id
	}

	var id string
	switch g.strategy {
	case StrategyRandom:
		id = Prefix + hex.EncodeToString(g.random.Next(hexLength/2))
	default:
		id = HashID(helpers.PrettyPath(g.cwd, absPath))
	}

	g.assigned[absPath] = id
	return id
}

// The content-hash id for a normalized relative path.
func HashID(relPath string) string {
	sum := sha256.Sum256([]byte(relPath))
	return Prefix + hex.EncodeToString(sum[:])[:hexLength]
}
