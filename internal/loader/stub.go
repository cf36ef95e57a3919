package loader

import (
	"strings"

	"github.com/pipe01/esbuild-plugin-vue3/internal/helpers"
	"github.com/pipe01/esbuild-plugin-vue3/internal/vpath"
	"github.com/pipe01/esbuild-plugin-vue3/pkg/sfc"
)

type StubInput struct {
	Descriptor *sfc.Descriptor

	// The specifier sub-modules are imported through, for example "./Foo.vue".
	// The stub is loaded with its resolve directory set to the directory of the
	// file, so a relative base keeps absolute paths out of the generated code.
	Base string

	Filename   string
	ScopeID    string
	RenderFunc string
}

// Generates the top-level module for a single-file component. The output only
// depends on the input, so the same file and options always produce the same
// bytes.
func GenerateStub(input StubInput) string {
	d := input.Descriptor
	sb := strings.Builder{}

	if d.HasScript() {
		sb.WriteString("import script from ")
		sb.WriteString(helpers.QuoteForJS(input.Base + vpath.Key{Kind: vpath.KindScript}.Suffix()))
		sb.WriteString(";\n")
	} else {
		sb.WriteString("const script = {};\n")
	}

	// Styles are imported only for their side effects
	for i := range d.Styles {
		sb.WriteString("import ")
		sb.WriteString(helpers.QuoteForJS(input.Base + vpath.Key{Kind: vpath.KindStyle, Index: i}.Suffix()))
		sb.WriteString(";\n")
	}

	if d.Template != nil {
		render := input.RenderFunc
		sb.WriteString("import { " + render + " } from ")
		sb.WriteString(helpers.QuoteForJS(input.Base + vpath.Key{Kind: vpath.KindTemplate}.Suffix()))
		sb.WriteString(";\n")
		sb.WriteString("script." + render + " = " + render + ";\n")
	}

	sb.WriteString("script.__file = " + helpers.QuoteForJS(input.Filename) + ";\n")
	if d.HasScopedStyle() {
		sb.WriteString("script.__scopeId = " + helpers.QuoteForJS(input.ScopeID) + ";\n")
	}
	sb.WriteString("export default script;\n")

	return sb.String()
}
