package helpers_test

import (
	"encoding/json"
	"testing"

	"github.com/pipe01/esbuild-plugin-vue3/internal/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteForJS(t *testing.T) {
	check := func(input string, expected string) {
		t.Helper()
		quoted := helpers.QuoteForJS(input)
		assert.Equal(t, expected, quoted)

		// The output must round-trip through a JSON decoder
		var decoded string
		require.NoError(t, json.Unmarshal([]byte(quoted), &decoded))
		assert.Equal(t, input, decoded)
	}

	check("", `""`)
	check("Foo.vue", `"Foo.vue"`)
	check(`C:\src\Foo.vue`, `"C:\\src\\Foo.vue"`)
	check("a\"b\nc\td", `"a\"b\nc\td"`)
	check("\u2028", `"\u2028"`)
	check("h\u00e9llo", "\"h\u00e9llo\"")
	check("\x01", `"\u0001"`)
}

func TestPrettyPath(t *testing.T) {
	assert.Equal(t, "src/Foo.vue", helpers.PrettyPath("/project", "/project/src/Foo.vue"))
	assert.Equal(t, "/elsewhere/Foo.vue", helpers.PrettyPath("/project", "/elsewhere/Foo.vue"))
	assert.Equal(t, "/project/Foo.vue", helpers.PrettyPath("", "/project/Foo.vue"))
}

func TestIsRelativeSpecifier(t *testing.T) {
	assert.True(t, helpers.IsRelativeSpecifier("./Foo.vue"))
	assert.True(t, helpers.IsRelativeSpecifier("../Foo.vue"))
	assert.True(t, helpers.IsRelativeSpecifier(".."))
	assert.False(t, helpers.IsRelativeSpecifier("vue"))
	assert.False(t, helpers.IsRelativeSpecifier("/abs/Foo.vue"))
	assert.False(t, helpers.IsRelativeSpecifier(".hidden"))
}

func TestTypoDetector(t *testing.T) {
	detector := helpers.MakeTypoDetector([]string{"script", "template", "style"})

	corrected, ok := detector.MaybeCorrectTypo("styl")
	assert.True(t, ok)
	assert.Equal(t, "style", corrected)

	corrected, ok = detector.MaybeCorrectTypo("tempalte")
	assert.True(t, ok)
	assert.Equal(t, "template", corrected)

	corrected, ok = detector.MaybeCorrectTypo("Style")
	assert.True(t, ok)
	assert.Equal(t, "style", corrected)

	corrected, ok = detector.MaybeCorrectTypo("scripts")
	assert.True(t, ok)
	assert.Equal(t, "script", corrected)

	_, ok = detector.MaybeCorrectTypo("banana")
	assert.False(t, ok)
}
