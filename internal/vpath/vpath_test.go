package vpath_test

import (
	"testing"

	"github.com/pipe01/esbuild-plugin-vue3/internal/vpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecifier(t *testing.T) {
	tests := []struct {
		specifier string
		path      string
		kind      vpath.Kind
		index     int
		hasQuery  bool
	}{
		{"./Foo.vue", "./Foo.vue", vpath.KindNone, 0, false},
		{"./Foo.vue?type=script", "./Foo.vue", vpath.KindScript, 0, true},
		{"./Foo.vue?type=template", "./Foo.vue", vpath.KindTemplate, 0, true},
		{"./Foo.vue?type=style&index=2", "./Foo.vue", vpath.KindStyle, 2, true},
		{"./Foo.vue?index=1&type=style", "./Foo.vue", vpath.KindStyle, 1, true},
		{"./data.json?raw", "./data.json?raw", vpath.KindNone, 0, false},
		{"./worker.js?type=module", "./worker.js?type=module", vpath.KindNone, 0, false},
		{"./plain.js?type=script", "./plain.js?type=script", vpath.KindNone, 0, false},
		{"./plain.js?x=%zz", "./plain.js?x=%zz", vpath.KindNone, 0, false},
		{"./Foo.vue?x=%zz", "./Foo.vue?x=%zz", vpath.KindNone, 0, false},
		{"./Foo.sfc?type=script", "./Foo.sfc?type=script", vpath.KindNone, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.specifier, func(t *testing.T) {
			path, kind, index, hasQuery, err := vpath.ParseSpecifier(tt.specifier, ".vue")
			require.NoError(t, err)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.index, index)
			assert.Equal(t, tt.hasQuery, hasQuery)
		})
	}
}

func TestParseSpecifierErrors(t *testing.T) {
	for _, specifier := range []string{
		"./Foo.vue?type=style",
		"./Foo.vue?type=style&index=x",
		"./Foo.vue?type=style&index=-1",
		"./Foo.vue?type=banana",
	} {
		_, _, _, _, err := vpath.ParseSpecifier(specifier, ".vue")
		assert.Error(t, err, specifier)
	}
}

func TestKeySuffixRoundTrip(t *testing.T) {
	for _, key := range []vpath.Key{
		{Path: "/src/Foo.vue", Kind: vpath.KindScript},
		{Path: "/src/Foo.vue", Kind: vpath.KindTemplate},
		{Path: "/src/Foo.vue", Kind: vpath.KindStyle, Index: 3},
	} {
		loaded, err := vpath.KeyForLoad(key.Path, key.Kind.Namespace(), key.Suffix())
		require.NoError(t, err)
		assert.Equal(t, key, loaded)
	}

	stub, err := vpath.KeyForLoad("/src/Foo.vue", vpath.NamespaceStub, "")
	require.NoError(t, err)
	assert.Equal(t, vpath.Key{Path: "/src/Foo.vue", Kind: vpath.KindStub}, stub)
	assert.Equal(t, "", stub.Suffix())

	_, err = vpath.KeyForLoad("/src/Foo.vue", "file", "")
	assert.Error(t, err)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "sfc-style:/a.vue#1", vpath.Key{Path: "/a.vue", Kind: vpath.KindStyle, Index: 1}.String())
	assert.Equal(t, "sfc-script:/a.vue", vpath.Key{Path: "/a.vue", Kind: vpath.KindScript}.String())
}

func TestParseSpecifierTypo(t *testing.T) {
	_, _, _, _, err := vpath.ParseSpecifier("./Foo.vue?type=templte", ".vue")
	assert.ErrorContains(t, err, `did you mean "template"?`)

	_, _, _, _, err = vpath.ParseSpecifier("./Foo.vue?type=banana", ".vue")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}
