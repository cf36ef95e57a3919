package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseShorthandAttrs(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`<a #default="#default">`, `<a #default>`},
		{`<a v-else="v-else">`, `<a v-else>`},
		{`<a #item="{ x }">`, `<a #item="{ x }">`},
		{`<a v-if="ok">`, `<a v-if="ok">`},
		{`<a :a="b" href="href">`, `<a :a="b" href="href">`},
		{`<a v-on:click.stop="v-on:click.stop">`, `<a v-on:click.stop>`},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.expected, collapseShorthandAttrs(test.input))
		})
	}
}
