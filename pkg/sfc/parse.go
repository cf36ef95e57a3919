package sfc

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// The built-in Parser. It only splits the file into its top-level blocks and
// does not look inside them.
var DefaultParser Parser = ParserFunc(Parse)

type openBlock struct {
	name         string
	attrs        map[string]string
	contentStart int

	// Templates may contain nested "<template>" elements
	depth int
}

func Parse(source string, filename string) (*Descriptor, error) {
	descriptor := &Descriptor{Filename: filename, Source: source}
	tokenizer := html.NewTokenizer(strings.NewReader(source))

	// The tokenizer doesn't report positions, so track the byte offset by
	// summing the raw length of every token
	offset := 0
	var open *openBlock

	for {
		tokenType := tokenizer.Next()
		start := offset
		offset += len(tokenizer.Raw())

		switch tokenType {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return nil, fmt.Errorf("%s: %w", filename, err)
			}
			if open != nil {
				return nil, fmt.Errorf("%s: Element <%s> is missing end tag", filename, open.name)
			}
			descriptor.Slotted = hasSlottedStyle(descriptor.Styles)
			return descriptor, nil

		case html.StartTagToken:
			name, hasAttr := tokenizer.TagName()
			if open == nil {
				attrs := readAttrs(tokenizer, hasAttr)
				if string(name) == "template" && !isHTMLLang(attrs["lang"]) {
					// Other template languages aren't markup, so the content is
					// raw text up to the closing tag
					end, err := addRawBlock(descriptor, source, attrs, offset)
					if err != nil {
						return nil, fmt.Errorf("%s: %w", filename, err)
					}
					offset = end
					tokenizer = html.NewTokenizer(strings.NewReader(source[end:]))
					continue
				}
				open = &openBlock{
					name:         string(name),
					attrs:        attrs,
					contentStart: offset,
				}
			} else if string(name) == open.name {
				open.depth++
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if open == nil || string(name) != open.name {
				continue
			}
			if open.depth > 0 {
				open.depth--
				continue
			}
			if err := addBlock(descriptor, source, open.name, open.attrs, open.contentStart, source[open.contentStart:start]); err != nil {
				return nil, fmt.Errorf("%s: %w", filename, err)
			}
			open = nil

		case html.SelfClosingTagToken:
			// Something like "<template />" at the top level is an empty block
			if open == nil {
				name, hasAttr := tokenizer.TagName()
				if err := addBlock(descriptor, source, string(name), readAttrs(tokenizer, hasAttr), offset, ""); err != nil {
					return nil, fmt.Errorf("%s: %w", filename, err)
				}
			}
		}
	}
}

func isHTMLLang(lang string) bool {
	return lang == "" || lang == "html"
}

// Adds a template whose content starts at "contentStart" and ends at the next
// "</template>". Returns the offset just past that closing tag.
func addRawBlock(descriptor *Descriptor, source string, attrs map[string]string, contentStart int) (int, error) {
	length := strings.Index(source[contentStart:], "</template")
	if length == -1 {
		return 0, fmt.Errorf("Element <template> is missing end tag")
	}
	contentEnd := contentStart + length
	if err := addBlock(descriptor, source, "template", attrs, contentStart, source[contentStart:contentEnd]); err != nil {
		return 0, err
	}
	if gt := strings.IndexByte(source[contentEnd:], '>'); gt != -1 {
		return contentEnd + gt + 1, nil
	}
	return len(source), nil
}

func readAttrs(tokenizer *html.Tokenizer, hasAttr bool) map[string]string {
	attrs := make(map[string]string)
	for hasAttr {
		var key, value []byte
		key, value, hasAttr = tokenizer.TagAttr()
		attrs[string(key)] = string(value)
	}
	return attrs
}

func addBlock(descriptor *Descriptor, source string, name string, attrs map[string]string, contentStart int, content string) error {
	block := Block{
		Content:    content,
		Lang:       attrs["lang"],
		Attrs:      attrs,
		LineOffset: strings.Count(source[:contentStart], "\n"),
	}

	switch name {
	case "template":
		if descriptor.Template != nil {
			return fmt.Errorf("A single file component can contain only one <template> element")
		}
		descriptor.Template = &block

	case "script":
		_, setup := attrs["setup"]
		script := &ScriptBlock{Block: block, Setup: setup}
		if setup {
			if descriptor.ScriptSetup != nil {
				return fmt.Errorf("A single file component can contain only one <script setup> element")
			}
			descriptor.ScriptSetup = script
		} else {
			if descriptor.Script != nil {
				return fmt.Errorf("A single file component can contain only one <script> element")
			}
			descriptor.Script = script
		}

	case "style":
		_, scoped := attrs["scoped"]
		style := StyleBlock{Block: block, Scoped: scoped}
		if module, ok := attrs["module"]; ok {
			if module == "" {
				module = "$style"
			}
			style.Module = module
		}
		descriptor.Styles = append(descriptor.Styles, style)
	}

	// Custom blocks are ignored
	return nil
}

func hasSlottedStyle(styles []StyleBlock) bool {
	for _, style := range styles {
		if style.Scoped && strings.Contains(style.Content, ":slotted(") {
			return true
		}
	}
	return false
}
