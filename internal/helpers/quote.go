package helpers

import "unicode/utf8"

const hexChars = "0123456789ABCDEF"
const firstASCII = 0x20
const lastASCII = 0x7E

func canPrintWithoutEscape(c rune) bool {
	if c <= lastASCII {
		return c >= firstASCII && c != '\\' && c != '"'
	}

	// These are valid in JSON strings but are line terminators in JavaScript
	// string literals before ES2019, and the BOM is easy to lose in transit
	return c != '\u2028' && c != '\u2029' && c != '\uFEFF' && c != utf8.RuneError
}

// Returns a double-quoted string literal that is valid both as JSON and as a
// JavaScript expression. This is used for file names and import paths spliced
// into generated modules, and for CSS text injected at run-time.
func QuoteForJS(text string) string {
	// Estimate the required length
	lenEstimate := 2
	for _, c := range text {
		if canPrintWithoutEscape(c) {
			lenEstimate += utf8.RuneLen(c)
		} else {
			lenEstimate += 6
		}
	}

	// Preallocate the array
	bytes := make([]byte, 0, lenEstimate)
	i := 0
	n := len(text)
	bytes = append(bytes, '"')

	for i < n {
		c, width := utf8.DecodeRuneInString(text[i:])

		// Fast path: a run of characters that don't need escaping
		if canPrintWithoutEscape(c) {
			start := i
			i += width
			for i < n {
				c, width = utf8.DecodeRuneInString(text[i:])
				if !canPrintWithoutEscape(c) {
					break
				}
				i += width
			}
			bytes = append(bytes, text[start:i]...)
			continue
		}

		i += width
		switch c {
		case '\b':
			bytes = append(bytes, "\\b"...)
		case '\f':
			bytes = append(bytes, "\\f"...)
		case '\n':
			bytes = append(bytes, "\\n"...)
		case '\r':
			bytes = append(bytes, "\\r"...)
		case '\t':
			bytes = append(bytes, "\\t"...)
		case '\\':
			bytes = append(bytes, "\\\\"...)
		case '"':
			bytes = append(bytes, "\\\""...)

		default:
			// Invalid UTF-8 is replaced rather than passed through
			if c == utf8.RuneError && width == 1 {
				c = '\uFFFD'
			}
			bytes = append(bytes, '\\', 'u', hexChars[c>>12], hexChars[(c>>8)&15], hexChars[(c>>4)&15], hexChars[c&15])
		}
	}

	return string(append(bytes, '"'))
}
