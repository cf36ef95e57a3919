package sfc

// The parsed representation of one single-file component.
type Descriptor struct {
	Filename string
	Source   string

	// At most one of each. A script compiler merges a plain script and a
	// "setup" script into one compiled module, so downstream there is only ever
	// one logical script.
	Script      *ScriptBlock
	ScriptSetup *ScriptBlock

	Template *Block

	// Addressed by position. The order is the order in the source file and
	// never changes for the lifetime of one parse.
	Styles []StyleBlock

	// True if any scoped style uses the ":slotted()" pseudo-class.
	Slotted bool
}

type Block struct {
	Content string
	Lang    string
	Attrs   map[string]string

	// The number of lines in the source file before the first line of
	// Content. Adding this to a 1-based line number reported against Content
	// yields the line number in the source file.
	LineOffset int
}

type ScriptBlock struct {
	Block
	Setup bool
}

type StyleBlock struct {
	Block
	Scoped bool
	Module string
}

func (d *Descriptor) HasScript() bool {
	return d.Script != nil || d.ScriptSetup != nil
}

func (d *Descriptor) HasScopedStyle() bool {
	for _, style := range d.Styles {
		if style.Scoped {
			return true
		}
	}
	return false
}
