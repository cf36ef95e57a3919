package logger

// Diagnostics produced while loading a virtual module are collected into a
// log and then handed to esbuild as part of the load result. esbuild prints
// them in its usual clang-like format, so all that matters here is that each
// message points at the physical source file with the correct line.

import (
	"regexp"
	"sort"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
)

type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
)

type Msg struct {
	Kind     MsgKind
	Text     string
	Location *MsgLocation
}

type MsgLocation struct {
	File      string
	Namespace string
	Line      int // 1-based
	Column    int // 0-based, in bytes
	Length    int // in bytes
	LineText  string
}

// This type is just so we can use Go's native sort function
type msgsArray []Msg

func (a msgsArray) Len() int          { return len(a) }
func (a msgsArray) Swap(i int, j int) { a[i], a[j] = a[j], a[i] }

func (a msgsArray) Less(i int, j int) bool {
	ai := a[i]
	aj := a[j]

	li := ai.Location
	lj := aj.Location

	// Location
	if li == nil && lj != nil {
		return true
	}
	if li != nil && lj == nil {
		return false
	}

	if li != nil && lj != nil {
		if li.File != lj.File {
			return li.File < lj.File
		}
		if li.Line != lj.Line {
			return li.Line < lj.Line
		}
		if li.Column != lj.Column {
			return li.Column < lj.Column
		}
	}

	// Kind
	if ai.Kind != aj.Kind {
		return ai.Kind < aj.Kind
	}

	// Text
	return ai.Text < aj.Text
}

func NewDeferLog() Log {
	var msgs msgsArray
	var mutex sync.Mutex
	var hasErrors bool

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind == Error {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sort.Stable(msgs)
			return msgs
		},
	}
}

func (log Log) AddError(loc *MsgLocation, text string) {
	log.AddMsg(Msg{Kind: Error, Text: text, Location: loc})
}

func (log Log) AddWarning(loc *MsgLocation, text string) {
	log.AddMsg(Msg{Kind: Warning, Text: text, Location: loc})
}

var querySuffix = regexp.MustCompile(`\?.*$`)

// Virtual sub-modules share the physical file path plus a query suffix. The
// query must never leak into a reported location.
func StripQuery(file string) string {
	return querySuffix.ReplaceAllString(file, "")
}

// Blocks of a single-file component are compiled as standalone fragments, so
// the line numbers a compiler reports are relative to the start of the block.
// "lineOffset" is the number of lines in the physical file that precede the
// fragment.
func (loc *MsgLocation) ShiftLines(lineOffset int) *MsgLocation {
	if loc == nil {
		return nil
	}
	clone := *loc
	clone.Line += lineOffset
	return &clone
}

func ToAPI(msgs []Msg) (errors []api.Message, warnings []api.Message) {
	for _, msg := range msgs {
		converted := api.Message{Text: msg.Text}
		if loc := msg.Location; loc != nil {
			converted.Location = &api.Location{
				File:      loc.File,
				Namespace: loc.Namespace,
				Line:      loc.Line,
				Column:    loc.Column,
				Length:    loc.Length,
				LineText:  loc.LineText,
			}
		}
		if msg.Kind == Error {
			errors = append(errors, converted)
		} else {
			warnings = append(warnings, converted)
		}
	}
	return
}
