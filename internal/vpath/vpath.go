package vpath

// Every import that refers to a single-file component is mapped onto one of
// four virtual namespaces. The stub module for a physical file imports its
// sub-modules using a query suffix ("?type=style&index=0"), which is the only
// place the encoding exists as a string. It is decoded into a Key as soon as
// it crosses the resolver boundary and never parsed again downstream.

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pipe01/esbuild-plugin-vue3/internal/helpers"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindStub
	KindScript
	KindTemplate
	KindStyle
)

const (
	NamespaceStub     = "sfc"
	NamespaceScript   = "sfc-script"
	NamespaceTemplate = "sfc-template"
	NamespaceStyle    = "sfc-style"
)

func (kind Kind) Namespace() string {
	switch kind {
	case KindStub:
		return NamespaceStub
	case KindScript:
		return NamespaceScript
	case KindTemplate:
		return NamespaceTemplate
	case KindStyle:
		return NamespaceStyle
	}
	return ""
}

func (kind Kind) String() string {
	switch kind {
	case KindStub:
		return "stub"
	case KindScript:
		return "script"
	case KindTemplate:
		return "template"
	case KindStyle:
		return "style"
	}
	return "none"
}

func KindFromNamespace(namespace string) Kind {
	switch namespace {
	case NamespaceStub:
		return KindStub
	case NamespaceScript:
		return KindScript
	case NamespaceTemplate:
		return KindTemplate
	case NamespaceStyle:
		return KindStyle
	}
	return KindNone
}

// The identity of one compilation unit within a build. Index is only
// meaningful for KindStyle.
type Key struct {
	Path  string
	Kind  Kind
	Index int
}

func (key Key) String() string {
	if key.Kind == KindStyle {
		return fmt.Sprintf("%s:%s#%d", key.Kind.Namespace(), key.Path, key.Index)
	}
	return key.Kind.Namespace() + ":" + key.Path
}

// The query suffix that selects this sub-module. The stub has no suffix.
func (key Key) Suffix() string {
	switch key.Kind {
	case KindScript:
		return "?type=script"
	case KindTemplate:
		return "?type=template"
	case KindStyle:
		return "?type=style&index=" + strconv.Itoa(key.Index)
	}
	return ""
}

var typeTypos = helpers.MakeTypoDetector([]string{"script", "template", "style"})

// Splits an import specifier into the path and the decoded sub-module
// selector. Only specifiers whose path ends in "extension" can select a
// sub-module. For anything else, and for queries that can't be decoded at
// all, "hasQuery" is false, "kind" is KindNone and the specifier is returned
// unchanged.
func ParseSpecifier(specifier string, extension string) (path string, kind Kind, index int, hasQuery bool, err error) {
	question := strings.IndexByte(specifier, '?')
	if question == -1 || !strings.HasSuffix(specifier[:question], extension) {
		return specifier, KindNone, 0, false, nil
	}

	query, parseErr := url.ParseQuery(specifier[question+1:])
	if parseErr != nil {
		return specifier, KindNone, 0, false, nil
	}

	kind, index, err = parseQuery(specifier, query)
	if err != nil || kind == KindNone {
		return specifier, KindNone, 0, false, err
	}
	return specifier[:question], kind, index, true, nil
}

func parseQuery(specifier string, query url.Values) (kind Kind, index int, err error) {
	switch typ := query.Get("type"); typ {
	case "script":
		kind = KindScript
	case "template":
		kind = KindTemplate
	case "style":
		kind = KindStyle
		raw := query.Get("index")
		if raw == "" {
			return KindNone, 0, fmt.Errorf("Missing style index in %q", specifier)
		}
		if index, err = strconv.Atoi(raw); err != nil || index < 0 {
			return KindNone, 0, fmt.Errorf("Invalid style index %q in %q", raw, specifier)
		}
	case "":
		// Some other query such as "?raw" that isn't ours
		return KindNone, 0, nil
	default:
		if corrected, ok := typeTypos.MaybeCorrectTypo(typ); ok {
			return KindNone, 0, fmt.Errorf("Unknown sub-module type %q in %q (did you mean %q?)", typ, specifier, corrected)
		}
		return KindNone, 0, fmt.Errorf("Unknown sub-module type %q in %q", typ, specifier)
	}
	return kind, index, nil
}

// Rebuilds the key for a module esbuild asks us to load. The suffix is the one
// returned from the resolver, so it always round-trips.
func KeyForLoad(path string, namespace string, suffix string) (Key, error) {
	kind := KindFromNamespace(namespace)
	if kind == KindNone {
		return Key{}, fmt.Errorf("Unexpected namespace %q for %q", namespace, path)
	}
	key := Key{Path: path, Kind: kind}
	if kind == KindStyle {
		query, err := url.ParseQuery(strings.TrimPrefix(suffix, "?"))
		if err != nil {
			return Key{}, fmt.Errorf("Invalid query %q for %q: %w", suffix, path, err)
		}
		parsedKind, index, err := parseQuery(path+suffix, query)
		if err != nil {
			return Key{}, err
		}
		if parsedKind != KindStyle {
			return Key{}, fmt.Errorf("Missing style index for %q", path)
		}
		key.Index = index
	}
	return key, nil
}
