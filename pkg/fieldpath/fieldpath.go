// Package fieldpath parses grid field references into a structured path
// representation. A reference navigates from the root entity through
// relationships (dot separated) and/or embedded documents (bracket-colon
// notation), e.g. "title", "author.name", "attrs[:color]",
// "attrs[:specs][:weight]", "author.meta[:bio]".
package fieldpath

import (
	"regexp"
	"strings"
)

// Kind tags the path variant. Exactly one applies per input string.
type Kind int

const (
	KindInvalid Kind = iota
	KindDirect
	KindRelationship
	KindEmbedded
	KindNestedEmbedded
	KindRelationshipEmbedded
	KindRelationshipNestedEmbedded
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindRelationship:
		return "relationship"
	case KindEmbedded:
		return "embedded"
	case KindNestedEmbedded:
		return "nested_embedded"
	case KindRelationshipEmbedded:
		return "relationship_embedded"
	case KindRelationshipNestedEmbedded:
		return "relationship_nested_embedded"
	default:
		return "invalid"
	}
}

// FieldPath is the parsed form of a field reference.
type FieldPath struct {
	Kind      Kind
	Raw       string
	Name      string   // leaf field name
	Relations []string // relationship hops, outermost first
	Container string   // embedded container name
	Path      []string // embedded field path inside the container
}

var (
	segmentRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)((?:\[:[A-Za-z_][A-Za-z0-9_]*\])*)$`)
	bracketRe = regexp.MustCompile(`\[:([A-Za-z_][A-Za-z0-9_]*)\]`)
)

// Parse converts a raw field reference into a FieldPath. Parsing is pure
// and total: malformed input yields Kind == KindInvalid, never an error.
func Parse(raw string) FieldPath {
	fp := FieldPath{Kind: KindInvalid, Raw: raw}

	if raw == "" || strings.ContainsAny(raw, " \t\n\r") {
		return fp
	}

	segments := strings.Split(raw, ".")
	last := len(segments) - 1

	type parsedSegment struct {
		base     string
		brackets []string
	}
	parsed := make([]parsedSegment, 0, len(segments))

	for i, seg := range segments {
		m := segmentRe.FindStringSubmatch(seg)
		if m == nil {
			return fp
		}
		// "__" is reserved by the URL-safe encoding; an identifier
		// containing it would collide with the encoded form of a
		// bracketed reference.
		if strings.Contains(m[1], "__") {
			return fp
		}
		brackets := []string{}
		for _, bm := range bracketRe.FindAllStringSubmatch(m[2], -1) {
			if strings.Contains(bm[1], "__") {
				return fp
			}
			brackets = append(brackets, bm[1])
		}
		// Embedded notation is only valid on the final segment.
		if len(brackets) > 0 && i != last {
			return fp
		}
		parsed = append(parsed, parsedSegment{base: m[1], brackets: brackets})
	}

	leaf := parsed[last]
	relations := make([]string, 0, last)
	for _, seg := range parsed[:last] {
		relations = append(relations, seg.base)
	}

	switch {
	case len(relations) == 0 && len(leaf.brackets) == 0:
		fp.Kind = KindDirect
		fp.Name = leaf.base
	case len(relations) == 0 && len(leaf.brackets) == 1:
		fp.Kind = KindEmbedded
		fp.Container = leaf.base
		fp.Name = leaf.brackets[0]
		fp.Path = leaf.brackets
	case len(relations) == 0:
		fp.Kind = KindNestedEmbedded
		fp.Container = leaf.base
		fp.Path = leaf.brackets
		fp.Name = leaf.brackets[len(leaf.brackets)-1]
	case len(leaf.brackets) == 0:
		fp.Kind = KindRelationship
		fp.Relations = relations
		fp.Name = leaf.base
	case len(leaf.brackets) == 1:
		fp.Kind = KindRelationshipEmbedded
		fp.Relations = relations
		fp.Container = leaf.base
		fp.Name = leaf.brackets[0]
		fp.Path = leaf.brackets
	default:
		fp.Kind = KindRelationshipNestedEmbedded
		fp.Relations = relations
		fp.Container = leaf.base
		fp.Path = leaf.brackets
		fp.Name = leaf.brackets[len(leaf.brackets)-1]
	}

	return fp
}

// String reconstructs the raw reference for a valid path.
func (fp FieldPath) String() string {
	if fp.Kind == KindInvalid {
		return fp.Raw
	}
	var b strings.Builder
	for _, rel := range fp.Relations {
		b.WriteString(rel)
		b.WriteString(".")
	}
	if fp.Container != "" {
		b.WriteString(fp.Container)
		for _, name := range fp.Path {
			b.WriteString("[:")
			b.WriteString(name)
			b.WriteString("]")
		}
	} else {
		b.WriteString(fp.Name)
	}
	return b.String()
}

// ToURLSafe rewrites each "[:x]" as "__x" so the reference can serve as a
// URL parameter key. Relationship dots are left untouched. The encoding
// is injective because Parse rejects "__" inside identifiers.
func ToURLSafe(raw string) string {
	return bracketRe.ReplaceAllString(raw, "__$1")
}

// FromURLSafe is the inverse of ToURLSafe. Dot segments are protected
// first, then each "__"-joined segment expands back to bracket notation.
func FromURLSafe(encoded string) string {
	segments := strings.Split(encoded, ".")
	for i, seg := range segments {
		parts := strings.Split(seg, "__")
		if len(parts) < 2 {
			continue
		}
		valid := true
		for _, p := range parts {
			if p == "" {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		var b strings.Builder
		b.WriteString(parts[0])
		for _, p := range parts[1:] {
			b.WriteString("[:")
			b.WriteString(p)
			b.WriteString("]")
		}
		segments[i] = b.String()
	}
	return strings.Join(segments, ".")
}

// URLSafe encodes the parsed path for use as a URL parameter key.
func (fp FieldPath) URLSafe() string {
	return ToURLSafe(fp.String())
}

// Humanize joins the humanized label of every path segment with " > ".
// Malformed input degrades to humanizing the whole raw string.
func (fp FieldPath) Humanize() string {
	if fp.Kind == KindInvalid {
		return humanizeSegment(fp.Raw)
	}
	segments := make([]string, 0, len(fp.Relations)+len(fp.Path)+1)
	for _, rel := range fp.Relations {
		segments = append(segments, humanizeSegment(rel))
	}
	if fp.Container != "" {
		segments = append(segments, humanizeSegment(fp.Container))
		for _, name := range fp.Path {
			segments = append(segments, humanizeSegment(name))
		}
	} else {
		segments = append(segments, humanizeSegment(fp.Name))
	}
	return strings.Join(segments, " > ")
}

// Humanize parses and humanizes a raw reference in one step.
func Humanize(raw string) string {
	return Parse(raw).Humanize()
}

func humanizeSegment(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
