package handler

import (
	"reflect"
	"unicode"
	"unicode/utf8"
)

// Class is a handler type together with its markers.
type Class struct {
	Name    string
	Package string
	Type    reflect.Type
	Markers []Marker
}

// NewClass builds a class from a sample value. Pointer samples are reduced
// to their element type.
func NewClass(sample any, markers ...Marker) Class {
	t := reflect.TypeOf(sample)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	c := Class{Type: t, Markers: markers}
	if t != nil {
		c.Name = t.Name()
		c.Package = t.PkgPath()
	}
	return c
}

// Has reports whether the class carries at least one marker of kind
func (c Class) Has(kind MarkerKind) bool {
	for _, m := range c.Markers {
		if m.Kind == kind {
			return true
		}
	}
	return false
}

// MarkersOf returns the markers of kind in declaration order
func (c Class) MarkersOf(kind MarkerKind) []Marker {
	var result []Marker
	for _, m := range c.Markers {
		if m.Kind == kind {
			result = append(result, m)
		}
	}
	return result
}

// FieldName returns the schema field name for member: a field marker
// override if present, else the member name with a lower-case first rune.
func (c Class) FieldName(member string) string {
	for _, m := range c.Markers {
		if m.Kind == KindField && m.Member == member && m.Field != "" {
			return m.Field
		}
	}
	return lowerFirst(member)
}

// String returns the qualified class name
func (c Class) String() string {
	if c.Package == "" {
		return c.Name
	}
	return c.Package + "." + c.Name
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
