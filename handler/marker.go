package handler

import (
	"reflect"
)

// MarkerKind identifies what a marker declares
type MarkerKind string

const (
	// KindLoaders marks a class whose methods return batched loaders.
	KindLoaders MarkerKind = "loaders"
	// KindResolvers marks a class whose methods resolve fields of one schema type.
	KindResolvers MarkerKind = "resolvers"
	// KindEntity declares a federated entity.
	KindEntity MarkerKind = "entity"
	// KindField overrides the schema field name of one member.
	KindField MarkerKind = "field"
)

// EntitySpec is the payload of an entity marker
type EntitySpec struct {
	SourceType   reflect.Type
	ExternalName string
	IDField      string
	LoaderField  string
}

// Marker is declarative metadata attached to a handler class.
type Marker struct {
	Kind     MarkerKind
	Member   string
	Field    string
	TypeName string
	Entity   *EntitySpec
}

// Loaders marks a class as a loader provider
func Loaders() Marker {
	return Marker{Kind: KindLoaders}
}

// Resolvers marks a class as the resolver set of typeName
func Resolvers(typeName string) Marker {
	return Marker{Kind: KindResolvers, TypeName: typeName}
}

// Field overrides the field name of member
func Field(member, field string) Marker {
	return Marker{Kind: KindField, Member: member, Field: field}
}

// Entity declares that values of sample's type are the federated entity
// externalName. Pointer samples are reduced to their element type, so
// (*Node)(nil) declares the interface Node and &User{} the struct User.
func Entity(sample any, externalName, idField, loaderField string) Marker {
	return Marker{
		Kind: KindEntity,
		Entity: &EntitySpec{
			SourceType:   sourceType(sample),
			ExternalName: externalName,
			IDField:      idField,
			LoaderField:  loaderField,
		},
	}
}

func sourceType(sample any) reflect.Type {
	t := reflect.TypeOf(sample)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}
