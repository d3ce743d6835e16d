// Package handler describes handler classes to the gqlwire build pipeline.
//
// A Class pairs a Go type with Markers. Markers are plain data:
//
//	handler.NewClass(&UserLoaders{}, handler.Loaders())
//	handler.NewClass(&UserResolvers{}, handler.Resolvers("User"),
//	    handler.Field("FullName", "name"))
//	handler.NewClass(&User{}, handler.Entity(&User{}, "User", "id", "userLoader"))
//
// The members themselves are found by reflection over the method set of the
// instance returned by an InstanceProvider. Classes reach the builder either
// explicitly or through a Catalog scanned by package prefix.
package handler
