// Package scan turns handler classes into registrations.
//
// Each Strategy handles one marker kind. LoaderStrategy fills the loader
// repository, EntityStrategy the entity registry, and ResolverStrategy the
// wiring accumulator. WiringBuilder applies the strategies to every class
// once and freezes the result into a wiring.Config. Every member outcome is
// kept in a Report; a failing member is logged and recorded while the rest
// of the scan continues.
package scan
