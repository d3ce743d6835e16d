package handler

import (
	"strings"
	"sync"
)

// Catalog is the discovery surface for handler classes. Packages add their
// classes, typically from init, and the builder scans by package prefix.
type Catalog struct {
	classes []Class
	mu      sync.RWMutex
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Add appends classes in order
func (c *Catalog) Add(classes ...Class) {
	c.mu.Lock()
	c.classes = append(c.classes, classes...)
	c.mu.Unlock()
}

// Scan returns the classes whose package is basePackage or nested below it,
// in the order they were added. An empty basePackage matches nothing.
func (c *Catalog) Scan(basePackage string) []Class {
	if basePackage == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []Class
	for _, class := range c.classes {
		if class.Package == basePackage || strings.HasPrefix(class.Package, basePackage+"/") {
			result = append(result, class)
		}
	}
	return result
}

// Lookup finds a class by its qualified name, as returned by Class.String.
func (c *Catalog) Lookup(name string) (Class, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, class := range c.classes {
		if class.String() == name {
			return class, true
		}
	}
	return Class{}, false
}

// Len returns the number of classes added
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.classes)
}

var defaultCatalog = NewCatalog()

// DefaultCatalog returns the process-wide catalog filled by Register
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Register adds classes to the default catalog
func Register(classes ...Class) {
	defaultCatalog.Add(classes...)
}
