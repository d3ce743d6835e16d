package scan

import (
	stderrors "errors"
	"fmt"
)

// Item is the outcome of registering one member of one class.
type Item struct {
	Strategy string `json:"strategy"`
	Class    string `json:"class"`
	Member   string `json:"member,omitempty"`
	// Target is what was registered: a loader name, an entity name or a
	// schema coordinate.
	Target   string `json:"target,omitempty"`
	Replaced bool   `json:"replaced,omitempty"`
	Err      error  `json:"-"`
}

// Failed reports whether the member could not be registered
func (i Item) Failed() bool {
	return i.Err != nil
}

func (i Item) String() string {
	where := i.Class
	if i.Member != "" {
		where += "." + i.Member
	}
	if i.Err != nil {
		return fmt.Sprintf("%s %s: %v", i.Strategy, where, i.Err)
	}
	return fmt.Sprintf("%s %s -> %s", i.Strategy, where, i.Target)
}

// Report collects the items produced during one scan.
type Report struct {
	Items []Item `json:"items"`
}

// Add appends items
func (r *Report) Add(items ...Item) {
	r.Items = append(r.Items, items...)
}

// Failed returns the failed items
func (r *Report) Failed() []Item {
	var result []Item
	for _, item := range r.Items {
		if item.Failed() {
			result = append(result, item)
		}
	}
	return result
}

// Succeeded returns the registered items
func (r *Report) Succeeded() []Item {
	var result []Item
	for _, item := range r.Items {
		if !item.Failed() {
			result = append(result, item)
		}
	}
	return result
}

// Replaced counts registrations that overwrote an earlier one
func (r *Report) Replaced() int {
	n := 0
	for _, item := range r.Items {
		if item.Replaced {
			n++
		}
	}
	return n
}

// Err joins the errors of every failed item, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, item := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", item.Class, item.Err))
	}
	return stderrors.Join(errs...)
}
