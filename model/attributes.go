// Package model is a thin record layer over the query builder. A Model is a
// table name plus a bag of named attributes that map to column values.
package model

import (
	"maps"
	"slices"
)

// Attributes maps column names to values. The zero value is ready to use.
type Attributes struct {
	values map[string]any
}

// NewAttributes returns attributes initialized with a copy of values.
func NewAttributes(values map[string]any) Attributes {
	var a Attributes
	a.Replace(values)
	return a
}

// Get returns the value of key and whether it is set.
func (a *Attributes) Get(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

func (a *Attributes) Set(key string, value any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	a.values[key] = value
}

func (a *Attributes) Has(key string) bool {
	_, ok := a.values[key]
	return ok
}

func (a *Attributes) Remove(key string) {
	delete(a.values, key)
}

// Keys returns the attribute names in ascending order.
func (a *Attributes) Keys() []string {
	return slices.Sorted(maps.Keys(a.values))
}

func (a *Attributes) Len() int {
	return len(a.values)
}

// All returns a copy of every attribute.
func (a *Attributes) All() map[string]any {
	return maps.Clone(a.values)
}

// Replace discards every attribute and copies values in.
func (a *Attributes) Replace(values map[string]any) {
	a.values = make(map[string]any, len(values))
	maps.Copy(a.values, values)
}
