package dbg

import (
	"fmt"
	"reflect"
	"strings"

	petname "github.com/dustinkirkland/golang-petname"
)

// Log lines about a gesture mention several freshly created primitives, all
// with negative IDs that are hard to tell apart. Name gives each value a
// memorable petname instead. Names are made on first use and never freed, so
// only call it behind dbg.Enabled.

var memo = map[interface{}]string{}

// A fresh seed per run, so nobody mistakes a name for a stable identifier.
func init() {
	petname.NonDeterministicMode()
}

// Name returns the petname for obj, or "Ø" for nil.
func Name(obj interface{}) string {
	if obj == nil {
		return "Ø"
	}
	switch v := reflect.ValueOf(obj); v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return "Ø"
		}
	}

	if r, ok := memo[obj]; ok {
		return r
	}
	r := fmt.Sprintf("%s%s", strings.Title(petname.Adjective()), strings.Title(petname.Name()))
	memo[obj] = r
	return r
}

// Names for a list of values, joined like a slice literal.
func Names(objs ...interface{}) string {
	parts := make([]string, len(objs))
	for i, obj := range objs {
		parts[i] = Name(obj)
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
