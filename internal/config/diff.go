// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"reflect"
	"sort"
	"strings"
)

// ChangeSummary describes the result of comparing two AppConfigs.
type ChangeSummary struct {
	ChangedFields   []string // yaml paths of fields that changed
	RestartRequired bool     // true if any changed field is not tagged reload:"hot"
}

// Diff compares two configurations field by field.
func Diff(old, next AppConfig) ChangeSummary {
	s := ChangeSummary{}
	s.compareStruct("", reflect.ValueOf(old), reflect.ValueOf(next))
	sort.Strings(s.ChangedFields)
	return s
}

// HotFields lists the yaml paths a running daemon applies on reload.
func HotFields() []string {
	var out []string
	var walk func(prefix string, t reflect.Type)
	walk = func(prefix string, t reflect.Type) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			path, ok := fieldPath(prefix, f)
			if !ok {
				continue
			}
			if f.Type.Kind() == reflect.Struct {
				walk(path, f.Type)
			} else if f.Tag.Get("reload") == "hot" {
				out = append(out, path)
			}
		}
	}
	walk("", reflect.TypeOf(AppConfig{}))
	sort.Strings(out)
	return out
}

func fieldPath(prefix string, f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	name := strings.Split(f.Tag.Get("yaml"), ",")[0]
	if name == "-" {
		return "", false
	}
	if name == "" {
		name = strings.ToLower(f.Name)
	}
	if prefix != "" {
		return prefix + "." + name, true
	}
	return name, true
}

func (s *ChangeSummary) compareStruct(prefix string, oldVal, nextVal reflect.Value) {
	t := oldVal.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path, ok := fieldPath(prefix, f)
		if !ok {
			continue
		}

		o, n := oldVal.Field(i), nextVal.Field(i)
		if f.Type.Kind() == reflect.Struct {
			s.compareStruct(path, o, n)
			continue
		}
		if reflect.DeepEqual(o.Interface(), n.Interface()) {
			continue
		}
		s.ChangedFields = append(s.ChangedFields, path)
		if f.Tag.Get("reload") != "hot" {
			s.RestartRequired = true
		}
	}
}
