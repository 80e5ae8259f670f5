package config

import (
	"reflect"
	"sort"
	"sync"
)

// Field describes one leaf configuration key.
type Field struct {
	Path      string
	EnvVar    string
	Sensitive bool
}

var (
	cachedFields []Field
	fieldsOnce   sync.Once
)

// Fields lists every leaf key of Config sorted by path, derived from struct tags.
func Fields() []Field {
	fieldsOnce.Do(func() {
		cachedFields = collectFields(reflect.TypeOf(Config{}), "")
		sort.Slice(cachedFields, func(i, j int) bool {
			return cachedFields[i].Path < cachedFields[j].Path
		})
	})
	return cachedFields
}

func collectFields(t reflect.Type, prefix string) []Field {
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("koanf")
		if !sf.IsExported() || tag == "" || tag == "-" {
			continue
		}
		path := tag
		if prefix != "" {
			path = prefix + "." + tag
		}
		if sf.Type.Kind() == reflect.Struct && sf.Type.PkgPath() != "time" {
			fields = append(fields, collectFields(sf.Type, path)...)
			continue
		}
		fields = append(fields, Field{
			Path:      path,
			EnvVar:    sf.Tag.Get("env"),
			Sensitive: sf.Type == reflect.TypeOf(SensitiveString("")) || sf.Tag.Get("sensitive") == "true",
		})
	}
	return fields
}

// GenerateEnvToConfigMap maps environment variable names to config paths.
func GenerateEnvToConfigMap() map[string]string {
	result := make(map[string]string)
	for _, f := range Fields() {
		if f.EnvVar != "" {
			result[f.EnvVar] = f.Path
		}
	}
	return result
}

// EnvVarFor returns the environment variable bound to path, if any.
func EnvVarFor(path string) string {
	for _, f := range Fields() {
		if f.Path == path {
			return f.EnvVar
		}
	}
	return ""
}

func IsSensitivePath(path string) bool {
	for _, f := range Fields() {
		if f.Path == path {
			return f.Sensitive
		}
	}
	return false
}
