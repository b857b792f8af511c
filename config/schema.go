package config

import (
	"reflect"

	"github.com/golang/geo/r3"
	"github.com/invopop/jsonschema"
)

// vector is the JSON form of an r3.Vector in rig files.
type vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

var vectorType = reflect.TypeOf(r3.Vector{})

// Schema returns the JSON schema of a rig file. Nested structs are inlined since the camera, rig
// and stereo configs share the type name Config.
func Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t != vectorType {
				return nil
			}
			s := (&jsonschema.Reflector{DoNotReference: true}).Reflect(&vector{})
			s.Version = ""
			return s
		},
	}
	return reflector.Reflect(&Config{})
}
