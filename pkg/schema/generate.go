package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Generator produces a JSON schema from a Go value, pulling descriptions from
// the Go doc comments of the value's package.
type Generator struct {
	value  any
	module string
}

// NewGenerator creates a [Generator] for the given value. The module argument
// is the Go module path used to resolve doc comments.
func NewGenerator(value any, module string) *Generator {
	return &Generator{
		value:  value,
		module: module,
	}
}

// Generate reflects the value into a JSON schema document.
func (g *Generator) Generate() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true

	err := r.AddGoComments(g.module, "./")
	if err != nil {
		return nil, fmt.Errorf("add go comments: %w", err)
	}

	jss := r.Reflect(g.value)

	data, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}
