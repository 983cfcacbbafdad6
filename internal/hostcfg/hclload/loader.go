// Package hclload parses host override files for the configuration
// registry. An override file carries a single `settings` block whose
// attributes are switch names:
//
//	settings {
//	  interpreter_slack   = true
//	  max_loop_iterations = 1000
//	}
//
// The loader only evaluates the file into name/value pairs; switch
// existence, types and mutability are enforced by the registry itself.
package hclload

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// fileSchema is the top-level HCL layout of an override file. There is no
// remain body: anything other than the settings block is a mistake worth
// surfacing.
type fileSchema struct {
	Settings *settingsBlock `hcl:"settings,block"`
}

// settingsBlock captures the raw attribute body of the settings block.
type settingsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// File reads an override file and returns its settings as a switch-name to
// value map, ready to pass to hostcfg.Registry.Init. A file without a
// settings block yields an empty map.
func File(path string) (map[string]cty.Value, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}
	return decode(file.Body)
}

// Bytes is the in-memory variant of File, used by tests and by hosts that
// embed their override text.
func Bytes(src []byte, filename string) (map[string]cty.Value, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}
	return decode(file.Body)
}

func decode(body hcl.Body) (map[string]cty.Value, error) {
	var schema fileSchema
	if diags := gohcl.DecodeBody(body, nil, &schema); diags.HasErrors() {
		return nil, fmt.Errorf("decoding override file: %w", diags)
	}

	overrides := make(map[string]cty.Value)
	if schema.Settings == nil {
		return overrides, nil
	}

	attrs, diags := schema.Settings.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("reading settings block: %w", diags)
	}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating setting %q: %w", name, diags)
		}
		overrides[name] = val
	}
	return overrides, nil
}
