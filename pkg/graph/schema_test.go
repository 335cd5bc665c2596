package graph

import (
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/errors"
)

func TestSchemaPorts(t *testing.T) {
	s := testSchema()

	if got := s.PortCount("add", PortInput); got != 2 {
		t.Errorf("add inputs = %d, want 2", got)
	}
	if got := s.PortCount("add", PortOutput); got != 1 {
		t.Errorf("add outputs = %d, want 1", got)
	}
	if got := s.PortCount("unknown", PortInput); got != 0 {
		t.Errorf("unknown inputs = %d, want 0", got)
	}

	spec, _ := s.Spec("add")
	if spec.DisplayLabel("add") != "Add" {
		t.Errorf("DisplayLabel = %q", spec.DisplayLabel("add"))
	}
	if c, _ := s.Spec("const"); c.DisplayLabel("const") != "const" || !c.HasParam("value") {
		t.Errorf("const spec = %+v", c)
	}
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr bool
	}{
		{"valid", testSchema(), false},
		{"empty", Schema{}, false},
		{"bad kind", Schema{"1add": {}}, true},
		{"bad port", Schema{"add": {Inputs: []string{"a b"}}}, true},
		{"duplicate input", Schema{"add": {Inputs: []string{"a", "a"}}}, true},
		{"duplicate param", Schema{"k": {Params: []string{"x", "x"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidSchema) {
				t.Errorf("code = %s, want INVALID_SCHEMA", errors.GetCode(err))
			}
		})
	}
}

func TestSchemaHash(t *testing.T) {
	a := testSchema()
	b := testSchema()
	if a.Hash() != b.Hash() {
		t.Error("equal schemas should hash equally")
	}
	b["print"] = KindSpec{Inputs: []string{"in", "extra"}}
	if a.Hash() == b.Hash() {
		t.Error("different schemas should hash differently")
	}
	if len(a.Hash()) != 64 {
		t.Errorf("hash length = %d, want 64", len(a.Hash()))
	}
}

func TestPortKind(t *testing.T) {
	if PortInput.String() != "input" || PortOutput.String() != "output" {
		t.Error("unexpected PortKind strings")
	}
	if PortInput.Opposite() != PortOutput || PortOutput.Opposite() != PortInput {
		t.Error("Opposite() should swap kinds")
	}
	e := Edge{Source: Output{Node: 1, Index: 2}, Target: Input{Node: 3}}
	if r := e.Source.Ref(); r != (PortRef{Node: 1, Index: 2, Kind: PortOutput}) {
		t.Errorf("Source.Ref() = %+v", r)
	}
	if !e.Touches(3) || e.Touches(2) {
		t.Error("Touches() mismatch")
	}
}
