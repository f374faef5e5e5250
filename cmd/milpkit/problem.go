package main

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/milpkit/milpkit"
	"github.com/milpkit/milpkit/internal/utils"
	"github.com/milpkit/milpkit/mip"
	"github.com/milpkit/milpkit/relax"
)

// problemFile is the root of a .hcl problem description. Each variable block
// declares a bounded continuous column; each bilinear block declares a
// product column z = x*y together with the relaxation to apply.
type problemFile struct {
	Name      string        `hcl:"name,optional"`
	Variables []*varBlock   `hcl:"variable,block"`
	Bilinears []*bilinBlock `hcl:"bilinear,block"`
}

type varBlock struct {
	Name  string  `hcl:"name,label"`
	Lower float64 `hcl:"lower"`
	Upper float64 `hcl:"upper"`
}

type bilinBlock struct {
	Name       string    `hcl:"name,label"`
	X          string    `hcl:"x"`
	Y          string    `hcl:"y"`
	XPartition []float64 `hcl:"x_partition,optional"`
	YPartition []float64 `hcl:"y_partition,optional"`
	Method     string    `hcl:"method,optional"`
}

// linspaceFunc exposes utils.Linspace to .hcl files, so a partition can be
// written linspace(0, 8, 5) instead of spelled out point by point.
var linspaceFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "lo", Type: cty.Number},
		{Name: "hi", Type: cty.Number},
		{Name: "n", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.List(cty.Number)),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		var lo, hi float64
		var n int
		if err := gocty.FromCtyValue(args[0], &lo); err != nil {
			return cty.NilVal, err
		}
		if err := gocty.FromCtyValue(args[1], &hi); err != nil {
			return cty.NilVal, err
		}
		if err := gocty.FromCtyValue(args[2], &n); err != nil {
			return cty.NilVal, err
		}
		if n < 2 {
			return cty.NilVal, fmt.Errorf("linspace: need at least 2 points, got %d", n)
		}
		points := utils.Linspace(lo, hi, n)
		vals := make([]cty.Value, len(points))
		for i, p := range points {
			vals[i] = cty.NumberFloatVal(p)
		}
		return cty.ListVal(vals), nil
	},
})

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{"linspace": linspaceFunc},
	}
}

func parseProblem(path string) (*problemFile, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", path, diags)
	}
	var pf problemFile
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &pf); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %w", path, diags)
	}
	return &pf, nil
}

// buildModel turns a parsed problem into a model. Blocks without an explicit
// method use defaultMethod; incremental blocks without a partition fall back
// to the single segment spanning the variable bounds.
func buildModel(pf *problemFile, defaultMethod string) (*mip.Model, error) {
	m := mip.NewModel(mip.WithName(pf.Name))

	vars := make(map[string]mip.Variable, len(pf.Variables))
	bounds := make(map[string]mip.Interval, len(pf.Variables))
	for _, vb := range pf.Variables {
		if _, dup := vars[vb.Name]; dup {
			return nil, fmt.Errorf("variable %q declared twice", vb.Name)
		}
		b := mip.Interval{Lower: vb.Lower, Upper: vb.Upper}
		vars[vb.Name] = m.NewContinuous(vb.Name, b)
		bounds[vb.Name] = b
	}

	for _, bb := range pf.Bilinears {
		x, ok := vars[bb.X]
		if !ok {
			return nil, fmt.Errorf("bilinear %q: unknown variable %q", bb.Name, bb.X)
		}
		y, ok := vars[bb.Y]
		if !ok {
			return nil, fmt.Errorf("bilinear %q: unknown variable %q", bb.Name, bb.Y)
		}
		if _, dup := vars[bb.Name]; dup {
			return nil, fmt.Errorf("bilinear %q: name already declared", bb.Name)
		}
		z := m.NewContinuous(bb.Name, mip.AllReals())
		vars[bb.Name] = z

		method := bb.Method
		if method == "" {
			method = defaultMethod
		}
		switch method {
		case "mccormick":
			if _, err := relax.NewMcCormick(m, relax.WithPrefix(bb.Name+"_")).Build(x, y, z); err != nil {
				return nil, fmt.Errorf("bilinear %q: %w", bb.Name, err)
			}
		case "incremental":
			xp := bb.XPartition
			if len(xp) == 0 {
				xp = []float64{bounds[bb.X].Lower, bounds[bb.X].Upper}
			}
			yp := bb.YPartition
			if len(yp) == 0 {
				yp = []float64{bounds[bb.Y].Lower, bounds[bb.Y].Upper}
			}
			if _, err := relax.NewIncremental(m, relax.WithPrefix(bb.Name+"_")).Build(x, y, z, xp, yp); err != nil {
				return nil, fmt.Errorf("bilinear %q: %w", bb.Name, err)
			}
		default:
			return nil, fmt.Errorf("bilinear %q: unknown method %q, want one of %s",
				bb.Name, method, strings.Join(milpkit.Methods(), ", "))
		}
	}

	return m, nil
}
