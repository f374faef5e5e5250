package relax

import (
	"fmt"

	"github.com/milpkit/milpkit/mip"
)

// FormulationInfo records the variables and constraints a builder added to
// the host model, grouped under documented names. Groups keep insertion
// order and names are unique within one instance.
type FormulationInfo struct {
	varNames []string
	vars     map[string][]mip.Variable
	conNames []string
	cons     map[string][]mip.Constraint
}

// NewFormulationInfo returns an empty record.
func NewFormulationInfo() *FormulationInfo {
	return &FormulationInfo{
		vars: make(map[string][]mip.Variable),
		cons: make(map[string][]mip.Constraint),
	}
}

// AddVariables appends a named variable group. Adding a name twice is a
// builder bug and panics.
func (fi *FormulationInfo) AddVariables(name string, vs ...mip.Variable) {
	if _, ok := fi.vars[name]; ok {
		panic(fmt.Sprintf("relax: duplicate variable group %q", name))
	}
	fi.varNames = append(fi.varNames, name)
	fi.vars[name] = append([]mip.Variable(nil), vs...)
}

// AddConstraints appends a named constraint group. Adding a name twice is a
// builder bug and panics.
func (fi *FormulationInfo) AddConstraints(name string, cs ...mip.Constraint) {
	if _, ok := fi.cons[name]; ok {
		panic(fmt.Sprintf("relax: duplicate constraint group %q", name))
	}
	fi.conNames = append(fi.conNames, name)
	fi.cons[name] = append([]mip.Constraint(nil), cs...)
}

// Variables returns a copy of the named variable group, or nil when the
// group does not exist.
func (fi *FormulationInfo) Variables(name string) []mip.Variable {
	vs, ok := fi.vars[name]
	if !ok {
		return nil
	}
	return append([]mip.Variable(nil), vs...)
}

// Constraints returns a copy of the named constraint group, or nil when the
// group does not exist.
func (fi *FormulationInfo) Constraints(name string) []mip.Constraint {
	cs, ok := fi.cons[name]
	if !ok {
		return nil
	}
	return append([]mip.Constraint(nil), cs...)
}

// VariableNames returns the group names in insertion order.
func (fi *FormulationInfo) VariableNames() []string {
	return append([]string(nil), fi.varNames...)
}

// ConstraintNames returns the group names in insertion order.
func (fi *FormulationInfo) ConstraintNames() []string {
	return append([]string(nil), fi.conNames...)
}

// AllVariables returns every recorded variable in insertion order, for
// lifecycle sweeps such as removing a formulation from its model.
func (fi *FormulationInfo) AllVariables() []mip.Variable {
	var out []mip.Variable
	for _, name := range fi.varNames {
		out = append(out, fi.vars[name]...)
	}
	return out
}

// AllConstraints returns every recorded constraint in insertion order.
func (fi *FormulationInfo) AllConstraints() []mip.Constraint {
	var out []mip.Constraint
	for _, name := range fi.conNames {
		out = append(out, fi.cons[name]...)
	}
	return out
}

// NumVariables returns the total number of recorded variables.
func (fi *FormulationInfo) NumVariables() int {
	n := 0
	for _, vs := range fi.vars {
		n += len(vs)
	}
	return n
}

// NumConstraints returns the total number of recorded constraints.
func (fi *FormulationInfo) NumConstraints() int {
	n := 0
	for _, cs := range fi.cons {
		n += len(cs)
	}
	return n
}
