package mip

import (
	"fmt"
	"strconv"

	"github.com/bits-and-blooms/bitset"
	"github.com/milpkit/milpkit/logger"
	"github.com/milpkit/milpkit/profile"
)

// Constraint is an opaque handle to a model row.
type Constraint struct {
	index uint32
}

// Index returns the row index of c in its model.
func (c Constraint) Index() int {
	return int(c.index)
}

// Model is a mixed integer linear program under construction. Columns hold
// the variables, rows hold the constraints in compressed sparse row form.
type Model struct {
	name string

	// columns
	colName  []string
	colLower []float64
	colUpper []float64
	colKind  []Kind
	deadCols *bitset.BitSet

	// rows; rowStart has one extra entry so that row i spans
	// colIdx[rowStart[i]:rowStart[i+1]]
	rowName  []string
	rowSense []Sense
	rowRHS   []float64
	rowStart []uint32
	colIdx   []uint32
	coeff    []float64
	deadRows *bitset.BitSet

	obj    LinearExpression
	objDir Direction
	hasObj bool
}

// Option defines configuration options for NewModel.
type Option func(*Model)

// WithName sets the model name, used by the LP writer and log entries.
//
// Defaults to "mip".
func WithName(name string) Option {
	return func(m *Model) {
		m.name = name
	}
}

// WithCapacity preallocates storage for the expected number of variables and
// constraints.
func WithCapacity(nbVariables, nbConstraints int) Option {
	return func(m *Model) {
		m.colName = make([]string, 0, nbVariables)
		m.colLower = make([]float64, 0, nbVariables)
		m.colUpper = make([]float64, 0, nbVariables)
		m.colKind = make([]Kind, 0, nbVariables)
		m.rowName = make([]string, 0, nbConstraints)
		m.rowSense = make([]Sense, 0, nbConstraints)
		m.rowRHS = make([]float64, 0, nbConstraints)
		m.rowStart = make([]uint32, 1, nbConstraints+1)
	}
}

// NewModel returns an empty model.
func NewModel(opts ...Option) *Model {
	m := &Model{
		name:     "mip",
		rowStart: []uint32{0},
		deadCols: bitset.New(64),
		deadRows: bitset.New(64),
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.rowStart) == 0 {
		m.rowStart = append(m.rowStart, 0)
	}
	return m
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// NewContinuous declares a continuous variable with the given bounds.
// It panics if the interval is malformed; use SetBounds for fallible updates.
func (m *Model) NewContinuous(name string, b Interval) Variable {
	return m.newVariable(name, b, Continuous)
}

// NewInteger declares an integer variable with the given bounds.
func (m *Model) NewInteger(name string, b Interval) Variable {
	return m.newVariable(name, b, Integer)
}

// NewBinary declares a 0/1 variable.
func (m *Model) NewBinary(name string) Variable {
	return m.newVariable(name, Interval{Lower: 0, Upper: 1}, Binary)
}

func (m *Model) newVariable(name string, b Interval, k Kind) Variable {
	if !b.wellFormed() {
		panic(fmt.Sprintf("mip: variable %q: malformed bounds %s", name, b))
	}
	idx := uint32(len(m.colName))
	if name == "" {
		name = "x" + strconv.FormatUint(uint64(idx), 10)
	}
	m.colName = append(m.colName, name)
	m.colLower = append(m.colLower, b.Lower)
	m.colUpper = append(m.colUpper, b.Upper)
	m.colKind = append(m.colKind, k)
	profile.RecordVariable()
	return Variable{index: idx}
}

// AddLinear appends the constraint "e  sense  rhs" to the model and returns
// its handle. Duplicate terms are merged and zero coefficients dropped; the
// call panics if e references an unknown or removed variable.
func (m *Model) AddLinear(name string, e LinearExpression, sense Sense, rhs float64) Constraint {
	idx := uint32(len(m.rowName))
	if name == "" {
		name = "c" + strconv.FormatUint(uint64(idx), 10)
	}

	start := len(m.colIdx)
	pos := make(map[uint32]int, len(e))
	for _, t := range e {
		if !m.variableAlive(t.Var.index) {
			panic(fmt.Sprintf("mip: constraint %q references unknown or removed variable #%d", name, t.Var.index))
		}
		if p, ok := pos[t.Var.index]; ok {
			m.coeff[p] += t.Coeff
			continue
		}
		pos[t.Var.index] = len(m.colIdx)
		m.colIdx = append(m.colIdx, t.Var.index)
		m.coeff = append(m.coeff, t.Coeff)
	}

	// terms may have cancelled to zero; squeeze them out of the new range
	w := start
	for r := start; r < len(m.colIdx); r++ {
		if m.coeff[r] == 0 {
			continue
		}
		m.colIdx[w] = m.colIdx[r]
		m.coeff[w] = m.coeff[r]
		w++
	}
	m.colIdx = m.colIdx[:w]
	m.coeff = m.coeff[:w]

	m.rowName = append(m.rowName, name)
	m.rowSense = append(m.rowSense, sense)
	m.rowRHS = append(m.rowRHS, rhs)
	m.rowStart = append(m.rowStart, uint32(len(m.colIdx)))
	profile.RecordConstraint()
	return Constraint{index: idx}
}

func (m *Model) variableAlive(i uint32) bool {
	return int(i) < len(m.colName) && !m.deadCols.Test(uint(i))
}

func (m *Model) constraintAlive(i uint32) bool {
	return int(i) < len(m.rowName) && !m.deadRows.Test(uint(i))
}

// Bounds returns the current bounds of v.
func (m *Model) Bounds(v Variable) (Interval, error) {
	if !m.variableAlive(v.index) {
		return Interval{}, fmt.Errorf("%w: #%d", ErrUnknownVariable, v.index)
	}
	return Interval{Lower: m.colLower[v.index], Upper: m.colUpper[v.index]}, nil
}

// SetBounds replaces the bounds of v.
func (m *Model) SetBounds(v Variable, b Interval) error {
	if !m.variableAlive(v.index) {
		return fmt.Errorf("%w: #%d", ErrUnknownVariable, v.index)
	}
	if !b.wellFormed() {
		return fmt.Errorf("%w: %s", ErrBadBounds, b)
	}
	m.colLower[v.index] = b.Lower
	m.colUpper[v.index] = b.Upper
	return nil
}

// KindOf returns the domain kind of v.
func (m *Model) KindOf(v Variable) (Kind, error) {
	if !m.variableAlive(v.index) {
		return 0, fmt.Errorf("%w: #%d", ErrUnknownVariable, v.index)
	}
	return m.colKind[v.index], nil
}

// VariableName resolves v to its name. Removed variables keep their name;
// out of range handles resolve to a placeholder.
func (m *Model) VariableName(v Variable) string {
	if int(v.index) >= len(m.colName) {
		return "x?" + strconv.FormatUint(uint64(v.index), 10)
	}
	return m.colName[v.index]
}

// ConstraintName resolves c to its name.
func (m *Model) ConstraintName(c Constraint) string {
	if int(c.index) >= len(m.rowName) {
		return "c?" + strconv.FormatUint(uint64(c.index), 10)
	}
	return m.rowName[c.index]
}

// Row returns a copy of the constraint expression together with its sense
// and right hand side.
func (m *Model) Row(c Constraint) (LinearExpression, Sense, float64, error) {
	if !m.constraintAlive(c.index) {
		return nil, 0, 0, fmt.Errorf("%w: #%d", ErrUnknownConstraint, c.index)
	}
	return m.rowExpression(int(c.index)), m.rowSense[c.index], m.rowRHS[c.index], nil
}

func (m *Model) rowExpression(i int) LinearExpression {
	lo, hi := m.rowStart[i], m.rowStart[i+1]
	e := make(LinearExpression, 0, hi-lo)
	for k := lo; k < hi; k++ {
		e = append(e, Term{Var: Variable{index: m.colIdx[k]}, Coeff: m.coeff[k]})
	}
	return e
}

// VariableAt returns the handle of the i-th column if it is live.
func (m *Model) VariableAt(i int) (Variable, error) {
	if i < 0 || !m.variableAlive(uint32(i)) {
		return Variable{}, fmt.Errorf("%w: #%d", ErrUnknownVariable, i)
	}
	return Variable{index: uint32(i)}, nil
}

// ConstraintAt returns the handle of the i-th row if it is live.
func (m *Model) ConstraintAt(i int) (Constraint, error) {
	if i < 0 || !m.constraintAlive(uint32(i)) {
		return Constraint{}, fmt.Errorf("%w: #%d", ErrUnknownConstraint, i)
	}
	return Constraint{index: uint32(i)}, nil
}

// RemoveConstraint tombstones a row. The storage is reclaimed by Compact.
func (m *Model) RemoveConstraint(c Constraint) error {
	if !m.constraintAlive(c.index) {
		return fmt.Errorf("%w: #%d", ErrUnknownConstraint, c.index)
	}
	m.deadRows.Set(uint(c.index))
	return nil
}

// RemoveVariable tombstones a column. It fails with ErrVariableInUse while
// a live row or the objective still references the variable.
func (m *Model) RemoveVariable(v Variable) error {
	if !m.variableAlive(v.index) {
		return fmt.Errorf("%w: #%d", ErrUnknownVariable, v.index)
	}
	for ri := 0; ri < len(m.rowName); ri++ {
		if m.deadRows.Test(uint(ri)) {
			continue
		}
		for k := m.rowStart[ri]; k < m.rowStart[ri+1]; k++ {
			if m.colIdx[k] == v.index {
				return fmt.Errorf("%w: %q used by constraint %q", ErrVariableInUse, m.colName[v.index], m.rowName[ri])
			}
		}
	}
	if m.hasObj {
		for _, t := range m.obj {
			if t.Var.index == v.index {
				return fmt.Errorf("%w: %q used by the objective", ErrVariableInUse, m.colName[v.index])
			}
		}
	}
	m.deadCols.Set(uint(v.index))
	return nil
}

// SetObjective replaces the model objective. Like AddLinear it merges
// duplicate terms, drops zeros and panics on unknown variables.
func (m *Model) SetObjective(e LinearExpression, dir Direction) {
	merged := make(LinearExpression, 0, len(e))
	pos := make(map[uint32]int, len(e))
	for _, t := range e {
		if !m.variableAlive(t.Var.index) {
			panic(fmt.Sprintf("mip: objective references unknown or removed variable #%d", t.Var.index))
		}
		if p, ok := pos[t.Var.index]; ok {
			merged[p].Coeff += t.Coeff
			continue
		}
		pos[t.Var.index] = len(merged)
		merged = append(merged, t)
	}
	w := 0
	for _, t := range merged {
		if t.Coeff == 0 {
			continue
		}
		merged[w] = t
		w++
	}
	m.obj = merged[:w]
	m.objDir = dir
	m.hasObj = true
}

// ClearObjective removes the objective.
func (m *Model) ClearObjective() {
	m.obj = nil
	m.hasObj = false
}

// Objective returns a copy of the objective, if one is set.
func (m *Model) Objective() (LinearExpression, Direction, bool) {
	if !m.hasObj {
		return nil, Minimize, false
	}
	return m.obj.Clone(), m.objDir, true
}

// NumVariables returns the number of live variables.
func (m *Model) NumVariables() int {
	return len(m.colName) - int(m.deadCols.Count())
}

// NumConstraints returns the number of live constraints.
func (m *Model) NumConstraints() int {
	return len(m.rowName) - int(m.deadRows.Count())
}

// NumCols returns the number of allocated columns, tombstones included.
// Evaluation points are indexed by column, so their length must equal
// NumCols.
func (m *Model) NumCols() int {
	return len(m.colName)
}

// NumRows returns the number of allocated rows, tombstones included.
func (m *Model) NumRows() int {
	return len(m.rowName)
}

// ForEachVariable calls fn for every live variable in column order.
func (m *Model) ForEachVariable(fn func(v Variable, name string, b Interval, k Kind)) {
	for i := range m.colName {
		if m.deadCols.Test(uint(i)) {
			continue
		}
		fn(Variable{index: uint32(i)}, m.colName[i], Interval{Lower: m.colLower[i], Upper: m.colUpper[i]}, m.colKind[i])
	}
}

// ForEachConstraint calls fn for every live constraint in row order. The
// expression is a copy and may be retained.
func (m *Model) ForEachConstraint(fn func(c Constraint, name string, e LinearExpression, sense Sense, rhs float64)) {
	for i := range m.rowName {
		if m.deadRows.Test(uint(i)) {
			continue
		}
		fn(Constraint{index: uint32(i)}, m.rowName[i], m.rowExpression(i), m.rowSense[i], m.rowRHS[i])
	}
}

// Compact reclaims tombstoned rows and columns. All previously issued
// handles become stale; the returned slices map old indices to new ones,
// with -1 marking removed entries.
func (m *Model) Compact() (varMap, conMap []int32) {
	varMap = make([]int32, len(m.colName))
	next := 0
	for i := range m.colName {
		if m.deadCols.Test(uint(i)) {
			varMap[i] = -1
			continue
		}
		varMap[i] = int32(next)
		if i != next {
			m.colName[next] = m.colName[i]
			m.colLower[next] = m.colLower[i]
			m.colUpper[next] = m.colUpper[i]
			m.colKind[next] = m.colKind[i]
		}
		next++
	}
	removedCols := len(m.colName) - next
	m.colName = m.colName[:next]
	m.colLower = m.colLower[:next]
	m.colUpper = m.colUpper[:next]
	m.colKind = m.colKind[:next]

	conMap = make([]int32, len(m.rowName))
	nextRow := 0
	nextNZ := uint32(0)
	for i := range m.rowName {
		if m.deadRows.Test(uint(i)) {
			conMap[i] = -1
			continue
		}
		conMap[i] = int32(nextRow)
		lo, hi := m.rowStart[i], m.rowStart[i+1]
		m.rowStart[nextRow] = nextNZ
		for k := lo; k < hi; k++ {
			// live rows only reference live columns: RemoveVariable refuses
			// to tombstone a referenced one
			m.colIdx[nextNZ] = uint32(varMap[m.colIdx[k]])
			m.coeff[nextNZ] = m.coeff[k]
			nextNZ++
		}
		if i != nextRow {
			m.rowName[nextRow] = m.rowName[i]
			m.rowSense[nextRow] = m.rowSense[i]
			m.rowRHS[nextRow] = m.rowRHS[i]
		}
		nextRow++
	}
	removedRows := len(m.rowName) - nextRow
	m.rowStart[nextRow] = nextNZ
	m.rowStart = m.rowStart[:nextRow+1]
	m.rowName = m.rowName[:nextRow]
	m.rowSense = m.rowSense[:nextRow]
	m.rowRHS = m.rowRHS[:nextRow]
	m.colIdx = m.colIdx[:nextNZ]
	m.coeff = m.coeff[:nextNZ]

	for i := range m.obj {
		m.obj[i].Var.index = uint32(varMap[m.obj[i].Var.index])
	}

	m.deadCols = bitset.New(uint(next))
	m.deadRows = bitset.New(uint(nextRow))

	log := logger.Logger()
	log.Debug().Str("model", m.name).Int("removedVariables", removedCols).Int("removedConstraints", removedRows).Msg("compacted model")
	return varMap, conMap
}
