// Package workflow holds the in-memory workflow model: the Task/Parallel/Map
// state sum type, the Workflow tree built from it, and the per-function task
// index used by the optimizer packages.
package workflow

// StateType identifies which of the three supported state shapes a State is.
type StateType string

const (
	StateTypeTask     StateType = "Task"
	StateTypeParallel StateType = "Parallel"
	StateTypeMap      StateType = "Map"
)

// State is the common surface every workflow state exposes. Time and Cost
// always reflect the state's *current* memory configuration; Task exposes
// additional what-if variants used by the escalator.
type State interface {
	StateName() string
	Type() StateType
	Time() float64
	Cost() float64
}

// Task is a single function invocation step.
type Task struct {
	Name         string
	FunctionName string
	Input        string

	// ParamFunction maps a candidate memory size (MB) to an execution time
	// (ms), fitted by the Sampler during per-function optimization. Nil
	// until optimization has run for this task's function.
	ParamFunction func(memoryMB int) float64

	MemorySize        int
	InitialMemorySize int
	MaxMemorySize     int
}

func (t *Task) StateName() string { return t.Name }
func (t *Task) Type() StateType   { return StateTypeTask }

// ExecutionTime returns the fitted duration at an arbitrary memory size,
// without mutating MemorySize. Used by the escalator to evaluate increments
// before committing to them.
func (t *Task) ExecutionTime(memoryMB int) float64 {
	if t.ParamFunction == nil {
		return 0
	}
	return t.ParamFunction(memoryMB)
}

func (t *Task) Time() float64 {
	return t.ExecutionTime(t.MemorySize)
}

// CostAt returns memory (MB) times duration (ms) at the given memory size,
// the unit the spec's per-function cost accumulator and escalator ratios
// are expressed in.
func (t *Task) CostAt(memoryMB int) float64 {
	return t.ExecutionTime(memoryMB) * float64(memoryMB)
}

// Cost is CostAt the task's current MemorySize.
func (t *Task) Cost() float64 {
	return t.CostAt(t.MemorySize)
}

// ResetMemorySize restores the task's memory to its initial (cost-minimizing)
// value, undoing any escalation.
func (t *Task) ResetMemorySize() {
	t.MemorySize = t.InitialMemorySize
}

// Parallel runs each branch workflow against the same input; its time is the
// slowest branch and its cost the sum of all branches.
type Parallel struct {
	Name     string
	Branches []*Workflow
}

func (p *Parallel) StateName() string { return p.Name }
func (p *Parallel) Type() StateType   { return StateTypeParallel }

func (p *Parallel) Time() float64 {
	var max float64
	for i, b := range p.Branches {
		t := b.Time()
		if i == 0 || t > max {
			max = t
		}
	}
	return max
}

func (p *Parallel) Cost() float64 {
	var sum float64
	for _, b := range p.Branches {
		sum += b.Cost()
	}
	return sum
}

// Map runs the iterator sub-workflow once per item extracted from ItemsPath;
// like Parallel its time is the slowest iteration and its cost the sum.
// IteratorDef is retained so the Propagator can expand Iterations for a
// concrete input; Iterations is populated by propagation, not by Build.
type Map struct {
	Name        string
	IteratorDef *Definition
	ItemsPath   string
	Iterations  []*Workflow
}

func (m *Map) StateName() string { return m.Name }
func (m *Map) Type() StateType   { return StateTypeMap }

func (m *Map) Time() float64 {
	var max float64
	for i, it := range m.Iterations {
		t := it.Time()
		if i == 0 || t > max {
			max = t
		}
	}
	return max
}

func (m *Map) Cost() float64 {
	var sum float64
	for _, it := range m.Iterations {
		sum += it.Cost()
	}
	return sum
}

// Workflow is an ordered sequence of states executed one after another.
type Workflow struct {
	States []State
}

func (w *Workflow) Time() float64 {
	var sum float64
	for _, s := range w.States {
		sum += s.Time()
	}
	return sum
}

func (w *Workflow) Cost() float64 {
	var sum float64
	for _, s := range w.States {
		sum += s.Cost()
	}
	return sum
}

// ResetMemorySizes walks the whole tree and resets every task's memory to
// its initial, cost-minimizing value.
func (w *Workflow) ResetMemorySizes() {
	for _, s := range w.States {
		switch st := s.(type) {
		case *Task:
			st.ResetMemorySize()
		case *Parallel:
			for _, b := range st.Branches {
				b.ResetMemorySizes()
			}
		case *Map:
			for _, it := range st.Iterations {
				it.ResetMemorySizes()
			}
		}
	}
}
