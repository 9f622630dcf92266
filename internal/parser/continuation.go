package parser

// ContinuationState is the state of a multi-line concept accumulation.
type ContinuationState int

const (
	// SeekingStart waits for a transaction-start line.
	SeekingStart ContinuationState = iota
	// Accumulating appends continuation lines to the current concept.
	Accumulating
	// Done means a stop condition fired.
	Done
)

func (s ContinuationState) String() string {
	switch s {
	case SeekingStart:
		return "seeking-start"
	case Accumulating:
		return "accumulating"
	case Done:
		return "done"
	}
	return "unknown"
}

// LineAction is what a guard decides for one candidate line.
type LineAction int

const (
	// Append adds the line and keeps accumulating.
	Append LineAction = iota
	// Skip drops the line and keeps accumulating.
	Skip
	// Stop ends accumulation before the line; it is left for the caller.
	Stop
	// AppendAndStop adds the line and ends accumulation.
	AppendAndStop
)

// Guard is a named transition rule. Check returns ok=false when the rule
// does not apply to the line.
type Guard[T any] struct {
	Name  string
	Check func(line T) (action LineAction, ok bool)
}

// ContinuationRules configures a Continuation. Guards are evaluated in
// order and the first applicable one decides; a line no guard claims is
// appended. Full is consulted after every append.
type ContinuationRules[T any] struct {
	Guards   []Guard[T]
	Full     func(accumulated []T) bool
	MaxLines int
}

// Continuation gathers the lines that follow a transaction start.
type Continuation[T any] struct {
	rules     ContinuationRules[T]
	state     ContinuationState
	lines     []T
	stoppedBy string
}

// NewContinuation returns a machine in SeekingStart.
func NewContinuation[T any](rules ContinuationRules[T]) *Continuation[T] {
	return &Continuation[T]{rules: rules}
}

// Begin moves to Accumulating, discarding any previous lines.
func (c *Continuation[T]) Begin() {
	c.state = Accumulating
	c.lines = nil
	c.stoppedBy = ""
}

// State returns the current state.
func (c *Continuation[T]) State() ContinuationState { return c.state }

// Lines returns the accumulated lines.
func (c *Continuation[T]) Lines() []T { return c.lines }

// StoppedBy names the guard or limit that ended accumulation.
func (c *Continuation[T]) StoppedBy() string { return c.stoppedBy }

// Feed offers one line. consumed is false when the line was rejected by a
// Stop guard and must be processed again by the caller.
func (c *Continuation[T]) Feed(line T) (consumed bool) {
	if c.state != Accumulating {
		return false
	}

	action := Append
	name := ""
	for _, g := range c.rules.Guards {
		if a, ok := g.Check(line); ok {
			action, name = a, g.Name
			break
		}
	}

	switch action {
	case Skip:
		return true
	case Stop:
		c.finish(name)
		return false
	case AppendAndStop:
		c.lines = append(c.lines, line)
		c.finish(name)
		return true
	}

	c.lines = append(c.lines, line)
	switch {
	case c.rules.Full != nil && c.rules.Full(c.lines):
		c.finish("full")
	case c.rules.MaxLines > 0 && len(c.lines) >= c.rules.MaxLines:
		c.finish("max-lines")
	}
	return true
}

func (c *Continuation[T]) finish(reason string) {
	c.state = Done
	c.stoppedBy = reason
}

// Collect runs a fresh accumulation over lines[from:] and returns the
// accumulated lines plus the index of the first line not consumed.
func (c *Continuation[T]) Collect(lines []T, from int) ([]T, int) {
	c.Begin()
	i := from
	for ; i < len(lines); i++ {
		if !c.Feed(lines[i]) {
			break
		}
		if c.state == Done {
			i++
			break
		}
	}
	if c.state == Accumulating {
		c.finish("end-of-input")
	}
	return c.lines, i
}
