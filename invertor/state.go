package invertor

// State is the lifecycle position of an Invertor.
type State int

const (
	// Unconfigured: no measurement has been supplied yet.
	Unconfigured State = iota
	// Configured: measurement and config are set; no current solution.
	Configured
	// Solving: a solve is in flight.
	Solving
	// Solved: the last solve succeeded and its solution is published.
	Solved
	// Failed: the last solve returned an error (see LastError).
	Failed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Solving:
		return "solving"
	case Solved:
		return "solved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
