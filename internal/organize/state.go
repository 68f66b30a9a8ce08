package organize

// State tracks the lifecycle of a plan through the engine.
type State string

const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StatePlanned   State = "planned"
	StateApplying  State = "applying"
	StateApplied   State = "applied"
	StateFailed    State = "failed"
)

// Terminal reports whether the state ends a plan instance. A new plan
// restarts the machine at StateAnalyzing.
func (s State) Terminal() bool {
	return s == StateApplied || s == StateFailed
}

var stateTransitions = map[State][]State{
	StateIdle:      {StateAnalyzing, StateApplying},
	StateAnalyzing: {StatePlanned, StateFailed},
	StatePlanned:   {StateApplying, StateFailed},
	StateApplying:  {StateApplied, StateFailed},
	StateApplied:   {StateAnalyzing, StateApplying},
	StateFailed:    {StateAnalyzing, StateApplying},
}

// CanTransition reports whether moving from s to next is a legal step.
func (s State) CanTransition(next State) bool {
	for _, allowed := range stateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
