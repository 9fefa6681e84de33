package path_plan

// stateSelector implements the hysteretic far/target/omni state machine.
//
// The approach state (far or target) follows the destination distance and
// keeps evolving while omni is active, so leaving omni falls back to it.
type stateSelector struct {
	approach State
	omni     bool
}

func newStateSelector() *stateSelector {
	return &stateSelector{approach: StateFar}
}

// current returns the state selected by the last update.
func (s *stateSelector) current() State {
	if s.omni {
		return StateOmni
	}
	return s.approach
}

// update advances both criteria and returns the resulting state. forceOmni
// pins the result to omni without touching the hysteresis memory.
func (s *stateSelector) update(destDist, obstacleDist float64, forceOmni bool, cfg PlannerConfig) State {
	switch s.approach {
	case StateFar:
		if destDist < cfg.TargetSwitchDistance {
			s.approach = StateTarget
		}
	case StateTarget:
		if destDist > cfg.TargetSwitchDistance+cfg.TargetSwitchHysteresis {
			s.approach = StateFar
		}
	}

	if s.omni {
		if obstacleDist > cfg.OmniSwitchDistance+cfg.OmniSwitchHysteresis {
			s.omni = false
		}
	} else if obstacleDist < cfg.OmniSwitchDistance {
		s.omni = true
	}

	if forceOmni {
		return StateOmni
	}
	return s.current()
}

// reset returns the machine to its initial state.
func (s *stateSelector) reset() {
	s.approach = StateFar
	s.omni = false
}
