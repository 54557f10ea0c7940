package status

var transitions = map[Group][]Group{
	Draft:                {InReview},
	InReview:             {SubmittedToCommittee, Returned, Rejected},
	Returned:             {InReview},
	SubmittedToCommittee: {Approved, Returned, Rejected},
	Approved:             {Closed},
}

// CanTransition reports whether a case in fromRaw may move to toRaw. Both are
// classified first. Rejected and Closed are terminal; Other is neither a
// valid source nor a valid target.
func CanTransition(fromRaw, toRaw string) bool {
	from, to := Classify(fromRaw), Classify(toRaw)
	for _, g := range transitions[from] {
		if g == to {
			return true
		}
	}
	return false
}

// Next returns the groups reachable from raw in one step.
func Next(raw string) []Group {
	next := transitions[Classify(raw)]
	out := make([]Group, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no transition leaves raw's group.
func IsTerminal(raw string) bool {
	return len(transitions[Classify(raw)]) == 0
}

// RequiresDecision reports whether moving to toRaw is a committee decision.
func RequiresDecision(fromRaw, toRaw string) bool {
	if Classify(fromRaw) != SubmittedToCommittee {
		return false
	}
	switch Classify(toRaw) {
	case Approved, Rejected, Returned:
		return true
	}
	return false
}
