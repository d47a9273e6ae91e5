package model

// DecisionKind discriminates the decision sum types.
type DecisionKind int

const (
	KindNone DecisionKind = iota
	KindSignal
	KindBlocked
	KindSkip
)

func (k DecisionKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSignal:
		return "signal"
	case KindBlocked:
		return "blocked"
	case KindSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// EntryDecision is exactly one of: nothing, an EntrySignal, or a Blocked
// record. The zero value is "nothing".
type EntryDecision struct {
	kind    DecisionKind
	signal  EntrySignal
	blocked Blocked
}

func NoEntry() EntryDecision {
	return EntryDecision{kind: KindNone}
}

func Enter(s EntrySignal) EntryDecision {
	return EntryDecision{kind: KindSignal, signal: s}
}

func Block(b Blocked) EntryDecision {
	return EntryDecision{kind: KindBlocked, blocked: b}
}

// Kind is KindNone, KindSignal or KindBlocked.
func (d EntryDecision) Kind() DecisionKind { return d.kind }

func (d EntryDecision) IsNone() bool { return d.kind == KindNone }

func (d EntryDecision) Signal() (EntrySignal, bool) {
	return d.signal, d.kind == KindSignal
}

func (d EntryDecision) Blocked() (Blocked, bool) {
	return d.blocked, d.kind == KindBlocked
}

// ExitDecision is exactly one of: nothing, an ExitSignal, or a Skip record.
// The zero value is "nothing".
type ExitDecision struct {
	kind   DecisionKind
	signal ExitSignal
	skip   Skip
}

func NoExit() ExitDecision {
	return ExitDecision{kind: KindNone}
}

func Exit(s ExitSignal) ExitDecision {
	return ExitDecision{kind: KindSignal, signal: s}
}

func SkipExit(s Skip) ExitDecision {
	return ExitDecision{kind: KindSkip, skip: s}
}

// Kind is KindNone, KindSignal or KindSkip.
func (d ExitDecision) Kind() DecisionKind { return d.kind }

func (d ExitDecision) IsNone() bool { return d.kind == KindNone }

func (d ExitDecision) Signal() (ExitSignal, bool) {
	return d.signal, d.kind == KindSignal
}

func (d ExitDecision) Skip() (Skip, bool) {
	return d.skip, d.kind == KindSkip
}
