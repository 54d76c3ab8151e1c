package syncer

// Decision selects how to handle a watchlist at or above the large-watchlist
// threshold.
type Decision int

const (
	// DecideFull fetches the whole watchlist.
	DecideFull Decision = iota
	// DecideLimit fetches only the configured number of titles.
	DecideLimit
	// DecideSkip keeps whatever is already cached and fetches nothing.
	DecideSkip
)

// Decider chooses a Decision when a watchlist crosses the threshold. The
// interactive frontend prompts; non-interactive runs use a fixed policy.
type Decider interface {
	Decide(username string, count int) Decision
}

// Fixed is a Decider that always returns the same decision.
type Fixed Decision

func (f Fixed) Decide(string, int) Decision {
	return Decision(f)
}
