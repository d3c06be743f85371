package poller

// Outcome is what happened to one record during a tick.
type Outcome string

const (
	// OutcomeSkipped covers not-due records, unmet price targets and failed quotes.
	OutcomeSkipped   Outcome = "skipped"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeExecuted  Outcome = "executed"
	OutcomeFailed    Outcome = "failed"
	OutcomeExpired   Outcome = "expired"
	OutcomeContended Outcome = "contended"
	OutcomePanicked  Outcome = "panicked"
)
