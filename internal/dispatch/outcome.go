// Package dispatch implements the inbound SMS processing pipeline: an ordered
// gate chain that applies jurisdictional blocks, human-takeover pauses,
// safety-keyword interception, prompt construction, model invocation, and
// durable logging for each webhook request.
package dispatch

// Outcome is the terminal result of a pipeline run. The string values are the
// operational tokens returned to the webhook caller; they are never shown to
// the end customer.
type Outcome string

const (
	OutcomeOK                 Outcome = "OK"
	OutcomeBlockedQuebec      Outcome = "Blocked: Quebec"
	OutcomeBlockedSHAFT       Outcome = "Blocked: SHAFT"
	OutcomeBlockedWrongNumber Outcome = "Blocked: Wrong Number"
	OutcomeSilent             Outcome = "Silent"
	OutcomePaused             Outcome = "Paused: Human Intervention"
	OutcomeSafetyStop         Outcome = "Safety Stop"
)

// Terminal reports whether the outcome ends the pipeline before the AI stage.
func (o Outcome) Terminal() bool {
	return o != OutcomeOK
}
