package dispatch

import (
	"fmt"
	"strings"
	"time"
)

// legalRules is the BC-mandated phrasing block appended to every system
// instruction. These are prompt constraints only: the model's output is not
// verified against them before sending, which is a known limitation.
const legalRules = `
LEGAL RULES (BC LAWS):
1. LIEN ACT: Say "Visit Concluded", never "Job Complete".
2. NEGLIGENCE: Say "Request Sent", never "Help is on the way".
3. INSURANCE: Say "Technician", never "Employee".
4. PAYMENT: If Invoice > $10k, mention "10% Statutory Holdback".
`

// afterHoursClause is the pricing disclosure appended outside business hours.
const afterHoursClause = "PRICING: Mention 'After-Hours Rates' apply. "

// ClientLocation returns the *time.Location for a client timezone string,
// falling back to UTC when the zone is empty or invalid.
func ClientLocation(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsAfterHours classifies a local time as outside business hours: past 6pm or
// on a weekend.
func IsAfterHours(local time.Time) bool {
	if local.Hour() > 18 {
		return true
	}
	wd := local.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// PromptContext carries the live client context woven into the instruction.
type PromptContext struct {
	Template string
	City     string
	Now      time.Time
}

// BuildSystemInstruction assembles the AI system instruction from the
// industry template plus locality, time-of-day pricing, and legal phrasing.
func BuildSystemInstruction(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(pc.Template)
	b.WriteString(fmt.Sprintf("\nCONTEXT: Client is in %s, BC. Time: %s. ", pc.City, pc.Now.Format("03:04 PM")))
	if IsAfterHours(pc.Now) {
		b.WriteString(afterHoursClause)
	}
	b.WriteString(legalRules)
	return b.String()
}
