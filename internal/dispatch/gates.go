package dispatch

import "strings"

// quebecAreaCodes are the area-code prefixes blocked under Bill 96 french
// language requirements. Matching happens before any record lookup.
var quebecAreaCodes = []string{"514", "438", "450", "579", "418", "581", "819", "873"}

// shaftTerms is the fixed denylist of regulated product/financial terms
// (SHAFT: sex, hate, alcohol, firearms, tobacco, plus lending).
var shaftTerms = []string{"cbd", "vape", "loan", "gun"}

// closingPhrases end a conversation without a reply.
var closingPhrases = map[string]struct{}{
	"thanks": {},
	"ok":     {},
	"got it": {},
	"bye":    {},
}

// CheckGeography matches the sender number against the blocked area codes.
// A "+91" country prefix is stripped before comparison.
// TODO: confirm with product whether the prefix should be "+1" for NANP
// numbers; "+91" is carried over from the rule as originally deployed.
func CheckGeography(from string) (Outcome, bool) {
	number := strings.TrimPrefix(strings.TrimSpace(from), "+91")
	for _, code := range quebecAreaCodes {
		if strings.HasPrefix(number, code) {
			return OutcomeBlockedQuebec, true
		}
	}
	return OutcomeOK, false
}

// CheckContent applies the SHAFT denylist and the wrong-number short-circuit.
// Both are case-insensitive substring matches over the raw body.
func CheckContent(body string) (Outcome, bool) {
	lowered := strings.ToLower(body)
	for _, term := range shaftTerms {
		if strings.Contains(lowered, term) {
			return OutcomeBlockedSHAFT, true
		}
	}
	if strings.Contains(lowered, "wrong number") {
		return OutcomeBlockedWrongNumber, true
	}
	return OutcomeOK, false
}

// IsClosingPhrase reports whether the body, trimmed and lower-cased, exactly
// matches one of the short disengagement phrases.
func IsClosingPhrase(body string) bool {
	_, ok := closingPhrases[strings.ToLower(strings.TrimSpace(body))]
	return ok
}

// MatchSafetyKeyword returns the first configured safety keyword contained in
// the body, case-insensitively.
func MatchSafetyKeyword(keywords []string, body string) (string, bool) {
	lowered := strings.ToLower(body)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}
