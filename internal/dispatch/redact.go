package dispatch

import "regexp"

// RedactedPlaceholder replaces payment-card-like digit runs in user text.
const RedactedPlaceholder = "[REDACTED_PCI]"

// bodyRedactLimit bounds how much of the inbound body reaches the model.
// Content past the boundary is dropped, not redacted.
const bodyRedactLimit = 500

// pciRe matches runs of 13-16 digits allowing embedded spaces and hyphens,
// to catch formatted card numbers like "4111 1111 1111 1111".
var pciRe = regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`)

// RedactPCI replaces payment-card-like digit sequences with the placeholder.
// The operation is idempotent: the placeholder contains no digits.
func RedactPCI(text string) string {
	return pciRe.ReplaceAllString(text, RedactedPlaceholder)
}

// SafeBody truncates the body to the redaction boundary and redacts it.
// The boundary counts characters, not bytes, so a multibyte rune is never
// split.
func SafeBody(body string) string {
	if runes := []rune(body); len(runes) > bodyRedactLimit {
		body = string(runes[:bodyRedactLimit])
	}
	return RedactPCI(body)
}
