package dialogue

import "strings"

// affirmatives is the closed set of confirmation words. Anything outside it
// counts as a decline, never an error.
var affirmatives = map[string]bool{
	"yes":     true,
	"y":       true,
	"yeah":    true,
	"confirm": true,
	"ok":      true,
}

// isAffirmative reports whether any word of the normalized utterance is in
// the affirmative set.
func isAffirmative(norm string) bool {
	for _, tok := range strings.Fields(norm) {
		if affirmatives[strings.Trim(tok, ".,!?")] {
			return true
		}
	}
	return false
}

// isRestart matches the global reset command.
func isRestart(norm string) bool {
	if strings.Contains(norm, "start over") || strings.Contains(norm, "restart") {
		return true
	}
	for _, tok := range strings.Fields(norm) {
		if tok == "reset" {
			return true
		}
	}
	return false
}

// isRepeat matches the global repeat command, honoured while awaiting a slot
// pick.
func isRepeat(norm string) bool {
	return strings.Contains(norm, "repeat") || strings.Contains(norm, "say again") || strings.Contains(norm, "say that again")
}

// digitsOf strips everything but digits.
func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validPhoneDigits accepts 10 to 15 digits, covering UK national numbers and
// E.164 internationals.
func validPhoneDigits(digits string) bool {
	return len(digits) >= 10 && len(digits) <= 15
}

// pickDigit finds the first standalone digit in the normalized utterance and
// accepts it when it falls within [1, max]. Out-of-range or absent digits
// report ok=false so the caller re-prompts.
func pickDigit(norm string, max int) (int, bool) {
	for _, tok := range strings.Fields(norm) {
		tok = strings.Trim(tok, ".,!?")
		if len(tok) == 1 && tok[0] >= '0' && tok[0] <= '9' {
			n := int(tok[0] - '0')
			return n, n >= 1 && n <= max
		}
	}
	return 0, false
}
