package persona

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Personas are the fixed organizational roles a player can embody during
// a drill.
const (
	CISO       = "CISO"
	SOCLead    = "SOC_LEAD"
	SOCAnalyst = "SOC_ANALYST"
	ITHead     = "IT_HEAD"
	PRHead     = "PR_HEAD"
	CEO        = "CEO"
	LegalHead  = "LEGAL_HEAD"
)

// All returns the persona roster in briefing order.
func All() []string {
	return []string{CISO, SOCLead, SOCAnalyst, ITHead, PRHead, CEO, LegalHead}
}

// Canonical normalizes a role string for comparison. Authored scenarios
// write roles as "SOC Analyst", "soc-analyst", or "SOC_ANALYST"
// interchangeably; all three canonicalize to SOC_ANALYST.
func Canonical(role string) string {
	role = strings.TrimSpace(role)
	role = strings.ReplaceAll(role, "-", "_")
	role = strings.ReplaceAll(role, " ", "_")
	for strings.Contains(role, "__") {
		role = strings.ReplaceAll(role, "__", "_")
	}
	return strings.ToUpper(role)
}

// Valid reports whether role matches a known persona after normalization.
func Valid(role string) bool {
	c := Canonical(role)
	for _, p := range All() {
		if c == p {
			return true
		}
	}
	return false
}

var titleCaser = cases.Title(language.English)

// Display renders a persona constant for humans: SOC_LEAD -> "Soc Lead",
// except the all-caps acronym roles which stay as-is.
func Display(role string) string {
	c := Canonical(role)
	switch c {
	case CISO, CEO:
		return c
	}
	return titleCaser.String(strings.ToLower(strings.ReplaceAll(c, "_", " ")))
}

// IsRecipient reports whether a player holding the given persona is an
// intended recipient of an event addressed to recipients. An empty
// recipient list means any persona may act.
func IsRecipient(recipients []string, role string) bool {
	if len(recipients) == 0 {
		return true
	}
	c := Canonical(role)
	for _, r := range recipients {
		if Canonical(r) == c {
			return true
		}
	}
	return false
}
