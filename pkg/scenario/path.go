package scenario

// PathDefinition is an authored branch unlocked by a decision option: extra
// alerts, follow-up decisions, and usually a terminal ending.
type PathDefinition struct {
	Alerts       []RawEvent             `json:"alerts,omitempty"`
	SubDecisions map[string]SubDecision `json:"sub_decisions,omitempty"`
	Ending       *Ending                `json:"ending,omitempty"`
}

// SubDecision is a follow-up decision inside a path. It is always treated
// as a decision point regardless of whether a decision_required block is
// spelled out.
type SubDecision struct {
	Time          string           `json:"time,omitempty"`
	Title         string           `json:"title,omitempty"`
	Description   string           `json:"description,omitempty"`
	Severity      string           `json:"severity,omitempty"`
	RecipientRole RoleList         `json:"recipient_role,omitempty"`
	Options       []DecisionOption `json:"options,omitempty"`
}

// Ending terminates a branch with a qualitative outcome tag.
type Ending struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Time        string `json:"time,omitempty"`
}

// Known ending outcome tags. Authored content outside this set is kept
// as-is by the engine and rendered verbatim.
const (
	EndingGood       = "good_ending"
	EndingBad        = "bad_ending"
	EndingModerate   = "moderate_ending"
	EndingHighImpact = "high_impact_ending"
	EndingUnknown    = "unknown"
)

// EndingTypes lists the recognized ending tags, for validation.
var EndingTypes = []string{EndingGood, EndingBad, EndingModerate, EndingHighImpact, EndingUnknown}
