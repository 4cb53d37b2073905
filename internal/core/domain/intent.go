package domain

// IntentType classifies a query into one of three pipeline branches.
type IntentType string

// Available intent types.
const (
	// IntentRAG means the query needs document retrieval.
	IntentRAG IntentType = "RAG"

	// IntentChitchat means the query is small talk or a greeting.
	IntentChitchat IntentType = "CHITCHAT"

	// IntentOutOfScope means the query is outside the service domain.
	IntentOutOfScope IntentType = "OUT_OF_SCOPE"
)

// IsValid returns true if the intent type is recognised.
func (t IntentType) IsValid() bool {
	switch t {
	case IntentRAG, IntentChitchat, IntentOutOfScope:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t IntentType) String() string {
	return string(t)
}

// Intent is the result of classifying one query. It is transient,
// produced per query and persisted only as an audit annotation on the
// resulting message.
type Intent struct {
	// Type drives branching in the chat service.
	Type IntentType `json:"type"`

	// Confidence is the classifier's certainty in [0,1].
	Confidence float64 `json:"confidence"`

	// Reason is a human-readable classification rationale, kept for audit.
	Reason string `json:"reason"`
}

// NeedsRetrieval returns true if the query should go through search.
func (i Intent) NeedsRetrieval() bool {
	return i.Type == IntentRAG
}
