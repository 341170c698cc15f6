package oracle

// Intent is one call site's classification policy: the system prompt and
// sampling settings. The prompt text is opaque to this package.
type Intent struct {
	Name        string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Call-site names.
const (
	IntentRouting  = "routing"
	IntentTriage   = "triage"
	IntentUpdate   = "update"
	IntentDispatch = "dispatch"
)

// RoutingIntent classifies inbound messages into routes.
func RoutingIntent(prompt string) Intent {
	return Intent{Name: IntentRouting, Prompt: prompt, MaxTokens: 1500, Temperature: 0.1}
}

// TriageIntent analyses a new brief.
func TriageIntent(prompt string) Intent {
	return Intent{Name: IntentTriage, Prompt: prompt, MaxTokens: 2000, Temperature: 0.2}
}

// UpdateIntent extracts a status update and project field changes.
func UpdateIntent(prompt string) Intent {
	return Intent{Name: IntentUpdate, Prompt: prompt, MaxTokens: 1500, Temperature: 0.2}
}

// DispatchIntent summarises work sent to a client.
func DispatchIntent(prompt string) Intent {
	return Intent{Name: IntentDispatch, Prompt: prompt, MaxTokens: 1000, Temperature: 0.2}
}
