package chat

// HistoryEntry is one turn of server-side conversation history.
type HistoryEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ChatResponse is the structured body shared by the analyze, chat, history and
// reset endpoints. Success=false with a Message is a guardrail rejection: the
// server was reached and declined, which is distinct from a transport failure.
type ChatResponse struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message,omitempty"`
	ModelOutput string         `json:"model_output,omitempty"`
	History     []HistoryEntry `json:"history,omitempty"`
	SessionID   string         `json:"session_id,omitempty"`
}

type HealthStatus struct {
	Status string `json:"status"`
	Model  string `json:"model,omitempty"`
}
