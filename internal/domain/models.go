package domain

// Folder and File mirror the drive backend's objects. Identity is owned
// by the backend; both are always resolved by name, never cached.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type File struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
}

// ErrorBody is the backend's error envelope, also used for validation
// and resolution failures so callers see one shape.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AgentRequest is the gateway's /agent body. Content is a pointer so a
// present-but-empty value can be told apart from a missing one.
type AgentRequest struct {
	Intent   string  `json:"intent"`
	Folder   string  `json:"folder"`
	FileName string  `json:"file_name"`
	Content  *string `json:"content"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	OK       bool   `json:"ok"`
	Type     string `json:"type"`
	Response string `json:"response"`
}

type WebhookResponse struct {
	OK            bool    `json:"ok"`
	Message       string  `json:"message"`
	SessionID     string  `json:"session_id"`
	GeminiSummary *string `json:"gemini_summary"`
}

// Turn is one role-tagged unit of a model conversation payload. Role
// follows the model API's conventions ("user" or "model").
type Turn struct {
	Role string
	Text string
}
