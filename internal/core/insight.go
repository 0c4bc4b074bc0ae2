package core

// Insight is a short advisory message shown on the dashboard.
type Insight struct {
	Level   string `json:"level"` // info, success, warning
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}
