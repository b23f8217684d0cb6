package api

import "time"

// SettingsResponse is the current session configuration.
type SettingsResponse struct {
	SystemPrompt     string `json:"system_prompt"`
	Voice            string `json:"voice"`
	ResponseWindowMs int64  `json:"response_window_ms"`
	StoryLevel       int    `json:"story_level"`
	Audience         string `json:"audience"`
}

// UpdateSettingsRequest is a partial settings update; nil fields are
// left unchanged.
type UpdateSettingsRequest struct {
	SystemPrompt     *string `json:"system_prompt,omitempty"`
	Voice            *string `json:"voice,omitempty"`
	ResponseWindowMs *int64  `json:"response_window_ms,omitempty"`
	StoryLevel       *int    `json:"story_level,omitempty"`
	Audience         *string `json:"audience,omitempty"`
}

// ViewerTokenResponse carries a fresh viewer credential for /ws.
type ViewerTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ViewerID  string    `json:"viewer_id"`
}

// SessionStateResponse reports whether a story session is running.
type SessionStateResponse struct {
	Running bool `json:"running"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
