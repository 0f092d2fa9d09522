package model

// AssistantRequest is the JSON body accepted by the assistant proxy.
type AssistantRequest struct {
	Messages []Message `json:"messages"`
	PageURL  string    `json:"pageUrl,omitempty"`
}

// AssistantResponse is the JSON body returned by the assistant proxy.
// LeadSent is nil when no lead was found in the turn.
type AssistantResponse struct {
	OK        bool   `json:"ok"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
	Lead      *Lead  `json:"lead,omitempty"`
	LeadSent  *bool  `json:"leadSent,omitempty"`
	LeadError string `json:"leadError,omitempty"`
}
