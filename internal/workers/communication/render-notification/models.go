// internal/workers/communication/render-notification/models.go
package rendernotification

type Input struct {
	TemplateID string                 `json:"templateId"`
	Data       map[string]interface{} `json:"data"`
}

type Output struct {
	Success    bool   `json:"success"`
	TemplateID string `json:"templateId"`
	Channel    string `json:"channel"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	HTML       string `json:"html,omitempty"`
	RenderedAt string `json:"renderedAt"`
}

// TemplateDefinition is one entry of the notification registry file.
// Subject, Body and HTML may carry {{dot.path}} placeholders resolved
// against the input data; Schema validates that data first.
type TemplateDefinition struct {
	ID      string                 `json:"id"`
	Channel string                 `json:"channel"`
	Subject string                 `json:"subject"`
	Body    string                 `json:"body"`
	HTML    string                 `json:"html,omitempty"`
	Schema  map[string]interface{} `json:"schema"`
	Version string                 `json:"version"`
}
