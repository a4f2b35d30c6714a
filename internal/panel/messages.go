package panel

// Message types exchanged with the preview surface. The wire format is JSON
// with a type discriminator; unused fields are omitted.
const (
	MsgUpdateComponent       = "updateComponent"
	MsgUpdateLoadingState    = "updateLoadingState"
	MsgError                 = "lwrError"
	MsgClearError            = "clearLwrError"
	MsgComponentLoadComplete = "componentLoadComplete"
	MsgToggleAutoOpen        = "toggleAutoOpen"
	MsgForceReload           = "forceReload"
)

// Message is a single panel protocol frame, outbound or inbound.
type Message struct {
	Type          string `json:"type"`
	ComponentName string `json:"componentName,omitempty"`
	IsLoading     bool   `json:"isLoading,omitempty"`
	Text          string `json:"text,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	ErrorStack    string `json:"errorStack,omitempty"`
	Enabled       bool   `json:"enabled,omitempty"`
	Success       bool   `json:"success,omitempty"`
}

// UpdateComponent builds the frame that switches the rendered component.
func UpdateComponent(name string) Message {
	return Message{Type: MsgUpdateComponent, ComponentName: name}
}

// LoadingState builds the frame that toggles the loading view.
func LoadingState(isLoading bool, text string) Message {
	return Message{Type: MsgUpdateLoadingState, IsLoading: isLoading, Text: text}
}

// ErrorOverlay builds the frame that shows the error overlay.
func ErrorOverlay(message, stack string) Message {
	return Message{Type: MsgError, ErrorMessage: message, ErrorStack: stack}
}

// ClearErrorOverlay builds the frame that dismisses the error overlay.
func ClearErrorOverlay() Message {
	return Message{Type: MsgClearError}
}
