package queue

// Task types understood by the mail worker.
const (
	TaskContactEmail  = "contact_email"
	TaskWelcomeEmail  = "welcome_email"
	TaskRecoveryEmail = "recovery_email"
	TaskCleanup       = "cleanup"
)

// Task is one unit of deferred work. Fields irrelevant to a given type
// stay empty; the stream encoding drops them.
type Task struct {
	Type     string `json:"type"`
	Email    string `json:"email,omitempty"`
	Token    string `json:"token,omitempty"`
	First    string `json:"first,omitempty"`
	Last     string `json:"last,omitempty"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message,omitempty"`
}
