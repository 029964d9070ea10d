package domain

// StatusKind classifies a StatusMessage.
type StatusKind string

const (
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// StatusMessage is a transient notification shown after an action.
type StatusMessage struct {
	Text string
	Kind StatusKind
}
