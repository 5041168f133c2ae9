package model

// Envelope carries the identity and context fields of one inbound event.
type Envelope struct {
	Name        string
	Email       string
	Role        string
	InterviewID string
}
