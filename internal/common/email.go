package common

// EmailSender delivers a single message. Receipt notification is the only
// caller; implementations may drop messages silently when disabled.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Message is one captured email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail collects sent messages for assertions in tests.
type InMemoryEmail struct {
	Outbox []Message
}

// Send appends the message to the outbox.
func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Message{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender discards every message.
type NopEmailSender struct{}

func (NopEmailSender) Send(string, string, string) error { return nil }
