package entity

import (
	"time"
)

// MailboxItem is an email stored by the file transport.
type MailboxItem struct {
	Filename  string    `json:"fileName"`
	Date      time.Time `json:"date"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
}

// MailboxEmail is a stored email with its rendered body.
type MailboxEmail struct {
	MailboxItem
	Body string `json:"body"`
}

// HandlerInfo describes a registered handler for the dev mailbox.
type HandlerInfo struct {
	Type        string   `json:"type"`
	EventType   string   `json:"eventType"`
	Description string   `json:"description"`
	Languages   []string `json:"languages"`
}
