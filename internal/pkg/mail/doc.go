// Package mail delivers email messages through a provider-agnostic Mail
// interface.
//
// Message is plain data. Implementations cover SMTP, a local sendmail
// binary, Amazon SES and the Resend API. BuildMIME renders a Message as an
// RFC 5322 document for the transports that take raw bytes.
package mail
