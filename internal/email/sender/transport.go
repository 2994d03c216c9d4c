package sender

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shandysiswandi/mailbite/internal/email/entity"
)

// ErrUnknownTransport is returned for a transport type this package does not
// define.
var ErrUnknownTransport = errors.New("sender: unknown transport")

// Transport selects how an email is delivered. The set of implementations
// is closed: only this package can add variants.
type Transport interface {
	transport()
}

// NoneTransport drops every email.
type NoneTransport struct{}

// FileTransport writes each email into OutputPath, as a JSON record or, with
// Raw, as an RFC 5322 .eml file.
type FileTransport struct {
	OutputPath string
	Raw        bool
}

// SendmailTransport pipes the message to a local sendmail binary.
type SendmailTransport struct {
	Path         string
	NewlineStyle string
}

type SMTPTransport struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Secure    bool
	IgnoreTLS bool
	Name      string
}

// TestingTransport hands the final email to OnSend instead of delivering it.
type TestingTransport struct {
	OnSend func(email entity.EmailDetails)
}

// SESTransport sends through Amazon SES. Empty keys use the default AWS
// credential chain.
type SESTransport struct {
	Region           string
	AccessKey        string
	SecretKey        string
	ConfigurationSet string
}

type ResendTransport struct {
	APIKey string
}

func (NoneTransport) transport()     {}
func (FileTransport) transport()     {}
func (SendmailTransport) transport() {}
func (SMTPTransport) transport()     {}
func (TestingTransport) transport()  {}
func (SESTransport) transport()      {}
func (ResendTransport) transport()   {}

// Transport type names used in configuration.
const (
	TypeNone     = "none"
	TypeFile     = "file"
	TypeSendmail = "sendmail"
	TypeSMTP     = "smtp"
	TypeTesting  = "testing"
	TypeSES      = "ses"
	TypeResend   = "resend"
)

// Config is the flat configuration form of a Transport.
type Config struct {
	Type string

	OutputPath string
	Raw        bool

	Path         string
	NewlineStyle string

	Host      string
	Port      int
	Username  string
	Password  string
	Secure    bool
	IgnoreTLS bool
	Name      string

	Region           string
	AccessKey        string
	SecretKey        string
	ConfigurationSet string

	APIKey string
}

// Transport converts the configuration into its transport variant. The
// testing transport cannot be configured; it only exists in code.
func (c Config) Transport() (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case TypeNone, "":
		return NoneTransport{}, nil
	case TypeFile:
		if c.OutputPath == "" {
			return nil, errors.New("sender: file transport requires an output path")
		}
		return FileTransport{OutputPath: c.OutputPath, Raw: c.Raw}, nil
	case TypeSendmail:
		return SendmailTransport{Path: c.Path, NewlineStyle: c.NewlineStyle}, nil
	case TypeSMTP:
		return SMTPTransport{
			Host:      c.Host,
			Port:      c.Port,
			Username:  c.Username,
			Password:  c.Password,
			Secure:    c.Secure,
			IgnoreTLS: c.IgnoreTLS,
			Name:      c.Name,
		}, nil
	case TypeSES:
		return SESTransport{
			Region:           c.Region,
			AccessKey:        c.AccessKey,
			SecretKey:        c.SecretKey,
			ConfigurationSet: c.ConfigurationSet,
		}, nil
	case TypeResend:
		return ResendTransport{APIKey: c.APIKey}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, c.Type)
	}
}
