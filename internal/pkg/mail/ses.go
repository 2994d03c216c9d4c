package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// ErrSESRegionRequired is returned when no region is configured.
var ErrSESRegionRequired = errors.New("mail: ses region is required")

// SESConfig configures the Amazon SES implementation. Empty keys fall back
// to the default AWS credential chain.
type SESConfig struct {
	Region           string
	AccessKey        string
	SecretKey        string
	ConfigurationSet string
	From             string
}

// SES sends messages through the SES v2 API. Messages without attachments
// use simple content; anything else is sent as a raw MIME document.
type SES struct {
	client *sesv2.Client
	cfg    SESConfig
	now    func() time.Time
}

// NewSES constructs an SES sender.
func NewSES(ctx context.Context, cfg SESConfig) (*SES, error) {
	if cfg.Region == "" {
		return nil, ErrSESRegionRequired
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: ses load config: %w", err)
	}

	return &SES{client: sesv2.NewFromConfig(awsCfg), cfg: cfg, now: time.Now}, nil
}

// Send delivers the message through SES.
func (s *SES) Send(ctx context.Context, msg Message) error {
	from, err := senderOrDefault(msg.From, s.cfg.From)
	if err != nil {
		return err
	}
	msg.From = from

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses:  SplitAddresses(msg.To...),
			CcAddresses:  SplitAddresses(msg.Cc...),
			BccAddresses: SplitAddresses(msg.Bcc...),
		},
	}
	if len(input.Destination.ToAddresses)+len(input.Destination.CcAddresses)+len(input.Destination.BccAddresses) == 0 {
		return ErrNoRecipients
	}
	if s.cfg.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(s.cfg.ConfigurationSet)
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	if len(msg.Attachments) > 0 || len(msg.Headers) > 0 {
		raw, err := BuildMIME(msg, s.now())
		if err != nil {
			return fmt.Errorf("mail: build message: %w", err)
		}
		input.Content = &types.EmailContent{Raw: &types.RawMessage{Data: raw}}
	} else {
		body := &types.Body{}
		if msg.HTMLBody != "" {
			body.Html = &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")}
		}
		if msg.TextBody != "" {
			body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String("UTF-8")}
		}
		input.Content = &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		}
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("mail: ses send: %w", err)
	}
	return nil
}

// Close implements io.Closer for interface compatibility.
func (s *SES) Close() error {
	return nil
}
