// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/mailer"
)

// SESAPI is the part of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer delivers messages through Amazon SES.
type SESMailer struct {
	client SESAPI
}

func NewSESMailer(ctx context.Context, region string) (*SESMailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESMailer{client: ses.NewFromConfig(cfg)}, nil
}

func NewSESMailerWithClient(client SESAPI) *SESMailer {
	return &SESMailer{client: client}
}

func (s *SESMailer) Name() string {
	return "ses"
}

func (s *SESMailer) Send(ctx context.Context, msg mailer.Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}
	_, to, err := msg.Addresses()
	if err != nil {
		return err
	}

	_, err = s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      awssdk.String(msg.From),
		Destination: &types.Destination{ToAddresses: []string{to.Address}},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(msg.Subject), Charset: awssdk.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: awssdk.String(msg.HTMLBody), Charset: awssdk.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}
