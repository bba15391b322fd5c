// internal/common/aws/sns.go
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/mailer"
)

// snsSubjectLimit is the maximum subject length accepted by Publish.
const snsSubjectLimit = 100

// SNSAPI is the part of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSMailer publishes messages to a topic whose email subscriptions reach
// the owner. The topic decides who receives the message; the sender and
// recipient are carried as message attributes only.
type SNSMailer struct {
	client   SNSAPI
	topicARN string
}

func NewSNSMailer(ctx context.Context, region, topicARN string) (*SNSMailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSMailer{client: sns.NewFromConfig(cfg), topicARN: topicARN}, nil
}

func NewSNSMailerWithClient(client SNSAPI, topicARN string) *SNSMailer {
	return &SNSMailer{client: client, topicARN: topicARN}
}

func (s *SNSMailer) Name() string {
	return "sns"
}

func (s *SNSMailer) Send(ctx context.Context, msg mailer.Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publishing: %w", err)
	}

	subject := []rune(msg.Subject)
	if len(subject) > snsSubjectLimit {
		subject = subject[:snsSubjectLimit]
	}

	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(s.topicARN),
		Subject:  awssdk.String(string(subject)),
		Message:  awssdk.String(msg.HTMLBody),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"sender":    stringAttribute(msg.From),
			"recipient": stringAttribute(msg.To),
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

func stringAttribute(value string) types.MessageAttributeValue {
	return types.MessageAttributeValue{
		DataType:    awssdk.String("String"),
		StringValue: awssdk.String(value),
	}
}
