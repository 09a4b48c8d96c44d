package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/config"
	"github.com/sahilravan/Enhanced-VM-Health-Check/pkg/logger"
)

// snsPublisher is the subset of the SNS client used for alerts.
type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSTransport publishes alerts to an SNS topic.
type SNSTransport struct {
	topicARN string
	client   snsPublisher
	log      *slog.Logger
}

// NewSNSTransport creates an SNS transport from cfg. Credentials come from
// the static keys when both are set, otherwise from the default AWS chain
// (optionally using a named profile).
func NewSNSTransport(ctx context.Context, cfg config.SNSConfig, log *slog.Logger) (*SNSTransport, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.HasStaticCredentials() {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newSNSTransport(cfg.TopicARN, client, log), nil
}

func newSNSTransport(topicARN string, client snsPublisher, log *slog.Logger) *SNSTransport {
	return &SNSTransport{
		topicARN: topicARN,
		client:   client,
		log:      log.With(logger.Scope("notify.sns")),
	}
}

func (t *SNSTransport) Name() string { return "sns" }

// Send publishes msg with a "severity" message attribute for subscription filters.
func (t *SNSTransport) Send(ctx context.Context, msg Message) error {
	out, err := t.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(t.topicARN),
		Subject:  aws.String(msg.Subject),
		Message:  aws.String(msg.Body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"severity": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.Severity.String()),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish to %s: %w", t.topicARN, err)
	}

	t.log.Debug("published alert",
		slog.String("topic_arn", t.topicARN),
		slog.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
