// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"complaint-router/internal/common/errors"
	"complaint-router/internal/common/logger"
	"complaint-router/internal/common/metrics"
	"complaint-router/internal/models"
)

// Publisher is the subset of the SNS API used here.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	client Publisher
}

func NewSNSClient(ctx context.Context, region string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg)}, nil
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input, optFns...)
}

// CriticalAlert is the message body published for a critical complaint. It
// carries routing data only, never the complaint text.
type CriticalAlert struct {
	RequestID  string    `json:"requestId"`
	Category   string    `json:"category"`
	Priority   string    `json:"priority"`
	Department string    `json:"department"`
	Contact    string    `json:"contact"`
	District   string    `json:"district,omitempty"`
	DistrictDM string    `json:"districtDm,omitempty"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

// AlertNotifier publishes critical complaint alerts to an SNS topic.
type AlertNotifier struct {
	publisher Publisher
	topicARN  string
	logger    logger.Logger
}

func NewAlertNotifier(publisher Publisher, topicARN string, log logger.Logger) *AlertNotifier {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &AlertNotifier{
		publisher: publisher,
		topicARN:  topicARN,
		logger:    logger.ForComponent(log, "sns-alerts"),
	}
}

// NotifyCritical publishes an alert when the analysis is critical and is a
// no-op otherwise.
func (n *AlertNotifier) NotifyCritical(ctx context.Context, requestID string, a *models.ComplaintAnalysis) error {
	if a == nil || a.Priority != models.PriorityCritical {
		return nil
	}

	body, err := json.Marshal(CriticalAlert{
		RequestID:  requestID,
		Category:   string(a.Category),
		Priority:   string(a.Priority),
		Department: a.Department,
		Contact:    a.DepartmentInfo.Contact,
		District:   a.District,
		DistrictDM: a.DepartmentInfo.DistrictDM,
		Source:     string(a.Source),
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return errors.NewInternalError(err)
	}

	_, err = n.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(n.topicARN),
		Subject:  awssdk.String(fmt.Sprintf("Critical %s complaint", a.Category)),
		Message:  awssdk.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"category": {DataType: awssdk.String("String"), StringValue: awssdk.String(string(a.Category))},
			"priority": {DataType: awssdk.String("String"), StringValue: awssdk.String(string(a.Priority))},
		},
	})
	if err != nil {
		metrics.AlertsPublished.WithLabelValues("failure").Inc()
		n.logger.Error("Failed to publish critical alert", map[string]interface{}{
			"request_id": requestID,
			"error":      err,
		})
		return errors.NewNotificationError("sns", err)
	}

	metrics.AlertsPublished.WithLabelValues("success").Inc()
	n.logger.Info("Critical alert published", map[string]interface{}{
		"request_id": requestID,
		"category":   a.Category,
	})
	return nil
}
