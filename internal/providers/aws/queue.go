package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// maxDelaySeconds is the largest per-message delay SQS accepts.
const maxDelaySeconds = 900

// Message is one received queue message.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// QueueService sends and receives JSON messages on a single SQS queue.
type QueueService struct {
	client   SQSClientAPI
	queueURL string
}

// NewQueueServiceWithClient creates a new QueueService with a provided client
func NewQueueServiceWithClient(client SQSClientAPI, queueURL string) *QueueService {
	return &QueueService{client: client, queueURL: queueURL}
}

// Enqueue marshals payload to JSON and sends it, asking SQS to hold the
// message back for delay (whole seconds, capped at 15 minutes).
func (s *QueueService) Enqueue(ctx context.Context, payload any, delay time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling queue message: %w", err)
	}

	secs := int32(delay / time.Second)
	if secs < 0 {
		secs = 0
	}
	if secs > maxDelaySeconds {
		secs = maxDelaySeconds
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(s.queueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: secs,
	})
	if err != nil {
		return ClassifyAWSError(err, SQSResourceType, s.queueURL)
	}
	return nil
}

// Receive long-polls the queue for up to maxMessages messages.
func (s *QueueService) Receive(ctx context.Context, maxMessages int32, wait time.Duration) ([]Message, error) {
	resp, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.queueURL),
		MaxNumberOfMessages: maxMessages,
		WaitTimeSeconds:     int32(wait / time.Second),
	})
	if err != nil {
		return nil, ClassifyAWSError(err, SQSResourceType, s.queueURL)
	}

	messages := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, Message{
			ID:            aws.ToString(m.MessageId),
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return messages, nil
}

// Delete acknowledges a processed message.
func (s *QueueService) Delete(ctx context.Context, receiptHandle string) error {
	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return ClassifyAWSError(err, SQSResourceType, s.queueURL)
	}
	return nil
}
