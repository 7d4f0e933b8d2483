package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/wolfman30/clinic-scheduler/internal/bookings"
)

// EventBookingConfirmed is the only event type published today.
const EventBookingConfirmed = "booking.confirmed"

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// SQSQueue wraps a single SQS queue URL.
type SQSQueue struct {
	client   sqsAPI
	queueURL string
}

func NewSQSQueue(client sqsAPI, queueURL string) *SQSQueue {
	if client == nil {
		panic("notify: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("notify: SQS queueURL cannot be empty")
	}
	return &SQSQueue{client: client, queueURL: queueURL}
}

func (q *SQSQueue) Send(ctx context.Context, body, eventType string) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(body),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(eventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: failed to send SQS message: %w", err)
	}
	return nil
}

func (q *SQSQueue) Receive(ctx context.Context, maxMessages, waitSeconds int) ([]queueMessage, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: int32(maxMessages),
		WaitTimeSeconds:     int32(waitSeconds),
	})
	if err != nil {
		return nil, fmt.Errorf("notify: failed to receive SQS messages: %w", err)
	}
	messages := make([]queueMessage, 0, len(out.Messages))
	for _, msg := range out.Messages {
		messages = append(messages, queueMessage{
			ID:            aws.ToString(msg.MessageId),
			Body:          aws.ToString(msg.Body),
			ReceiptHandle: aws.ToString(msg.ReceiptHandle),
		})
	}
	return messages, nil
}

func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	if receiptHandle == "" {
		return nil
	}
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("notify: failed to delete SQS message: %w", err)
	}
	return nil
}

type bookingEvent struct {
	Type        string           `json:"type"`
	Booking     bookings.Booking `json:"booking"`
	PublishedAt time.Time        `json:"published_at"`
}

// QueueNotifier hands confirmations to the notify worker instead of emailing inline.
type QueueNotifier struct {
	queue *SQSQueue
	now   func() time.Time
}

func NewQueueNotifier(queue *SQSQueue) *QueueNotifier {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	return &QueueNotifier{queue: queue, now: time.Now}
}

func (n *QueueNotifier) BookingConfirmed(ctx context.Context, b bookings.Booking) error {
	body, err := json.Marshal(bookingEvent{
		Type:        EventBookingConfirmed,
		Booking:     b,
		PublishedAt: n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("notify: marshal booking event: %w", err)
	}
	return n.queue.Send(ctx, string(body), EventBookingConfirmed)
}
