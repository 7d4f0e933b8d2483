package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-scheduler/internal/bookings"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// fakeSQS is an in-memory queue: sent messages become receivable, deletes are recorded.
type fakeSQS struct {
	mu         sync.Mutex
	pending    []sqstypes.Message
	sent       []*sqs.SendMessageInput
	deleted    []string
	receiveErr error
	seq        int
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.sent = append(f.sent, in)
	id := aws.String(fmt.Sprintf("msg-%d", f.seq))
	f.pending = append(f.pending, sqstypes.Message{MessageId: id, Body: in.MessageBody, ReceiptHandle: id})
	return &sqs.SendMessageOutput{MessageId: id}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	out := f.pending
	f.pending = nil
	return &sqs.ReceiveMessageOutput{Messages: out}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) push(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, sqstypes.Message{MessageId: aws.String("raw"), Body: aws.String(body), ReceiptHandle: aws.String("raw")})
}

type countingNotifier struct {
	mu   sync.Mutex
	seen []bookings.Booking
	err  error
}

func (c *countingNotifier) BookingConfirmed(ctx context.Context, b bookings.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, b)
	return c.err
}

func sampleQueueBooking() bookings.Booking {
	return bookings.Booking{
		ID:               "APPT-2030-06-15-001",
		Date:             "2030-06-15",
		Time:             "09:00",
		DurationMinutes:  30,
		AppointmentType:  "consultation",
		Patient:          bookings.Patient{Name: "Ada", Email: "ada@example.com", Phone: "555-0100"},
		ConfirmationCode: "CNF00001",
	}
}

func TestQueueNotifierPublishesEvent(t *testing.T) {
	fake := &fakeSQS{}
	notifier := NewQueueNotifier(NewSQSQueue(fake, "https://sqs.local/clinic-notify"))
	notifier.now = func() time.Time { return time.Date(2030, 6, 10, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, notifier.BookingConfirmed(context.Background(), sampleQueueBooking()))
	require.Len(t, fake.sent, 1)
	assert.Equal(t, "https://sqs.local/clinic-notify", *fake.sent[0].QueueUrl)
	assert.Equal(t, EventBookingConfirmed, *fake.sent[0].MessageAttributes["event_type"].StringValue)

	var event bookingEvent
	require.NoError(t, json.Unmarshal([]byte(*fake.sent[0].MessageBody), &event))
	assert.Equal(t, EventBookingConfirmed, event.Type)
	assert.Equal(t, "CNF00001", event.Booking.ConfirmationCode)
}

func TestWorkerSendsThenDeletes(t *testing.T) {
	fake := &fakeSQS{}
	queue := NewSQSQueue(fake, "q")
	require.NoError(t, NewQueueNotifier(queue).BookingConfirmed(context.Background(), sampleQueueBooking()))

	target := &countingNotifier{}
	sent, err := NewWorker(queue, target, logging.New("error")).ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, target.seen, 1)
	assert.Equal(t, "APPT-2030-06-15-001", target.seen[0].ID)
	assert.Len(t, fake.deleted, 1)
}

func TestWorkerKeepsMessageWhenSendFails(t *testing.T) {
	fake := &fakeSQS{}
	queue := NewSQSQueue(fake, "q")
	require.NoError(t, NewQueueNotifier(queue).BookingConfirmed(context.Background(), sampleQueueBooking()))

	sent, err := NewWorker(queue, &countingNotifier{err: errors.New("smtp down")}, logging.New("error")).ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, fake.deleted)
}

func TestWorkerDropsMalformedMessages(t *testing.T) {
	fake := &fakeSQS{}
	fake.push("{not json")
	fake.push(`{"type": "booking.cancelled"}`)
	target := &countingNotifier{}

	sent, err := NewWorker(NewSQSQueue(fake, "q"), target, logging.New("error")).ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, target.seen)
	assert.Len(t, fake.deleted, 2)
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	fake := &fakeSQS{receiveErr: errors.New("throttled")}
	w := NewWorker(NewSQSQueue(fake, "q"), &countingNotifier{}, logging.New("error"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
