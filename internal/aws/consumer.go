package aws

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// MessageHandler processes one raw message body. Handler outcomes do not
// influence deletion: a message is removed from the queue once handled,
// failed orders live in the failure tracker, not in SQS redelivery.
type MessageHandler func(ctx context.Context, body string)

// Consumer long-polls a queue and hands raw bodies to a handler. Used when
// the worker runs as a plain process instead of behind Lambda.
type Consumer struct {
	SQS         SQSAPI
	QueueURL    string
	WaitTime    time.Duration
	MaxMessages int32
}

// NewConsumer returns a Consumer bound to a queue URL.
func NewConsumer(sqsClient SQSAPI, queueURL string, waitTime time.Duration, maxMessages int32) *Consumer {
	return &Consumer{
		SQS:         sqsClient,
		QueueURL:    queueURL,
		WaitTime:    waitTime,
		MaxMessages: maxMessages,
	}
}

// Run polls until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handle MessageHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := c.SQS.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            &c.QueueURL,
			MaxNumberOfMessages: c.MaxMessages,
			WaitTimeSeconds:     int32(c.WaitTime.Seconds()),
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.ErrorContext(ctx, "receive messages failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range out.Messages {
			if msg.Body != nil {
				handle(ctx, *msg.Body)
			}
			if err := c.delete(ctx, msg.ReceiptHandle); err != nil {
				slog.ErrorContext(ctx, "delete message failed", "error", err)
			}
		}
	}
}

func (c *Consumer) delete(ctx context.Context, receiptHandle *string) error {
	if receiptHandle == nil {
		return nil
	}
	_, err := c.SQS.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.QueueURL,
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
