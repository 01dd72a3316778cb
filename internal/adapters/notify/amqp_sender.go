// Package notify hands outgoing email to the delivery pipeline.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"langlearn-api/internal/config"
)

// EmailJob is the message consumed by the mail worker
type EmailJob struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// AMQPSender publishes email jobs to a durable RabbitMQ queue
type AMQPSender struct {
	url   string
	queue string
	from  string
	now   func() time.Time
}

// NewAMQPSender creates a sender for the configured broker and queue
func NewAMQPSender(rmq config.RabbitMQConfig, mail config.MailConfig) *AMQPSender {
	return &AMQPSender{
		url:   rmq.URL,
		queue: mail.Queue,
		from:  mail.From,
		now:   time.Now,
	}
}

// Send enqueues one email. A connection is opened per message; reset
// emails are rare enough that pooling is not worth holding a channel open.
func (s *AMQPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	pub, err := buildPublishing(EmailJob{From: s.from, To: to, Subject: subject, HTML: htmlBody}, s.now())
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		s.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		return fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		s.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}

	return nil
}

func buildPublishing(job EmailJob, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("rabbitmq: marshal email job failed: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now.UTC(),
		Type:         "email.send",
		Body:         body,
	}, nil
}
