package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var ErrNoEventID = errors.New("reminder without event id")

type Config struct {
	URL   string
	Queue string
}

// Reminder tells that an urgent event is about to happen.
type Reminder struct {
	ID    int64     `json:"id"`
	Title string    `json:"title"`
	Link  string    `json:"link,omitempty"`
	Due   time.Time `json:"due"`
}

type Provider struct {
	conn      *amqp.Connection
	queue     amqp.Queue
	channel   *amqp.Channel
	url       string
	queueName string
}

func New(config Config) *Provider {
	return &Provider{url: config.URL, queueName: config.Queue}
}

func (r *Provider) Connect() error {
	var err error
	r.conn, err = amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbit: %w", err)
	}

	r.channel, err = r.conn.Channel()
	if err != nil {
		r.conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	r.queue, err = r.channel.QueueDeclare(
		r.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		r.conn.Close()
		return fmt.Errorf("failed to declare queue %q: %w", r.queueName, err)
	}
	return nil
}

func (r *Provider) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

func (r *Provider) Publish(_ context.Context, reminder Reminder) error {
	body, err := json.Marshal(reminder)
	if err != nil {
		return fmt.Errorf("failed to encode reminder: %w", err)
	}
	return r.channel.Publish(
		"",           // exchange
		r.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}

type ReminderProcess = func(reminder Reminder)

// Consume passes reminders to process until ctx is done.
func (r *Provider) Consume(ctx context.Context, process ReminderProcess) error {
	msgs, err := r.channel.Consume(
		r.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume %q: %w", r.queue.Name, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel of %q closed", r.queue.Name)
			}
			reminder, err := DecodeReminder(m.Body)
			if err != nil {
				log.Errorf("failed to parse reminder: %v", err)
				m.Reject(false)
				continue
			}
			process(reminder)
			m.Ack(false)
		}
	}
}

func DecodeReminder(body []byte) (Reminder, error) {
	var reminder Reminder
	if err := json.Unmarshal(body, &reminder); err != nil {
		return Reminder{}, err
	}
	if reminder.ID == 0 {
		return Reminder{}, ErrNoEventID
	}
	return reminder, nil
}
