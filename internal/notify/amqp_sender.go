package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"fileharbor/internal/config"
)

const (
	routingKeyWelcome       = "user.welcome"
	routingKeyPasswordReset = "user.password-reset"
)

// AMQPSender publishes notification messages to a RabbitMQ exchange where a
// mailer worker picks them up. Each publish uses a short-lived channel; the
// connection is shared for the process lifetime.
type AMQPSender struct {
	conn     *amqp.Connection
	exchange string
	from     string
}

type notificationMessage struct {
	Type   string      `json:"type"`
	From   string      `json:"from"`
	To     string      `json:"to"`
	Data   interface{} `json:"data"`
	SentAt time.Time   `json:"sent_at"`
}

// NewAMQPSender dials the broker and declares the notification exchange.
func NewAMQPSender(cfg config.Config) (*AMQPSender, error) {
	url := strings.TrimSpace(cfg.AMQPURL)
	if url == "" {
		return nil, errors.New("notify: missing AMQP url")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("notify: dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("notify: open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	exchange := strings.TrimSpace(cfg.NotifyExchange)
	if exchange == "" {
		exchange = "fileharbor.notifications"
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("notify: declare exchange: %w", err)
	}

	return &AMQPSender{
		conn:     conn,
		exchange: exchange,
		from:     strings.TrimSpace(cfg.MailFrom),
	}, nil
}

// Close releases the broker connection.
func (s *AMQPSender) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *AMQPSender) SendWelcome(ctx context.Context, email string, data WelcomeData) error {
	return s.publish(ctx, routingKeyWelcome, email, data)
}

func (s *AMQPSender) SendPasswordReset(ctx context.Context, email string, data PasswordResetData) error {
	return s.publish(ctx, routingKeyPasswordReset, email, data)
}

func (s *AMQPSender) publish(ctx context.Context, routingKey, email string, data interface{}) error {
	if s == nil || s.conn == nil {
		return errors.New("notify: sender not initialised")
	}

	ch, err := s.conn.Channel()
	if err != nil {
		logrus.WithError(err).Error("notify: open channel failed")
		return fmt.Errorf("notify: open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	body, err := json.Marshal(notificationMessage{
		Type:   routingKey,
		From:   s.from,
		To:     email,
		Data:   data,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("notify: marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, s.exchange, routingKey, false, false, pub); err != nil {
		logrus.WithError(err).WithField("routing_key", routingKey).Error("notify: publish failed")
		return fmt.Errorf("notify: publish: %w", err)
	}
	return nil
}

var _ Sender = (*AMQPSender)(nil)

// NewSender picks the AMQP sender when a broker is configured, falling back
// to logged deliveries otherwise.
func NewSender(cfg config.Config) (Sender, error) {
	if strings.TrimSpace(cfg.AMQPURL) == "" {
		return LogSender{}, nil
	}
	return NewAMQPSender(cfg)
}
