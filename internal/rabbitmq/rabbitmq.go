package rabbitmq

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/config"
)

// Connection manages a RabbitMQ connection and channel with automatic
// reconnection. It is publish-only: the service fans applied events out
// to downstream analytics consumers and never consumes.
type Connection struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	config    *config.RabbitMQConfig
	logger    *zap.Logger
	connClose chan *amqp.Error
	stopChan  chan struct{}
	mu        sync.RWMutex
}

// NewConnection creates a new Connection instance
func NewConnection(cfg *config.RabbitMQConfig, logger *zap.Logger) *Connection {
	return &Connection{
		config:   cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Connect establishes the connection, retrying with exponential backoff,
// then starts monitoring for automatic reconnection
func (c *Connection) Connect() error {
	backoff := time.Second
	maxBackoff := 30 * time.Second
	maxInitialAttempts := 10

	for attempt := 1; attempt <= maxInitialAttempts; attempt++ {
		if err := c.connect(); err != nil {
			if attempt == maxInitialAttempts {
				return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxInitialAttempts, err)
			}
			c.logger.Warn("Initial connection to RabbitMQ failed, retrying...",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		c.logger.Info("Connected to RabbitMQ",
			zap.Int("attempt", attempt),
		)
		break
	}

	go c.monitorConnection()

	return nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() {
		c.conn.Close()
	}

	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare the fan-out exchange the publisher targets
	if err := channel.ExchangeDeclare(
		c.config.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", c.config.Exchange, err)
	}

	c.conn = conn
	c.channel = channel
	c.connClose = make(chan *amqp.Error, 1)
	c.conn.NotifyClose(c.connClose)

	return nil
}

// monitorConnection reconnects when the broker closes the connection
func (c *Connection) monitorConnection() {
	for {
		c.mu.RLock()
		connClose := c.connClose
		c.mu.RUnlock()

		select {
		case <-c.stopChan:
			return
		case amqpErr, ok := <-connClose:
			if !ok {
				return
			}
			c.logger.Warn("RabbitMQ connection closed, reconnecting...",
				zap.Error(amqpErr),
			)

			backoff := time.Second
			for {
				select {
				case <-c.stopChan:
					return
				default:
				}

				if err := c.connect(); err != nil {
					c.logger.Error("RabbitMQ reconnect failed, will retry",
						zap.Error(err),
						zap.Duration("backoff", backoff),
					)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					continue
				}

				c.logger.Info("RabbitMQ reconnected")
				break
			}
		}
	}
}

// Publish sends a persistent JSON message to the exchange, retrying a
// few times when the channel is mid-reconnect
func (c *Connection) Publish(exchange, routingKey string, body []byte) error {
	maxRetries := 3
	retryDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		c.mu.RLock()
		ch := c.channel
		conn := c.conn
		c.mu.RUnlock()

		if ch == nil || ch.IsClosed() || conn == nil || conn.IsClosed() {
			if attempt < maxRetries-1 {
				time.Sleep(retryDelay)
				retryDelay *= 2
				continue
			}
			return fmt.Errorf("RabbitMQ channel is not initialized or closed after %d attempts", maxRetries)
		}

		err := ch.Publish(
			exchange,
			routingKey,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
		if err != nil {
			if attempt < maxRetries-1 && (ch.IsClosed() || conn.IsClosed()) {
				time.Sleep(retryDelay)
				retryDelay *= 2
				continue
			}
			return fmt.Errorf("failed to publish message: %w", err)
		}

		return nil
	}

	return fmt.Errorf("failed to publish message after %d attempts", maxRetries)
}

// IsHealthy checks if the connection and channel are healthy
func (c *Connection) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed() && c.channel != nil && !c.channel.IsClosed()
}

// Close shuts the connection down and stops reconnection monitoring
func (c *Connection) Close() {
	close(c.stopChan)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		c.channel.Close()
	}
	if c.conn != nil && !c.conn.IsClosed() {
		c.conn.Close()
	}

	c.logger.Info("RabbitMQ connection closed")
}
