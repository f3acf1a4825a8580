package config

import (
	"fmt"
	"os"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	RabbitMQ  RabbitMQConfig
	Providers ProviderConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RabbitMQConfig configures the applied-event fan-out publisher.
// The publisher is disabled entirely when URL is empty.
type RabbitMQConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// ProviderConfig holds the per-provider webhook signing material.
// It is built once at startup and passed by reference into the
// ingestion handlers; an empty secret disables that provider's endpoint.
type ProviderConfig struct {
	SendGridSecret string
	MailgunSecret  string
	SESTopicArn    string
}

type AuthConfig struct {
	APIKey string
}

func Load() (*Config, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	config := &Config{
		Server: ServerConfig{
			Port: get("SERVER_PORT"),
			Host: get("SERVER_HOST"),
		},
		Database: DatabaseConfig{
			Host:     get("DB_HOST"),
			Port:     get("DB_PORT"),
			User:     get("DB_USER"),
			Password: get("DB_PASSWORD"),
			DBName:   get("DB_NAME"),
			SSLMode:  get("DB_SSLMODE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:        os.Getenv("RABBITMQ_URL"),
			Exchange:   envOr("RABBITMQ_EXCHANGE", "delivery.events"),
			RoutingKey: envOr("RABBITMQ_ROUTING_KEY", "delivery.event.applied"),
		},
		Providers: ProviderConfig{
			SendGridSecret: os.Getenv("SENDGRID_SIGNING_SECRET"),
			MailgunSecret:  os.Getenv("MAILGUN_SIGNING_KEY"),
			SESTopicArn:    os.Getenv("SES_TOPIC_ARN"),
		},
		Auth: AuthConfig{
			APIKey: get("API_KEY"),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return config, nil
}

// ConnectionString returns a DSN string for GORM
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

// MigrateURL returns the postgres:// URL used by golang-migrate
func (c *DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// Enabled reports whether the fan-out publisher should be started
func (c *RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
