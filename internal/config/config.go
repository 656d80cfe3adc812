package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Service holds process-level settings shared by both binaries.
type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
	APIPort     string `envconfig:"SERVICE_API_PORT" default:"8080"`
}

// SQLite holds storage settings.
type SQLite struct {
	Path string `envconfig:"SQLITE_PATH" default:"events.db"`
}

// SQS holds queue settings. Endpoint is only set for local development
// against ElasticMQ.
type SQS struct {
	Endpoint string `envconfig:"SQS_ENDPOINT"`
	QueueURL string `envconfig:"SQS_QUEUE_URL" required:"true"`
	Region   string `envconfig:"SQS_REGION" required:"true"`
}

// Consumer holds settings for the queue worker pipeline.
type Consumer struct {
	MaxMessages     int32  `envconfig:"CONSUMER_MAX_MESSAGES" default:"10"`
	WaitTimeSeconds int32  `envconfig:"CONSUMER_WAIT_TIME_SEC" default:"20"`
	BufferSize      int    `envconfig:"CONSUMER_BUFFER_SIZE" default:"100"`
	HealthCheckPort string `envconfig:"CONSUMER_HEALTH_CHECK_PORT" default:"8081"`
}

// Interest holds the category keyword vocabularies used for session
// interest scoring. Defaults cover English and Arabic storefront terms.
type Interest struct {
	DogKeywords []string `envconfig:"INTEREST_DOG_KEYWORDS" default:"dog,dogs,puppy,leash,kennel,كلب,كلاب,جرو"`
	CatKeywords []string `envconfig:"INTEREST_CAT_KEYWORDS" default:"cat,cats,kitten,litter,قط,قطة,قطط,هريرة"`
}

type Config struct {
	Service  Service
	SQLite   SQLite
	SQS      SQS
	Consumer Consumer
	Interest Interest
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
