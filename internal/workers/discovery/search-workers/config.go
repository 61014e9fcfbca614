package searchworkers

import "time"

type Config struct {
	Timeout         time.Duration
	DefaultPageSize int
	// MaxItems caps the page size a caller may request.
	MaxItems int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         15 * time.Second,
		DefaultPageSize: 20,
		MaxItems:        50,
	}
}
