package rankeligibleworkers

import "time"

type Config struct {
	Timeout time.Duration
	// MaxResults truncates the ranking; zero returns every result.
	MaxResults int
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
