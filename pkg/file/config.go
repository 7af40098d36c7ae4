package file

import (
	"context"
	"fmt"
)

const (
	DriverNone  = "none"
	DriverLocal = "local"
	DriverS3    = "s3"
)

// Config selects and configures the object backend.
type Config struct {
	Driver   string   `env:"FILE_STORAGE_DRIVER" envDefault:"local"`
	LocalDir string   `env:"FILE_LOCAL_DIR" envDefault:"./data/uploads"`
	LocalURL string   `env:"FILE_LOCAL_URL" envDefault:"/files/"`
	S3       S3Config `envPrefix:"FILE_S3_"`
}

// NewFromConfig returns the configured backend, or nil for DriverNone.
func NewFromConfig(ctx context.Context, cfg Config, opts ...S3Option) (Storage, error) {
	switch cfg.Driver {
	case DriverNone, "":
		return nil, nil
	case DriverLocal:
		s, err := NewLocalStorage(cfg.LocalDir, cfg.LocalURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverS3:
		s, err := NewS3Storage(ctx, cfg.S3, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, cfg.Driver)
	}
}
