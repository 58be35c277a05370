package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the process logger. Production gets the JSON encoder at info
// level; everything else gets the development console encoder.
func New(environment string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(environment) {
	case "production", "prod":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
