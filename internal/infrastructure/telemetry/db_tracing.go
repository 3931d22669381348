package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TraceGorm registers the otelgorm plugin so every statement becomes a
// client span of the request that issued it. Query variables are left out
// of span attributes since they carry emails and password hashes.
func TraceGorm(db *gorm.DB, dbName string, logger *zap.Logger) error {
	plugin := otelgorm.NewPlugin(
		otelgorm.WithDBName(dbName),
		otelgorm.WithoutQueryVariables(),
	)
	if err := db.Use(plugin); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("Database tracing enabled", zap.String("db_name", dbName))
	}
	return nil
}
