package database

import (
	"fmt"

	"github.com/pluzgi/chatbot-study-sub001/internal/config"
	logging "github.com/pluzgi/chatbot-study-sub001/internal/logging"
	"github.com/pluzgi/chatbot-study-sub001/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(log *zap.Logger) {
	var err error
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	// Create our custom GORM logger
	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = gormlogger.Warn

	// TranslateError turns driver-specific unique violations into
	// gorm.ErrDuplicatedKey, which the repositories map to ConflictError.
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})

	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	log.Info("Database connection established successfully.")

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")
}

// Migrate creates the study schema. GORM's AutoMigrate handles tables,
// columns, and foreign keys; custom indexes are handled separately.
// Exported so tests can run the same schema against a throwaway database.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Participant{},
		&models.PostTaskMeasures{},
		&models.ClickCounter{},
		&models.ChatMessage{},
	)
	if err != nil {
		return err
	}

	// The duplicate guard scans by fingerprint within a recency window.
	fingerprintIndex := `CREATE INDEX IF NOT EXISTS idx_participants_fingerprint_created
		ON participants (fingerprint, created_at DESC);`
	return db.Exec(fingerprintIndex).Error
}
