package database

import (
	"fmt"
	"time"

	"dailyreport/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists every table owned by the service, in dependency order.
var Models = []interface{}{
	&model.User{},
	&model.SupervisorLink{},
	&model.Project{},
	&model.WorkRecord{},
	&model.FileAttachment{},
	&model.DailyReport{},
	&model.ReportProject{},
	&model.ReportApproval{},
	&model.ReviewComment{},
	&model.AIOverlay{},
	&model.AuditLog{},
}

// GormConfig is shared by the postgres connection and the sqlite test databases.
// TranslateError maps unique violations to gorm.ErrDuplicatedKey. SQL warnings
// go through log; missing rows are a normal lookup result and are not logged.
func GormConfig(log *logrus.Logger) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig(log))
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	log.Info("connected to PostgreSQL")
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}
