package database

import (
	"bytes"
	"encoding/json"
	"testing"

	"dailyreport/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGormConfig_LogsThroughLogrus(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	db, err := gorm.Open(sqlite.Open("file::memory:"), GormConfig(log))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	buf.Reset()

	var report model.DailyReport
	err = db.First(&report, "id = ?", uuid.New()).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "a missing row is not worth a log line")

	require.Error(t, db.Exec("SELECT * FROM no_such_table").Error)
	require.NotEmpty(t, buf.String())
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.SplitN(buf.Bytes(), []byte("\n"), 2)[0], &entry))
	assert.Contains(t, entry["msg"], "no_such_table")
}
