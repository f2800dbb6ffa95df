// Package journal keeps a durable record of every encoder session so
// restarts and crashes can be reconstructed after the fact. It writes to
// a local sqlite file by default, or Postgres when a DSN is configured.
package journal

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DennitchGlitchie/StreamingPi/internal/config"
	"github.com/DennitchGlitchie/StreamingPi/internal/models"
)

type Client struct {
	DB *gorm.DB
}

// Open connects the journal. Unlike the stream key, a broken journal is
// not fatal; callers are expected to log the error and carry on without.
func Open(cfg *config.Config) (*Client, error) {
	var dialector gorm.Dialector
	if cfg.Journal.PostgresDSN != "" {
		dialector = postgres.Open(cfg.Journal.PostgresDSN)
	} else {
		dialector = sqlite.Open(cfg.Journal.Path)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open session journal: %w", err)
	}

	if cfg.Journal.PostgresDSN == "" {
		// sqlite tolerates exactly one writer
		sqlDB, _ := db.DB()
		sqlDB.SetMaxOpenConns(1)
	}

	log.Println("✅ Session journal connected")
	return &Client{DB: db}, nil
}

// AutoMigrate creates/updates tables based on struct definitions
func (c *Client) AutoMigrate() error {
	return c.DB.AutoMigrate(&models.StreamSession{})
}

// StartSession records a fresh encoder launch and returns the row ID the
// supervisor hands back to EndSession later.
func (c *Client) StartSession(mode string, pid int, startedAt time.Time) (uint, error) {
	session := models.StreamSession{Mode: mode, PID: pid, StartedAt: startedAt}
	if err := c.DB.Create(&session).Error; err != nil {
		return 0, fmt.Errorf("record session start: %w", err)
	}
	return session.ID, nil
}

// EndSession closes a session with the reason it ended. A zero ID is a
// no-op so callers do not have to track whether the start was recorded.
func (c *Client) EndSession(id uint, endedAt time.Time, outcome string) error {
	if id == 0 {
		return nil
	}
	return c.DB.Model(&models.StreamSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"ended_at": endedAt, "outcome": outcome}).Error
}

// LastSession returns the most recently started session, or nil when the
// journal is empty.
func (c *Client) LastSession() (*models.StreamSession, error) {
	var session models.StreamSession
	err := c.DB.Order("started_at desc").First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CloseStale marks sessions left open by a previous run (power loss, OOM
// kill) as interrupted. Returns how many rows were closed.
func (c *Client) CloseStale(now time.Time) (int64, error) {
	res := c.DB.Model(&models.StreamSession{}).
		Where("ended_at IS NULL").
		Updates(map[string]interface{}{"ended_at": now, "outcome": "interrupted"})
	return res.RowsAffected, res.Error
}
