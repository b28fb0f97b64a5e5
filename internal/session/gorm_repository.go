package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GORMRepository is a GORM implementation of Repository.
type GORMRepository struct {
	db *gorm.DB
}

// OpenDB opens the session database for the configured driver and runs
// the schema migration.
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported session driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := db.AutoMigrate(&Session{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session schema: %w", err)
	}
	return db, nil
}

// NewGORMRepository creates a new instance of GORMRepository.
func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// GetByID retrieves a session by its ID.
func (r *GORMRepository) GetByID(id string) (*Session, error) {
	var s Session
	if err := r.db.First(&s, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("session %s not found", id)
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return &s, nil
}

// Create stores a new session row.
func (r *GORMRepository) Create(session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Update saves all fields of an existing session.
func (r *GORMRepository) Update(session *Session) error {
	res := r.db.Save(session)
	if res.Error != nil {
		return fmt.Errorf("failed to update session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s not found for update", session.ID)
	}
	return nil
}

// Delete removes a session by its ID.
func (r *GORMRepository) Delete(id string) error {
	res := r.db.Delete(&Session{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete session: %w", res.Error)
	}
	return nil
}

// DeleteStale hard-deletes sessions untouched for longer than ttl.
func (r *GORMRepository) DeleteStale(ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)
	res := r.db.Unscoped().Delete(&Session{}, "updated_at < ?", cutoff)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
