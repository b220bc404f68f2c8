package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/duty-roster-go/pkg/models"
)

var (
	ErrRunNotFound         = errors.New("schedule run not found")
	ErrKeyNotFound         = errors.New("api key not found")
	ErrKeyRevoked          = errors.New("api key revoked")
	ErrCoordinatorNotFound = errors.New("coordinator not found")
)

// ScheduleRun is one generated schedule together with the roster it was planned for
type ScheduleRun struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	Year      int             `gorm:"index;not null" json:"year"`
	Persons   []models.Person `gorm:"serializer:json" json:"persons"`
	Shifts    []ShiftRecord   `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

// ShiftRecord is one shift of a stored run
type ShiftRecord struct {
	ID       uint      `gorm:"primaryKey"`
	RunID    string    `gorm:"index;size:36;not null"`
	Seq      int       `gorm:"not null"`
	ShiftID  string    `gorm:"not null"`
	Date     time.Time `gorm:"not null"`
	Kind     string    `gorm:"not null"`
	Assigned []string  `gorm:"serializer:json"`
}

// NewRun wraps a schedule for storage under a fresh id
func NewRun(schedule models.Schedule, persons []models.Person, createdBy string) *ScheduleRun {
	run := &ScheduleRun{
		ID:        uuid.NewString(),
		Year:      schedule.Year,
		Persons:   persons,
		CreatedBy: createdBy,
		Shifts:    make([]ShiftRecord, len(schedule.Shifts)),
	}
	for i, sh := range schedule.Shifts {
		run.Shifts[i] = ShiftRecord{
			RunID:    run.ID,
			Seq:      i,
			ShiftID:  sh.ID,
			Date:     sh.Date,
			Kind:     string(sh.Kind),
			Assigned: append([]string{}, sh.Assigned...),
		}
	}
	return run
}

// Schedule rebuilds the stored schedule in generation order
func (r *ScheduleRun) Schedule() models.Schedule {
	s := models.Schedule{Year: r.Year, Shifts: make([]models.Shift, len(r.Shifts))}
	for i, rec := range r.Shifts {
		d := rec.Date.UTC()
		assigned := rec.Assigned
		if assigned == nil {
			assigned = []string{}
		}
		s.Shifts[i] = models.Shift{
			ID:       rec.ShiftID,
			Date:     models.Date(d.Year(), d.Month(), d.Day()),
			Kind:     models.ShiftKind(rec.Kind),
			Assigned: assigned,
		}
	}
	return s
}

// Repository wraps the queries the handlers need
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository over db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying handle
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// SaveRun stores a run and its shifts in one transaction
func (r *Repository) SaveRun(ctx context.Context, run *ScheduleRun) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
}

// GetRun loads a run with its shifts ordered by generation sequence
func (r *Repository) GetRun(ctx context.Context, id string) (*ScheduleRun, error) {
	var run ScheduleRun
	err := r.db.WithContext(ctx).
		Preload("Shifts", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs without their shifts
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]ScheduleRun, error) {
	var runs []ScheduleRun
	err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}

// CreateKey stores a new API key record
func (r *Repository) CreateKey(ctx context.Context, key *APIKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

// FindOrCreateKey returns the record for key, creating it with defaults on first use.
// A revoked key yields ErrKeyRevoked.
func (r *Repository) FindOrCreateKey(ctx context.Context, key, name string, rateLimit int) (*APIKey, error) {
	db := r.db.WithContext(ctx)

	var apiKey APIKey
	err := db.Unscoped().Where(&APIKey{Key: key}).First(&apiKey).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		apiKey = APIKey{Key: key, Name: name, KeyPreview: Preview(key), RateLimit: rateLimit}
		if err := db.Create(&apiKey).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case apiKey.DeletedAt.Valid:
		return nil, ErrKeyRevoked
	}

	now := time.Now()
	apiKey.LastUsed = &now
	if err := db.Model(&apiKey).Update("last_used", now).Error; err != nil {
		return nil, err
	}
	return &apiKey, nil
}

// ListKeys returns every key record
func (r *Repository) ListKeys(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	err := r.db.WithContext(ctx).Order("id").Find(&keys).Error
	return keys, err
}

// UpdateKeyLimit changes the daily request limit of a key
func (r *Repository) UpdateKeyLimit(ctx context.Context, id uint, limit int) error {
	res := r.db.WithContext(ctx).Model(&APIKey{}).Where("id = ?", id).Update("rate_limit", limit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// DeleteKey revokes a key
func (r *Repository) DeleteKey(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&APIKey{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// RecordUsage adds one request to the key's row for date using a single upsert
func (r *Repository) RecordUsage(ctx context.Context, keyID uint, date string, shifts, persons int) error {
	// OnConflict is supported by both Postgres and SQLite.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"total_shifts":  gorm.Expr("total_shifts + ?", shifts),
			"total_persons": gorm.Expr("total_persons + ?", persons),
		}),
	}).Create(&APIUsage{
		KeyID:        keyID,
		Date:         date,
		RequestCount: 1,
		TotalShifts:  shifts,
		TotalPersons: persons,
	}).Error
}

// RequestsOn returns how many requests keyID made on date
func (r *Repository) RequestsOn(ctx context.Context, keyID uint, date string) (int, error) {
	var usage APIUsage
	err := r.db.WithContext(ctx).Where("key_id = ? AND date = ?", keyID, date).First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return usage.RequestCount, err
}

// UsageHistory returns the last limit days of usage, newest first
func (r *Repository) UsageHistory(ctx context.Context, keyID uint, limit int) ([]APIUsage, error) {
	var usage []APIUsage
	err := r.db.WithContext(ctx).Where("key_id = ?", keyID).Order("date desc").Limit(limit).Find(&usage).Error
	return usage, err
}

// CountCoordinators returns the number of admin accounts
func (r *Repository) CountCoordinators(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Coordinator{}).Count(&count).Error
	return count, err
}

// CreateCoordinator stores an admin account
func (r *Repository) CreateCoordinator(ctx context.Context, c *Coordinator) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// GetCoordinator finds an admin account by username
func (r *Repository) GetCoordinator(ctx context.Context, username string) (*Coordinator, error) {
	var c Coordinator
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCoordinatorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Preview masks a key for listings, e.g. "ana...9f3c"
func Preview(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}
