// Package configstore holds the block calendar: a gorm-backed authoritative
// remote store and a Redis-backed durable local cache.
package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campuseye/attendance-engine/internal/domain"
)

const calendarKey = "block_calendar"

// configRecord stores the whole calendar as one JSON blob under a fixed key.
// The calendar is small and always read whole, so a keyed blob beats a
// normalized table.
type configRecord struct {
	Key     string `gorm:"primaryKey;column:key"`
	Payload []byte `gorm:"column:payload"`
}

func (configRecord) TableName() string {
	return "engine_configs"
}

type calendarPayload struct {
	Semesters map[string]map[string]domain.BlockRange `json:"semesters"`
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&configRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate engine_configs: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context) (*domain.CalendarConfig, error) {
	var record configRecord
	err := s.db.WithContext(ctx).First(&record, "key = ?", calendarKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get calendar config: %w", err)
	}
	return unmarshalCalendar(record.Payload)
}

// Set writes the calendar. With merge, cfg's semesters are layered over the
// stored ones inside a transaction so concurrent single-semester saves do
// not clobber each other.
func (s *GormStore) Set(ctx context.Context, cfg *domain.CalendarConfig, merge bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out := cfg
		if merge {
			var record configRecord
			err := tx.First(&record, "key = ?", calendarKey).Error
			switch {
			case err == nil:
				current, err := unmarshalCalendar(record.Payload)
				if err != nil {
					return err
				}
				for semester, blocks := range cfg.Semesters {
					current.Merge(semester, blocks)
				}
				out = current
			case errors.Is(err, gorm.ErrRecordNotFound):
				// nothing stored yet, first write wins as-is
			default:
				return fmt.Errorf("failed to read calendar config for merge: %w", err)
			}
		}

		payload, err := marshalCalendar(out)
		if err != nil {
			return err
		}

		record := configRecord{Key: calendarKey, Payload: payload}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload"}),
		}).Create(&record).Error
		if err != nil {
			return fmt.Errorf("failed to store calendar config: %w", err)
		}
		return nil
	})
}

// Block numbers are JSON object keys, so they round-trip as strings.
func marshalCalendar(cfg *domain.CalendarConfig) ([]byte, error) {
	payload := calendarPayload{Semesters: make(map[string]map[string]domain.BlockRange)}
	for semester, blocks := range cfg.Semesters {
		payload.Semesters[semester] = make(map[string]domain.BlockRange, len(blocks))
		for n, r := range blocks {
			payload.Semesters[semester][strconv.Itoa(n)] = r
		}
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calendar config: %w", err)
	}
	return out, nil
}

func unmarshalCalendar(data []byte) (*domain.CalendarConfig, error) {
	var payload calendarPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calendar config: %w", err)
	}

	cfg := domain.NewCalendarConfig()
	for semester, blocks := range payload.Semesters {
		parsed := make(domain.SemesterBlocks, len(blocks))
		for key, r := range blocks {
			n, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("invalid block number %q in stored calendar: %w", key, err)
			}
			parsed[n] = r
		}
		cfg.Merge(semester, parsed)
	}
	return cfg, nil
}
