// Package store persists hosts, reports, values and triggers through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:generate mockgen -destination=mock_store.go -package=store github.com/haasonsaas/darkan/pkg/store Store

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// Store is the storage session handed to every request handler and trigger cycle.
type Store interface {
	HostByID(ctx context.Context, id uint) (*Host, error)
	HostByHostname(ctx context.Context, hostname string) (*Host, error)
	AcceptedHosts(ctx context.Context) ([]Host, error)
	NewHosts(ctx context.Context) ([]Host, error)
	CreateHost(ctx context.Context, host *Host) error
	SaveHost(ctx context.Context, host *Host) error
	DeleteHost(ctx context.Context, id uint) error

	CreateReport(ctx context.Context, report *Report) error
	LatestReport(ctx context.Context, hostID uint) (*Report, error)

	CreateTrigger(ctx context.Context, trigger *Trigger) error
	Triggers(ctx context.Context) ([]Trigger, error)
	TriggerState(ctx context.Context, triggerID uint) (*TriggerState, error)
	SaveTriggerState(ctx context.Context, state *TriggerState) error

	// Transaction runs fn against a transactional Store; an error from fn
	// rolls back every write it made.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore implements Store on top of a gorm connection pool.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// Open connects to the configured database and migrates the schema.
func Open(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// DB exposes the underlying handle, mainly for tests.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) HostByID(ctx context.Context, id uint) (*Host, error) {
	var host Host
	if err := s.db.WithContext(ctx).First(&host, id).Error; err != nil {
		return nil, translate(err)
	}
	return &host, nil
}

func (s *GormStore) HostByHostname(ctx context.Context, hostname string) (*Host, error) {
	var host Host
	err := s.db.WithContext(ctx).Where("hostname = ?", hostname).Order("id").First(&host).Error
	if err != nil {
		return nil, translate(err)
	}
	return &host, nil
}

func (s *GormStore) AcceptedHosts(ctx context.Context) ([]Host, error) {
	var hosts []Host
	err := s.db.WithContext(ctx).
		Where("acknowledged = ?", true).
		Not(map[string]any{"key": nil}).
		Where("key <> ?", "").
		Order("id").Find(&hosts).Error
	return hosts, translate(err)
}

func (s *GormStore) NewHosts(ctx context.Context) ([]Host, error) {
	var hosts []Host
	err := s.db.WithContext(ctx).Where("acknowledged = ?", false).Order("id").Find(&hosts).Error
	return hosts, translate(err)
}

func (s *GormStore) CreateHost(ctx context.Context, host *Host) error {
	return translate(s.db.WithContext(ctx).Create(host).Error)
}

func (s *GormStore) SaveHost(ctx context.Context, host *Host) error {
	return translate(s.db.WithContext(ctx).Save(host).Error)
}

// DeleteHost removes the host together with its reports and values.
func (s *GormStore) DeleteHost(ctx context.Context, id uint) error {
	return s.Transaction(ctx, func(tx Store) error {
		db := tx.(*GormStore).db
		reports := db.Model(&Report{}).Select("id").Where("host_id = ?", id)
		if err := db.Where("report_id IN (?)", reports).Delete(&Value{}).Error; err != nil {
			return translate(err)
		}
		if err := db.Where("host_id = ?", id).Delete(&Report{}).Error; err != nil {
			return translate(err)
		}
		res := db.Delete(&Host{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CreateReport inserts the report and all of its values.
func (s *GormStore) CreateReport(ctx context.Context, report *Report) error {
	return translate(s.db.WithContext(ctx).Create(report).Error)
}

// LatestReport returns the newest report of a host with its values loaded.
func (s *GormStore) LatestReport(ctx context.Context, hostID uint) (*Report, error) {
	var report Report
	err := s.db.WithContext(ctx).
		Preload("Values", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("host_id = ?", hostID).
		Order("id desc").
		First(&report).Error
	if err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (s *GormStore) CreateTrigger(ctx context.Context, trigger *Trigger) error {
	return translate(s.db.WithContext(ctx).Create(trigger).Error)
}

func (s *GormStore) Triggers(ctx context.Context) ([]Trigger, error) {
	var triggers []Trigger
	err := s.db.WithContext(ctx).Order("id").Find(&triggers).Error
	return triggers, translate(err)
}

// TriggerState returns the stored state, or a zero state when the trigger has
// never been evaluated.
func (s *GormStore) TriggerState(ctx context.Context, triggerID uint) (*TriggerState, error) {
	var state TriggerState
	err := s.db.WithContext(ctx).First(&state, "trigger_id = ?", triggerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &TriggerState{TriggerID: triggerID}, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &state, nil
}

func (s *GormStore) SaveTriggerState(ctx context.Context, state *TriggerState) error {
	return translate(s.db.WithContext(ctx).Save(state).Error)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
