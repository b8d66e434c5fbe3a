package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-ussd-gateway/internal/domain"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repository implements ports.ExecutionRepository and ports.CodeRepository
// using PostgreSQL through gorm.
type Repository struct {
	db *gorm.DB
}

// New opens a PostgreSQL connection and returns a Repository.
func New(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewWithDB(db)
}

// NewWithDB wraps an already opened gorm handle.
func NewWithDB(db *gorm.DB) (*Repository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate creates or updates the tables the repository uses.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(&executionRow{}, &codeRow{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Tables lists the public tables of the connected database.
func (r *Repository) Tables() ([]string, error) {
	var tables []string
	err := r.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// Close closes the underlying database connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveExecution inserts a new execution row.
func (r *Repository) SaveExecution(ctx context.Context, e domain.Execution) error {
	row := toExecutionRow(e)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// ListExecutions returns up to limit executions, newest first.
func (r *Repository) ListExecutions(ctx context.Context, limit int) ([]domain.Execution, error) {
	var rows []executionRow
	err := r.db.WithContext(ctx).
		Order("executed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}

	out := make([]domain.Execution, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// SaveCode inserts a new catalog row.
func (r *Repository) SaveCode(ctx context.Context, c domain.Code) error {
	row := toCodeRow(c)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert code: %w", err)
	}
	return nil
}

// GetCode retrieves a catalog row by ID.
func (r *Repository) GetCode(ctx context.Context, id uuid.UUID) (*domain.Code, error) {
	var row codeRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query code: %w", err)
	}
	c := row.toDomain()
	return &c, nil
}

// ListCodes returns every catalog row ordered by created_at ascending.
func (r *Repository) ListCodes(ctx context.Context) ([]domain.Code, error) {
	var rows []codeRow
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query codes: %w", err)
	}

	out := make([]domain.Code, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// DeleteCode removes a catalog row.
func (r *Repository) DeleteCode(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&codeRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

// RecordCodeResult stores the status and result of the latest execution.
func (r *Repository) RecordCodeResult(ctx context.Context, id uuid.UUID, status domain.CodeStatus, result string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&codeRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":           string(status),
			"result":           result,
			"last_executed_at": at,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update code result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}
