package postgres

import (
	"time"

	"golang-ussd-gateway/internal/domain"

	"github.com/google/uuid"
)

type executionRow struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CodeID     *uuid.UUID `gorm:"type:uuid;index"`
	Code       string     `gorm:"type:text;not null"`
	SimSlot    int        `gorm:"not null"`
	Strategy   string     `gorm:"size:16;not null"`
	Success    bool       `gorm:"not null"`
	Result     string     `gorm:"type:text"`
	Error      string     `gorm:"type:text"`
	DurationMS int64      `gorm:"not null"`
	ExecutedAt time.Time  `gorm:"not null;index"`
}

func (executionRow) TableName() string { return "ussd_executions" }

func toExecutionRow(e domain.Execution) executionRow {
	return executionRow{
		ID:         e.ID,
		CodeID:     e.CodeID,
		Code:       e.Code,
		SimSlot:    e.SimSlot,
		Strategy:   e.Strategy,
		Success:    e.Success,
		Result:     e.Result,
		Error:      e.Error,
		DurationMS: e.Duration.Milliseconds(),
		ExecutedAt: e.ExecutedAt,
	}
}

func (r executionRow) toDomain() domain.Execution {
	return domain.Execution{
		ID:         r.ID,
		CodeID:     r.CodeID,
		Code:       r.Code,
		SimSlot:    r.SimSlot,
		Strategy:   r.Strategy,
		Success:    r.Success,
		Result:     r.Result,
		Error:      r.Error,
		Duration:   time.Duration(r.DurationMS) * time.Millisecond,
		ExecutedAt: r.ExecutedAt,
	}
}

type codeRow struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"size:100;not null"`
	Code           string    `gorm:"size:50;not null"`
	Type           string    `gorm:"size:16;not null"`
	Description    string    `gorm:"size:500"`
	Category       string    `gorm:"size:100"`
	Operator       string    `gorm:"size:50"`
	SimSlot        int       `gorm:"not null"`
	Status         string    `gorm:"size:16;not null;default:pending"`
	Result         string    `gorm:"type:text"`
	LastExecutedAt *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (codeRow) TableName() string { return "ussd_codes" }

func toCodeRow(c domain.Code) codeRow {
	return codeRow{
		ID:             c.ID,
		Name:           c.Name,
		Code:           c.Code,
		Type:           string(c.Type),
		Description:    c.Description,
		Category:       c.Category,
		Operator:       c.Operator,
		SimSlot:        c.SimSlot,
		Status:         string(c.Status),
		Result:         c.Result,
		LastExecutedAt: c.LastExecutedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r codeRow) toDomain() domain.Code {
	return domain.Code{
		ID:             r.ID,
		Name:           r.Name,
		Code:           r.Code,
		Type:           domain.CodeType(r.Type),
		Description:    r.Description,
		Category:       r.Category,
		Operator:       r.Operator,
		SimSlot:        r.SimSlot,
		Status:         domain.CodeStatus(r.Status),
		Result:         r.Result,
		LastExecutedAt: r.LastExecutedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
