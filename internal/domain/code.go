package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// CodeType classifies a catalog entry.
type CodeType string

const (
	CodeTypeActivation CodeType = "ACTIVATION"
	CodeTypeTopup      CodeType = "TOPUP"
)

// CodeStatus tracks the last execution of a catalog entry.
type CodeStatus string

const (
	CodeStatusPending CodeStatus = "pending" // never executed
	CodeStatusDone    CodeStatus = "done"    // last execution succeeded
	CodeStatusError   CodeStatus = "error"   // last execution failed
)

// Code is a saved USSD short code an operator can run on demand.
type Code struct {
	ID             uuid.UUID
	Name           string
	Code           string
	Type           CodeType
	Description    string
	Category       string
	Operator       string
	SimSlot        int
	Status         CodeStatus
	Result         string
	LastExecutedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewCodeParams is the input for NewCode.
type NewCodeParams struct {
	Name        string
	Code        string
	Type        CodeType
	Description string
	Category    string
	Operator    string
	SimSlot     int
}

// NewCode validates p and returns a pending catalog entry.
func NewCode(p NewCodeParams) (Code, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Code = strings.TrimSpace(p.Code)
	p.Description = strings.TrimSpace(p.Description)
	p.Category = strings.TrimSpace(p.Category)
	p.Operator = strings.TrimSpace(p.Operator)

	switch {
	case p.Name == "" || utf8.RuneCountInString(p.Name) > 100:
		return Code{}, fmt.Errorf("%w: name must be 1-100 characters", ErrInvalidCode)
	case p.Code == "" || utf8.RuneCountInString(p.Code) > 50:
		return Code{}, fmt.Errorf("%w: code must be 1-50 characters", ErrInvalidCode)
	case p.Type != CodeTypeActivation && p.Type != CodeTypeTopup:
		return Code{}, fmt.Errorf("%w: type must be %s or %s", ErrInvalidCode, CodeTypeActivation, CodeTypeTopup)
	case utf8.RuneCountInString(p.Description) > 500:
		return Code{}, fmt.Errorf("%w: description must be at most 500 characters", ErrInvalidCode)
	case utf8.RuneCountInString(p.Category) > 100:
		return Code{}, fmt.Errorf("%w: category must be at most 100 characters", ErrInvalidCode)
	case utf8.RuneCountInString(p.Operator) > 50:
		return Code{}, fmt.Errorf("%w: operator must be at most 50 characters", ErrInvalidCode)
	case p.SimSlot < 0 || p.SimSlot > 1:
		return Code{}, fmt.Errorf("%w: simSlot must be 0 or 1", ErrInvalidCode)
	}

	now := time.Now().UTC()
	return Code{
		ID:          uuid.New(),
		Name:        p.Name,
		Code:        p.Code,
		Type:        p.Type,
		Description: p.Description,
		Category:    p.Category,
		Operator:    p.Operator,
		SimSlot:     p.SimSlot,
		Status:      CodeStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// StatusFor maps an outcome onto the catalog status it leaves behind.
func StatusFor(out Outcome) CodeStatus {
	if out.Success {
		return CodeStatusDone
	}
	return CodeStatusError
}

var (
	ErrCodeNotFound = errors.New("ussd code not found")
	ErrInvalidCode  = errors.New("invalid ussd code")
)
