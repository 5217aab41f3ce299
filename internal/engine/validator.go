package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/go-playground/validator/v10"
)

type ValidationMode string

const (
	ModeCreate ValidationMode = "create"
	ModeUpdate ValidationMode = "update"
)

// ParseValidationMode accepts "create" or "update"; an empty string means create
func ParseValidationMode(s string) (ValidationMode, error) {
	switch ValidationMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeCreate:
		return ModeCreate, nil
	case ModeUpdate:
		return ModeUpdate, nil
	default:
		return "", fmt.Errorf("%w: unknown validation mode %q", contract.ErrInvalidContract, s)
	}
}

// ContractData is the editable part of a contract
type ContractData struct {
	OrderNo        string   `json:"order_no" validate:"required,max=64"`
	ProjectNo      string   `json:"project_no" validate:"required,max=64"`
	ProjectName    string   `json:"project_name" validate:"required,max=255"`
	Client         string   `json:"client" validate:"required,max=255"`
	ContractAmount int64    `json:"contract_amount" validate:"gt=0,lte=1000000000000000"`
	Members        []string `json:"members" validate:"dive,required,max=128"`
}

type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type ContractValidatorImpl struct {
	contractRepo contract.Repository
	validate     *validator.Validate
	logger       *slog.Logger
}

func NewContractValidator(contractRepo contract.Repository, logger *slog.Logger) ContractValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ContractValidatorImpl{
		contractRepo: contractRepo,
		validate:     v,
		logger:       logger,
	}
}

// ValidateContract runs field checks and, when creating, the order number uniqueness check.
// A failed lookup is returned as an error; rule violations are reported in the result.
func (v *ContractValidatorImpl) ValidateContract(ctx context.Context, data ContractData, mode ValidationMode) (*ValidationResult, error) {
	data = normalize(data)
	result := &ValidationResult{Errors: []string{}, Warnings: []string{}}

	if err := v.validate.StructCtx(ctx, data); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("failed to validate contract data: %w", err)
		}
		for _, fe := range fieldErrs {
			result.Errors = append(result.Errors, describe(fe))
		}
	}

	// order numbers are fixed once a contract exists
	if mode == ModeCreate && data.OrderNo != "" {
		exists, err := v.contractRepo.ExistsByOrderNo(ctx, data.OrderNo)
		if err != nil {
			v.logger.Error("Failed to check order number uniqueness", "order_no", data.OrderNo, "error", err)
			return nil, fmt.Errorf("failed to check order number %s: %w", data.OrderNo, err)
		}
		if exists {
			result.Errors = append(result.Errors, "order_no: "+data.OrderNo+" already exists")
		}
	}

	if len(data.Members) == 0 {
		result.Warnings = append(result.Warnings, "members: no members assigned")
	}
	seen := make(map[string]bool, len(data.Members))
	for _, m := range data.Members {
		if m != "" && seen[m] {
			result.Warnings = append(result.Warnings, "members: "+m+" is listed more than once")
		}
		seen[m] = true
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

func normalize(data ContractData) ContractData {
	data.OrderNo = strings.TrimSpace(data.OrderNo)
	data.ProjectNo = strings.TrimSpace(data.ProjectNo)
	data.ProjectName = strings.TrimSpace(data.ProjectName)
	data.Client = strings.TrimSpace(data.Client)
	members := make([]string, len(data.Members))
	for i, m := range data.Members {
		members[i] = strings.TrimSpace(m)
	}
	data.Members = members
	return data
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + ": is required"
	case "max":
		return field + ": must be at most " + fe.Param() + " characters"
	case "gt":
		return field + ": must be greater than " + fe.Param()
	case "lte":
		return field + ": must be at most " + fe.Param()
	default:
		return field + ": failed " + fe.Tag() + " check"
	}
}
