package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/contract-payment-ledger/internal/api_gateway/middleware"
	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/contract-payment-ledger/internal/engine"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// envelope is the decoded form of Response used by tests
type envelope[T any] struct {
	Data          T          `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

func decode[T any](body *bytes.Buffer) envelope[T] {
	var env envelope[T]
	if err := json.Unmarshal(body.Bytes(), &env); err != nil {
		panic(err)
	}
	return env
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Actor(nil))
	return r
}

func doRequest(r http.Handler, method, path, body string, actor string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.CorrelationIDHeader, "corr-test")
	if actor != "" {
		req.Header.Set(middleware.ActorIDHeader, actor)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

type MockContractService struct {
	mock.Mock
}

func (m *MockContractService) CreateContract(ctx context.Context, cmd engine.CreateContractCommand) (*engine.CreateContractResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.CreateContractResult), args.Error(1)
}

func (m *MockContractService) AddContractChange(ctx context.Context, cmd engine.AddChangeCommand) (*engine.AddChangeResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.AddChangeResult), args.Error(1)
}

func (m *MockContractService) CreatePaymentRequest(ctx context.Context, cmd engine.CreatePaymentCommand) (*engine.CreatePaymentResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.CreatePaymentResult), args.Error(1)
}

func (m *MockContractService) ExecutePaymentAction(ctx context.Context, cmd engine.ExecuteActionCommand) (*engine.ExecuteActionResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ExecuteActionResult), args.Error(1)
}

func (m *MockContractService) GetContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractService) ListContracts(ctx context.Context, page, perPage int) (*engine.ContractPage, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ContractPage), args.Error(1)
}

func (m *MockContractService) GetEventLog(ctx context.Context, id uuid.UUID) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockContractService) GetStatusPercent(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(int64), args.Error(1)
}

type MockContractValidator struct {
	mock.Mock
}

func (m *MockContractValidator) ValidateContract(ctx context.Context, data engine.ContractData, mode engine.ValidationMode) (*engine.ValidationResult, error) {
	args := m.Called(ctx, data, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ValidationResult), args.Error(1)
}

type MockProgressService struct {
	mock.Mock
}

func (m *MockProgressService) CalculateContractProgress(ctx context.Context, cmd engine.RecalculateCommand) (*engine.ProgressResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ProgressResult), args.Error(1)
}

func (m *MockProgressService) CalculateAllContractsProgress(ctx context.Context, requestedBy, correlationID string) ([]engine.ProgressResult, error) {
	args := m.Called(ctx, requestedBy, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]engine.ProgressResult), args.Error(1)
}

type MockRecalculationService struct {
	mock.Mock
}

func (m *MockRecalculationService) RequestRecalculation(ctx context.Context, request *shared.RecalculationRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) GetAuditTrail(ctx context.Context, contractID uuid.UUID, page, perPage int) ([]*audit.Entry, int64, error) {
	args := m.Called(ctx, contractID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*audit.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockAuditService) GetAuditEntry(ctx context.Context, eventID uuid.UUID) (*audit.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Entry), args.Error(1)
}

func (m *MockAuditService) GetAuditByTimeRange(ctx context.Context, from, to time.Time, page, perPage int) ([]*audit.Entry, error) {
	args := m.Called(ctx, from, to, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}
