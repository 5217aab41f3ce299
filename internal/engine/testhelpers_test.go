package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/contract-payment-ledger/internal/domain/audit"
	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxExecutor runs fn without a real transaction
type fakeTxExecutor struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTxExecutor) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return fn(nil)
}

// memoryRepository stores contracts as JSON documents and enforces the version check on
// Update the same way the Postgres repository does. LockForUpdate does not block.
type memoryRepository struct {
	mu        sync.Mutex
	docs      map[uuid.UUID][]byte
	order     []uuid.UUID
	afterLoad func()
	failWith  error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{docs: make(map[uuid.UUID][]byte)}
}

func (r *memoryRepository) WithTx(tx pgx.Tx) contract.Repository { return r }

func (r *memoryRepository) Create(ctx context.Context, c *contract.Contract, codePrefix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}

	codes := make([]string, 0, len(r.docs))
	for _, id := range r.order {
		stored := r.decode(id)
		if stored.OrderNo == c.OrderNo {
			return contract.ValidationErrors{Fields: []string{"order_no: " + c.OrderNo + " already exists"}}
		}
		codes = append(codes, stored.Code)
	}
	c.Code = contract.GenerateNextCode(codePrefix, codes)
	r.store(c)
	r.order = append(r.order, c.ID)
	return nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return nil, contract.ErrContractNotFound{ContractID: id}
	}
	return r.decode(id), nil
}

func (r *memoryRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.afterLoad != nil {
		r.afterLoad()
	}
	return c, nil
}

func (r *memoryRepository) List(ctx context.Context, limit, offset int) ([]*contract.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*contract.Contract{}
	for i := offset; i < len(r.order) && len(out) < limit; i++ {
		out = append(out, r.decode(r.order[i]))
	}
	return out, nil
}

func (r *memoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.order)), nil
}

func (r *memoryRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	return append([]uuid.UUID(nil), r.order...), nil
}

func (r *memoryRepository) ExistsByOrderNo(ctx context.Context, orderNo string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if r.decode(id).OrderNo == orderNo {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepository) Update(ctx context.Context, c *contract.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[c.ID]; !ok {
		return contract.ErrContractNotFound{ContractID: c.ID}
	}
	if r.decode(c.ID).Version != c.Version-1 {
		return contract.ErrConcurrentModification{ContractID: c.ID}
	}
	r.store(c)
	return nil
}

func (r *memoryRepository) store(c *contract.Contract) {
	doc, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	r.docs[c.ID] = doc
}

func (r *memoryRepository) decode(id uuid.UUID) *contract.Contract {
	var c contract.Contract
	if err := json.Unmarshal(r.docs[id], &c); err != nil {
		panic(err)
	}
	return &c
}

// recordingRecorder keeps every recorded entry in memory
type recordingRecorder struct {
	mu      sync.Mutex
	entries []*audit.Entry
	err     error
}

func (r *recordingRecorder) Record(ctx context.Context, tx pgx.Tx, entry *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingRecorder) types() []shared.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.EventType, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Type
	}
	return out
}

func (r *recordingRecorder) last() *audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	return r.entries[len(r.entries)-1]
}

// steppingClock advances one second per call
func steppingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type testEngine struct {
	repo     *memoryRepository
	recorder *recordingRecorder
	tx       *fakeTxExecutor
	service  *ContractServiceImpl
}

func newTestEngine(decrease contract.DecreasePolicy) *testEngine {
	repo := newMemoryRepository()
	recorder := &recordingRecorder{}
	tx := &fakeTxExecutor{}
	policy := contract.Policy{PercentTolerance: 1, Decrease: decrease, Now: steppingClock()}
	logger := newTestLogger()

	return &testEngine{
		repo:     repo,
		recorder: recorder,
		tx:       tx,
		service:  NewContractService(tx, repo, recorder, NewContractValidator(repo, logger), policy, "C", logger),
	}
}

func allow(id string) shared.Authorization {
	return shared.Allow(shared.Actor{ID: id})
}

func createCommand(orderNo string, amount int64) CreateContractCommand {
	return CreateContractCommand{
		OrderNo:        orderNo,
		ProjectNo:      "PRJ-" + orderNo,
		ProjectName:    "Bridge",
		Client:         "ACME",
		ContractAmount: amount,
		Members:        []string{"alice", "bob"},
		Auth:           allow("alice"),
		CorrelationID:  "corr-" + orderNo,
	}
}

func (e *testEngine) mustCreate(t *testing.T, orderNo string, amount int64) *CreateContractResult {
	t.Helper()
	res, err := e.service.CreateContract(context.Background(), createCommand(orderNo, amount))
	require.NoError(t, err)
	return res
}

func sortedCodes(results []*CreateContractResult) []string {
	codes := make([]string, len(results))
	for i, r := range results {
		codes[i] = r.ContractCode
	}
	sort.Strings(codes)
	return codes
}

var errStorage = errors.New("storage unavailable")
