package engine

import (
	"context"
	"testing"

	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/contract-payment-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProgressService(t *testing.T, e *testEngine, size int) *ProgressServiceImpl {
	t.Helper()
	s, err := NewProgressService(e.tx, e.repo, e.recorder, WorkerPoolConfig{Size: size}, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)
	return s
}

// seedStale stores a contract whose cached fields disagree with its payments
func seedStale(t *testing.T, e *testEngine, orderNo string) uuid.UUID {
	t.Helper()
	created := e.mustCreate(t, orderNo, 1000)

	e.repo.mu.Lock()
	defer e.repo.mu.Unlock()
	c := e.repo.decode(created.ContractID)
	c.Payments = append(c.Payments, &contract.PaymentRequest{Round: 1, Status: contract.StatusCompleted, Amount: 250})
	e.repo.store(c)
	return created.ContractID
}

func TestProgressService_CalculateContractProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("Stale fields are rewritten", func(t *testing.T) {
		e := newTestEngine(contract.DecreaseForbid)
		s := newTestProgressService(t, e, 2)
		id := seedStale(t, e, "ORD-1")

		res, err := s.CalculateContractProgress(ctx, RecalculateCommand{ContractID: id, RequestedBy: "scheduler", CorrelationID: "corr-1"})

		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, "C001", res.ContractCode)
		assert.Equal(t, int64(25), res.Progress.CompletionRate)
		assert.Equal(t, contract.ProgressInProgress, res.Progress.Status)
		assert.Equal(t, 2, res.Version)

		stored, _ := e.repo.GetByID(ctx, id)
		assert.Equal(t, int64(25), stored.CompletionRate)
		assert.Equal(t, int64(250), stored.CompletedAmount)
		assert.Equal(t, 2, stored.Version)

		entry := e.recorder.last()
		assert.Equal(t, shared.EventProgressRecalculated, entry.Type)
		assert.Equal(t, "scheduler", entry.Actor)
		assert.Equal(t, "corr-1", entry.CorrelationID)
	})

	t.Run("Up to date contract is not written", func(t *testing.T) {
		e := newTestEngine(contract.DecreaseForbid)
		s := newTestProgressService(t, e, 2)
		created := e.mustCreate(t, "ORD-1", 1000)

		res, err := s.CalculateContractProgress(ctx, RecalculateCommand{ContractID: created.ContractID, RequestedBy: "scheduler"})

		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, 1, res.Version)
		assert.Equal(t, contract.ProgressNotStarted, res.Progress.Status)
		assert.Equal(t, []shared.EventType{shared.EventContractCreated}, e.recorder.types())
	})

	t.Run("Missing contract", func(t *testing.T) {
		e := newTestEngine(contract.DecreaseForbid)
		s := newTestProgressService(t, e, 2)

		_, err := s.CalculateContractProgress(ctx, RecalculateCommand{ContractID: uuid.New()})

		assert.Equal(t, contract.KindNotFound, contract.KindOf(err))
	})
}

func TestProgressService_CalculateAllContractsProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("Every contract is processed", func(t *testing.T) {
		e := newTestEngine(contract.DecreaseForbid)
		s := newTestProgressService(t, e, 3)
		var ids []uuid.UUID
		for _, orderNo := range []string{"ORD-1", "ORD-2", "ORD-3", "ORD-4", "ORD-5"} {
			ids = append(ids, seedStale(t, e, orderNo))
		}
		fresh := e.mustCreate(t, "ORD-6", 500)
		ids = append(ids, fresh.ContractID)

		results, err := s.CalculateAllContractsProgress(ctx, "scheduler", "batch-1")

		require.NoError(t, err)
		require.Len(t, results, 6)
		for i, r := range results {
			assert.Equal(t, ids[i], r.ContractID)
			assert.NoError(t, r.Err)
			require.NotNil(t, r.Progress)
		}
		assert.True(t, results[0].Changed)
		assert.False(t, results[5].Changed)
		assert.Equal(t, int64(25), results[4].Progress.CompletionRate)
	})

	t.Run("Failures are isolated per contract", func(t *testing.T) {
		e := newTestEngine(contract.DecreaseForbid)
		s := newTestProgressService(t, e, 2)
		good := seedStale(t, e, "ORD-1")
		gone := uuid.New()
		e.repo.order = append(e.repo.order, gone)

		results, err := s.CalculateAllContractsProgress(ctx, "scheduler", "")

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, good, results[0].ContractID)
		assert.NoError(t, results[0].Err)
		assert.Equal(t, gone, results[1].ContractID)
		assert.Error(t, results[1].Err)
		assert.Equal(t, contract.KindNotFound, results[1].ErrorKind)
		assert.Contains(t, results[1].ErrorMessage, gone.String())
		assert.Nil(t, results[1].Progress)
	})

	t.Run("Listing failure aborts", func(t *testing.T) {
		e := newTestEngine(contract.DecreaseForbid)
		s := newTestProgressService(t, e, 2)
		e.repo.failWith = errStorage

		_, err := s.CalculateAllContractsProgress(ctx, "scheduler", "")

		assert.ErrorIs(t, err, errStorage)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		e := newTestEngine(contract.DecreaseForbid)
		s := newTestProgressService(t, e, 2)
		seedStale(t, e, "ORD-1")
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		results, err := s.CalculateAllContractsProgress(cancelled, "scheduler", "")

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Err, context.Canceled)
	})

	t.Run("Pool capacity", func(t *testing.T) {
		e := newTestEngine(contract.DecreaseForbid)
		s := newTestProgressService(t, e, 4)
		assert.Equal(t, 4, s.Capacity())
		assert.Equal(t, 0, s.Running())
	})
}
