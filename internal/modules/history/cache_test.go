package history

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/georgemunganga/printa-pos/internal/modules/pos"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errDown = errors.New("connection refused")

// stubRepo delegates to a memory repository unless a hook is set.
type stubRepo struct {
	*pos.MemoryRepository
	list    func(ctx context.Context, f pos.Filter) ([]pos.Transaction, error)
	create  func(ctx context.Context, d pos.Draft) (pos.Transaction, error)
	void    func(ctx context.Context, id, reason string) error
	creates atomic.Int32
}

func newStubRepo() *stubRepo { return &stubRepo{MemoryRepository: pos.NewMemoryRepository()} }

func (s *stubRepo) List(ctx context.Context, f pos.Filter) ([]pos.Transaction, error) {
	if s.list != nil {
		return s.list(ctx, f)
	}
	return s.MemoryRepository.List(ctx, f)
}

func (s *stubRepo) Create(ctx context.Context, d pos.Draft) (pos.Transaction, error) {
	s.creates.Add(1)
	if s.create != nil {
		return s.create(ctx, d)
	}
	return s.MemoryRepository.Create(ctx, d)
}

func (s *stubRepo) Void(ctx context.Context, id, reason string) error {
	if s.void != nil {
		return s.void(ctx, id, reason)
	}
	return s.MemoryRepository.Void(ctx, id, reason)
}

func draft(branchID string) pos.Draft {
	return pos.Draft{
		StoreID:    "daily-dope",
		StoreName:  "Daily Dope Vape Shop",
		BranchID:   branchID,
		BranchName: branchID,
		Items: []pos.TransactionItem{
			{ProductID: "a", ProductName: "A", Quantity: 2, UnitPrice: decimal.NewFromInt(10), LineTotal: decimal.NewFromInt(20)},
		},
		Subtotal: decimal.NewFromInt(20),
		Discount: decimal.Zero,
		Total:    decimal.NewFromInt(20),
	}
}

func TestRefreshReplacesRecords(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	_, err := repo.MemoryRepository.Create(ctx, draft("vicas"))
	require.NoError(t, err)
	_, err = repo.MemoryRepository.Create(ctx, draft("deparo"))
	require.NoError(t, err)

	c := New(repo, zap.NewNop())
	require.NoError(t, c.Refresh(ctx, pos.Filter{StoreID: "daily-dope", BranchID: "vicas"}))

	s := c.State()
	require.Len(t, s.Records, 1)
	assert.Equal(t, "vicas", s.Records[0].BranchID)
	assert.False(t, s.Loading)
	assert.Empty(t, s.LastError)
}

func TestRefreshFailureKeepsRecords(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	repo.MemoryRepository.Create(ctx, draft("vicas"))
	c := New(repo, zap.NewNop())
	require.NoError(t, c.Refresh(ctx, pos.Filter{}))

	repo.list = func(context.Context, pos.Filter) ([]pos.Transaction, error) { return nil, errDown }
	assert.ErrorIs(t, c.Refresh(ctx, pos.Filter{}), errDown)

	s := c.State()
	assert.Len(t, s.Records, 1)
	assert.False(t, s.Loading)
	assert.Equal(t, errDown.Error(), s.LastError)
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	ctx := context.Background()
	older := []pos.Transaction{{ID: "from-r1"}}
	newer := []pos.Transaction{{ID: "from-r2"}}

	started := make(chan struct{})
	release := make(chan struct{})
	repo := newStubRepo()
	repo.list = func(_ context.Context, f pos.Filter) ([]pos.Transaction, error) {
		if f.BranchID == "r1" {
			close(started)
			<-release
			return older, nil
		}
		return newer, nil
	}
	c := New(repo, zap.NewNop())

	var g errgroup.Group
	var r1Err error
	g.Go(func() error {
		r1Err = c.Refresh(ctx, pos.Filter{BranchID: "r1"})
		return nil
	})
	<-started

	require.NoError(t, c.Refresh(ctx, pos.Filter{BranchID: "r2"}))
	close(release)
	require.NoError(t, g.Wait())

	assert.ErrorIs(t, r1Err, ErrStale)
	s := c.State()
	require.Len(t, s.Records, 1)
	assert.Equal(t, "from-r2", s.Records[0].ID)
	assert.False(t, s.Loading)
}

func TestCreatePrependsCompletedRecord(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	repo.MemoryRepository.Create(ctx, draft("vicas"))
	c := New(repo, zap.NewNop())
	require.NoError(t, c.Refresh(ctx, pos.Filter{}))

	created, err := c.Create(ctx, draft("vicas"))
	require.NoError(t, err)

	s := c.State()
	require.Len(t, s.Records, 2)
	assert.Equal(t, created.ID, s.Records[0].ID)
	assert.Equal(t, pos.StatusCompleted, s.Records[0].Status)
}

func TestCreateDeduplicatesByID(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	c := New(repo, zap.NewNop())

	created, err := c.Create(ctx, draft("vicas"))
	require.NoError(t, err)
	require.NoError(t, c.Refresh(ctx, pos.Filter{}))

	repo.create = func(context.Context, pos.Draft) (pos.Transaction, error) { return created, nil }
	_, err = c.Create(ctx, draft("vicas"))
	require.NoError(t, err)
	assert.Len(t, c.State().Records, 1)
}

func TestCreateRejectsEmptyDraft(t *testing.T) {
	repo := newStubRepo()
	c := New(repo, zap.NewNop())

	_, err := c.Create(context.Background(), pos.Draft{StoreID: "daily-dope", BranchID: "vicas"})
	assert.ErrorIs(t, err, pos.ErrInvalidCheckout)
	assert.Zero(t, repo.creates.Load())
	assert.Empty(t, c.State().LastError)
}

func TestCreateFailureLeavesRecords(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	repo.MemoryRepository.Create(ctx, draft("vicas"))
	c := New(repo, zap.NewNop())
	require.NoError(t, c.Refresh(ctx, pos.Filter{}))

	repo.create = func(context.Context, pos.Draft) (pos.Transaction, error) { return pos.Transaction{}, errDown }
	_, err := c.Create(ctx, draft("vicas"))
	assert.ErrorIs(t, err, errDown)

	s := c.State()
	assert.Len(t, s.Records, 1)
	assert.Equal(t, errDown.Error(), s.LastError)
}

func TestVoidIsVisibleBeforeConfirmation(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	tx, err := repo.MemoryRepository.Create(ctx, draft("vicas"))
	require.NoError(t, err)

	c := New(repo, zap.NewNop(), WithClock(func() int64 { return 4242 }))
	require.NoError(t, c.Refresh(ctx, pos.Filter{StoreID: "daily-dope"}))

	inFlight := make(chan struct{})
	release := make(chan struct{})
	repo.void = func(context.Context, string, string) error {
		close(inFlight)
		<-release
		return errDown
	}

	var g errgroup.Group
	var voidErr error
	g.Go(func() error {
		voidErr = c.Void(ctx, tx.ID, "damaged")
		return nil
	})
	<-inFlight

	local, ok := c.Find(tx.ID)
	require.True(t, ok)
	assert.Equal(t, pos.StatusVoided, local.Status)
	assert.Equal(t, "damaged", local.VoidReason)
	require.NotNil(t, local.VoidedAt)
	assert.Equal(t, int64(4242), *local.VoidedAt)

	close(release)
	require.NoError(t, g.Wait())
	assert.ErrorIs(t, voidErr, errDown)

	// The void never reached the repository, so reconciliation reverts it.
	local, ok = c.Find(tx.ID)
	require.True(t, ok)
	assert.Equal(t, pos.StatusCompleted, local.Status)
	assert.Nil(t, local.VoidedAt)
}

func TestVoidConfirmedKeepsLocalMark(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	tx, _ := repo.MemoryRepository.Create(ctx, draft("vicas"))
	c := New(repo, zap.NewNop())
	require.NoError(t, c.Refresh(ctx, pos.Filter{}))

	require.NoError(t, c.Void(ctx, tx.ID, ""))
	local, _ := c.Find(tx.ID)
	assert.Equal(t, pos.StatusVoided, local.Status)
	assert.Empty(t, local.VoidReason)

	stored, _ := repo.MemoryRepository.List(ctx, pos.Filter{})
	assert.Equal(t, pos.StatusVoided, stored[0].Status)
}

func TestVoidUnknownIDReportsNotFound(t *testing.T) {
	ctx := context.Background()
	c := New(newStubRepo(), zap.NewNop())
	err := c.Void(ctx, "TXN-0-missing", "")
	assert.ErrorIs(t, err, pos.ErrNotFound)
}

func TestSubscribeSeesLoadingTransitions(t *testing.T) {
	ctx := context.Background()
	c := New(newStubRepo(), zap.NewNop())

	var loading []bool
	unsubscribe := c.Subscribe(func(s State) { loading = append(loading, s.Loading) })
	require.NoError(t, c.Refresh(ctx, pos.Filter{}))
	assert.Equal(t, []bool{true, false}, loading)

	unsubscribe()
	require.NoError(t, c.Refresh(ctx, pos.Filter{}))
	assert.Len(t, loading, 2)
}

// blockAfterRead makes the next List read the repository, then wait for
// release before answering. It returns a channel closed once the read is done.
func blockAfterRead(repo *stubRepo, release <-chan struct{}) <-chan struct{} {
	read := make(chan struct{})
	var once atomic.Bool
	repo.list = func(ctx context.Context, f pos.Filter) ([]pos.Transaction, error) {
		records, err := repo.MemoryRepository.List(ctx, f)
		if once.CompareAndSwap(false, true) {
			close(read)
			<-release
		}
		return records, err
	}
	return read
}

func TestRefreshIssuedBeforeCreateKeepsNewSale(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	c := New(repo, zap.NewNop())

	release := make(chan struct{})
	read := blockAfterRead(repo, release)

	var g errgroup.Group
	g.Go(func() error { return c.Refresh(ctx, pos.Filter{StoreID: "daily-dope"}) })
	<-read

	created, err := c.Create(ctx, draft("vicas"))
	require.NoError(t, err)
	close(release)
	require.NoError(t, g.Wait())

	s := c.State()
	require.Len(t, s.Records, 1)
	assert.Equal(t, created.ID, s.Records[0].ID)
	assert.False(t, s.Loading)
}

func TestRefreshIssuedBeforeVoidKeepsMark(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	tx, err := repo.MemoryRepository.Create(ctx, draft("vicas"))
	require.NoError(t, err)
	c := New(repo, zap.NewNop())
	require.NoError(t, c.Refresh(ctx, pos.Filter{}))

	release := make(chan struct{})
	read := blockAfterRead(repo, release)

	var g errgroup.Group
	g.Go(func() error { return c.Refresh(ctx, pos.Filter{}) })
	<-read

	require.NoError(t, c.Void(ctx, tx.ID, "damaged"))
	close(release)
	require.NoError(t, g.Wait())

	local, ok := c.Find(tx.ID)
	require.True(t, ok)
	assert.Equal(t, pos.StatusVoided, local.Status)
	assert.Equal(t, "damaged", local.VoidReason)
}

func TestCreateOutsideRefreshedScopeIsNotShown(t *testing.T) {
	ctx := context.Background()
	c := New(newStubRepo(), zap.NewNop())
	require.NoError(t, c.Refresh(ctx, pos.Filter{StoreID: "daily-dope", BranchID: "deparo"}))

	_, err := c.Create(ctx, draft("vicas"))
	require.NoError(t, err)
	assert.Empty(t, c.State().Records)
}
