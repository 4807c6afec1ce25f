// internal/domain/movement/engine_test.go
package movement

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/sitestock-backend/internal/config"
	"github.com/your-org/sitestock-backend/internal/domain/actor"
	"github.com/your-org/sitestock-backend/internal/domain/audit"
	"github.com/your-org/sitestock-backend/internal/domain/item"
)

// memStore is an in-memory Store. A single mutex held for the whole
// transaction makes every transaction serializable; raceLeft injects
// serialization failures to exercise the retry loop.
type memStore struct {
	mu         sync.Mutex
	supplies   map[uint]*item.Supply
	electrical map[uint]*item.Electrical
	manual     map[uint]*item.ManualTool
	sites      map[uint]*actor.Site
	custodians map[uint]*actor.Custodian
	movements  []Movement
	audits     []audit.Entry
	nextID     uint
	clock      time.Time
	raceLeft   int
}

func newMemStore() *memStore {
	return &memStore{
		supplies:   map[uint]*item.Supply{},
		electrical: map[uint]*item.Electrical{},
		manual:     map[uint]*item.ManualTool{},
		sites:      map[uint]*actor.Site{},
		custodians: map[uint]*actor.Custodian{},
		nextID:     1,
		clock:      time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

type storeState struct {
	supplies   map[uint]item.Supply
	electrical map[uint]item.Electrical
	manual     map[uint]item.ManualTool
	movements  []Movement
	audits     []audit.Entry
	nextID     uint
	clock      time.Time
}

func (s *memStore) snapshot() storeState {
	st := storeState{
		supplies:   map[uint]item.Supply{},
		electrical: map[uint]item.Electrical{},
		manual:     map[uint]item.ManualTool{},
		movements:  append([]Movement(nil), s.movements...),
		audits:     append([]audit.Entry(nil), s.audits...),
		nextID:     s.nextID,
		clock:      s.clock,
	}
	for id, v := range s.supplies {
		st.supplies[id] = *v
	}
	for id, v := range s.electrical {
		st.electrical[id] = *v
	}
	for id, v := range s.manual {
		st.manual[id] = *v
	}
	return st
}

func (s *memStore) restore(st storeState) {
	for id := range s.supplies {
		if prev, ok := st.supplies[id]; ok {
			*s.supplies[id] = prev
		}
	}
	for id := range s.electrical {
		if prev, ok := st.electrical[id]; ok {
			*s.electrical[id] = prev
		}
	}
	for id := range s.manual {
		if prev, ok := st.manual[id]; ok {
			*s.manual[id] = prev
		}
	}
	s.movements = st.movements
	s.audits = st.audits
	s.nextID = st.nextID
	s.clock = st.clock
}

func (s *memStore) Transaction(ctx context.Context, fn func(Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.snapshot()
	if err := fn(&memSession{store: s}); err != nil {
		s.restore(before)
		return err
	}
	if s.raceLeft > 0 {
		s.raceLeft--
		s.restore(before)
		return ErrRaceConflict
	}
	return nil
}

func (s *memStore) RecordAudit(ctx context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.HappenedAt.IsZero() {
		entry.HappenedAt = s.clock
	}
	s.audits = append(s.audits, *entry)
	return nil
}

func (s *memStore) Query(ctx context.Context, filter QueryFilter) ([]Movement, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Movement
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if filter.ItemKind != "" && m.ItemKind != filter.ItemKind {
			continue
		}
		if filter.ItemID != 0 && m.ItemID != filter.ItemID {
			continue
		}
		if filter.Kind != "" && m.Kind != filter.Kind {
			continue
		}
		matched = append(matched, m)
	}

	total := int64(len(matched))
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

type memSession struct {
	store *memStore
}

func (s *memSession) ItemForUpdate(kind item.Kind, id uint) (*item.Item, error) {
	switch kind {
	case item.KindSupply:
		if supply, ok := s.store.supplies[id]; ok {
			return &item.Item{Kind: kind, Supply: supply}, nil
		}
	case item.KindElectrical:
		if eq, ok := s.store.electrical[id]; ok {
			return &item.Item{Kind: kind, Electrical: eq}, nil
		}
	case item.KindManual:
		if tool, ok := s.store.manual[id]; ok {
			return &item.Item{Kind: kind, Manual: tool}, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memSession) ItemByCodeForUpdate(kind item.Kind, code string) (*item.Item, error) {
	switch kind {
	case item.KindSupply:
		for _, supply := range s.store.supplies {
			if supply.Code == code {
				return &item.Item{Kind: kind, Supply: supply}, nil
			}
		}
	case item.KindElectrical:
		for _, eq := range s.store.electrical {
			if eq.Code == code {
				return &item.Item{Kind: kind, Electrical: eq}, nil
			}
		}
	case item.KindManual:
		for _, tool := range s.store.manual {
			if tool.Code == code {
				return &item.Item{Kind: kind, Manual: tool}, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (s *memSession) Site(id uint) (*actor.Site, error) {
	if site, ok := s.store.sites[id]; ok {
		return site, nil
	}
	return nil, ErrNotFound
}

func (s *memSession) Custodian(id uint) (*actor.Custodian, error) {
	if custodian, ok := s.store.custodians[id]; ok {
		return custodian, nil
	}
	return nil, ErrNotFound
}

func (s *memSession) hasCompensator(id uint) bool {
	for _, m := range s.store.movements {
		if m.CancelsMovementID != nil && *m.CancelsMovementID == id {
			return true
		}
	}
	return false
}

func (s *memSession) LatestOutbound(kind item.Kind, id uint) (*Movement, error) {
	for i := len(s.store.movements) - 1; i >= 0; i-- {
		m := s.store.movements[i]
		if m.ItemKind != kind || m.ItemID != id {
			continue
		}
		if m.CancelsMovementID != nil || s.hasCompensator(m.ID) {
			continue
		}
		switch m.Kind {
		case KindExit, KindTransfer:
			latest := m
			return &latest, nil
		case KindEntry, KindReturn:
			return nil, nil
		}
	}
	return nil, nil
}

func (s *memSession) HasDocumentRef(kind item.Kind, id uint, ref string) (bool, error) {
	for _, m := range s.store.movements {
		if m.ItemKind == kind && m.ItemID == id && m.DocumentRef == ref && m.CancelsMovementID == nil {
			return true, nil
		}
	}
	return false, nil
}

func (s *memSession) MovementByID(id uint) (*Movement, error) {
	for _, m := range s.store.movements {
		if m.ID == id {
			found := m
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memSession) CancellationOf(id uint) (*Movement, error) {
	for _, m := range s.store.movements {
		if m.CancelsMovementID != nil && *m.CancelsMovementID == id {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memSession) ApplyStockDelta(supply *item.Supply, delta decimal.Decimal) error {
	newOnHand := supply.OnHand.Add(delta)
	if newOnHand.IsNegative() {
		return ErrNegativeStock
	}
	supply.OnHand = newOnHand
	supply.Version++
	return nil
}

func (s *memSession) ApplyPlacement(it *item.Item, placement item.Placement) error {
	switch it.Kind {
	case item.KindElectrical:
		it.Electrical.CurrentSiteID = placement.SiteID
		it.Electrical.CurrentCustodianID = placement.CustodianID
		it.Electrical.Status = placement.Status
	case item.KindManual:
		it.Manual.CurrentSiteID = placement.SiteID
		it.Manual.CurrentCustodianID = placement.CustodianID
		it.Manual.Status = placement.Status
	}
	return nil
}

func (s *memSession) AppendMovement(m *Movement) error {
	m.ID = s.store.nextID
	s.store.nextID++
	s.store.clock = s.store.clock.Add(time.Second)
	m.EventTime = s.store.clock
	s.store.movements = append(s.store.movements, *m)
	return nil
}

func (s *memSession) RecordAudit(entry *audit.Entry) error {
	if entry.HappenedAt.IsZero() {
		entry.HappenedAt = s.store.clock
	}
	s.store.audits = append(s.store.audits, *entry)
	return nil
}

// Test fixtures

const testActor = uint(42)

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			MaxRaceRetries: 3,
			SubmitDeadline: 5 * time.Second,
		},
	}
}

func testEngine(t *testing.T, store *memStore) *Engine {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewEngine(store, testConfig(), logger)
}

func seedStore() *memStore {
	store := newMemStore()
	store.supplies[1] = &item.Supply{
		ID: 1, Code: "SUP-CEM-001", Description: "Cement 50kg", Unit: "bag",
		OnHand: decimal.NewFromInt(10), Active: true,
	}
	store.electrical[2] = &item.Electrical{
		ID: 2, Code: "ELE-DRL-001", Description: "Hammer drill",
		Status: item.StatusAvailable, Active: true,
	}
	store.manual[3] = &item.ManualTool{
		ID: 3, Code: "MAN-HAM-001", Description: "Claw hammer",
		Status: item.StatusAvailable, Quantity: 5, Active: true,
	}
	store.sites[1] = &actor.Site{ID: 1, Code: "WH-01", Name: "Warehouse", Active: true}
	store.sites[2] = &actor.Site{ID: 2, Code: "SITE-A", Name: "Site A", Active: true}
	store.custodians[1] = &actor.Custodian{ID: 1, Code: "CUST-01", Name: "Keeper", Active: true}
	return store
}

func submit(t *testing.T, engine *Engine, req *SubmitRequest) *Movement {
	t.Helper()
	mv, err := engine.Submit(context.Background(), req, testActor)
	require.NoError(t, err)
	require.NotNil(t, mv)
	return mv
}

func submitRejected(t *testing.T, engine *Engine, req *SubmitRequest) *Rejection {
	t.Helper()
	mv, err := engine.Submit(context.Background(), req, testActor)
	require.Nil(t, mv)
	rej, ok := AsRejection(err)
	require.True(t, ok, "expected a rejection, got %v", err)
	return rej
}

func TestSubmitEntryIncreasesOnHand(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)

	mv := submit(t, engine, &SubmitRequest{
		MovementKind:      KindEntry,
		ItemKind:          item.KindSupply,
		ItemID:            1,
		Quantity:          decimal.RequireFromString("5.500"),
		DestinationSiteID: uintPtr(1),
		DocumentRef:       "NF-1001",
	})

	assert.Equal(t, StatusCommitted, mv.Status)
	assert.Equal(t, "SUP-CEM-001", mv.ItemCodeSnapshot)
	assert.Equal(t, "bag", mv.Unit)
	assert.Equal(t, testActor, mv.ActorUserID)
	assert.True(t, store.supplies[1].OnHand.Equal(decimal.RequireFromString("15.500")))

	require.Len(t, store.audits, 1)
	assert.Equal(t, audit.ActionMovementCommitted, store.audits[0].Action)
	assert.Equal(t, testActor, store.audits[0].UserID)
}

func TestSubmitExitInsufficientStock(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)

	rej := submitRejected(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindSupply,
		ItemID:            1,
		Quantity:          decimal.NewFromInt(11),
		DestinationSiteID: uintPtr(2),
	})

	assert.Equal(t, ReasonInsufficientStock, rej.Reason)
	assert.True(t, store.supplies[1].OnHand.Equal(decimal.NewFromInt(10)), "stock must be untouched")
	assert.Empty(t, store.movements, "no ledger row for a rejected attempt")

	require.Len(t, store.audits, 1)
	assert.Equal(t, audit.ActionAttemptRejected, store.audits[0].Action)
	assert.Equal(t, string(ReasonInsufficientStock), store.audits[0].Note)
}

func TestSubmitUnknownItem(t *testing.T) {
	engine := testEngine(t, seedStore())

	rej := submitRejected(t, engine, &SubmitRequest{
		MovementKind: KindEntry,
		ItemKind:     item.KindSupply,
		ItemID:       99,
		Quantity:     decimal.NewFromInt(1),
	})
	assert.Equal(t, ReasonUnknownItem, rej.Reason)

	rej = submitRejected(t, engine, &SubmitRequest{
		MovementKind: KindEntry,
		ItemKind:     item.KindSupply,
		ItemCode:     "NO-SUCH-CODE",
		Quantity:     decimal.NewFromInt(1),
	})
	assert.Equal(t, ReasonUnknownItem, rej.Reason)
}

func TestSubmitUnknownActor(t *testing.T) {
	engine := testEngine(t, seedStore())

	rej := submitRejected(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindSupply,
		ItemID:            1,
		Quantity:          decimal.NewFromInt(1),
		DestinationSiteID: uintPtr(99),
	})

	assert.Equal(t, ReasonUnknownActor, rej.Reason)
	assert.Equal(t, "destination_site", rej.Detail["which"])
}

func TestSubmitInactiveItem(t *testing.T) {
	store := seedStore()
	store.supplies[1].Active = false
	engine := testEngine(t, store)

	rej := submitRejected(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindSupply,
		ItemID:            1,
		Quantity:          decimal.NewFromInt(1),
		DestinationSiteID: uintPtr(2),
	})
	assert.Equal(t, ReasonItemInactive, rej.Reason)
}

func TestElectricalExitReturnCycle(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)
	one := decimal.NewFromInt(1)

	submit(t, engine, &SubmitRequest{
		MovementKind:           KindExit,
		ItemKind:               item.KindElectrical,
		ItemID:                 2,
		Quantity:               one,
		DestinationSiteID:      uintPtr(2),
		DestinationCustodianID: uintPtr(1),
	})

	eq := store.electrical[2]
	assert.Equal(t, item.StatusInUse, eq.Status)
	require.NotNil(t, eq.CurrentSiteID)
	assert.Equal(t, uint(2), *eq.CurrentSiteID)

	// Issuing the same unit again must fail until it comes back.
	rej := submitRejected(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindElectrical,
		ItemID:            2,
		Quantity:          one,
		DestinationSiteID: uintPtr(1),
	})
	assert.Equal(t, ReasonAlreadyIssued, rej.Reason)
	assert.Equal(t, uint(2), rej.Detail["site_id"])

	submit(t, engine, &SubmitRequest{
		MovementKind: KindReturn,
		ItemKind:     item.KindElectrical,
		ItemID:       2,
		Quantity:     one,
		OriginSiteID: uintPtr(2),
	})

	assert.Equal(t, item.StatusAvailable, eq.Status)
	assert.Nil(t, eq.CurrentSiteID)
	assert.Nil(t, eq.CurrentCustodianID)

	// Back in stock, a fresh exit goes through.
	submit(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindElectrical,
		ItemID:            2,
		Quantity:          one,
		DestinationSiteID: uintPtr(1),
	})
}

func TestElectricalTransferWhileIssued(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)
	one := decimal.NewFromInt(1)

	submit(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindElectrical,
		ItemID:            2,
		Quantity:          one,
		DestinationSiteID: uintPtr(1),
	})

	submit(t, engine, &SubmitRequest{
		MovementKind:      KindTransfer,
		ItemKind:          item.KindElectrical,
		ItemID:            2,
		Quantity:          one,
		OriginSiteID:      uintPtr(1),
		DestinationSiteID: uintPtr(2),
	})

	eq := store.electrical[2]
	assert.Equal(t, item.StatusInUse, eq.Status)
	require.NotNil(t, eq.CurrentSiteID)
	assert.Equal(t, uint(2), *eq.CurrentSiteID)
}

func TestManualPartialExit(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)

	submit(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindManual,
		ItemID:            3,
		Quantity:          decimal.NewFromInt(3),
		DestinationSiteID: uintPtr(2),
	})

	tool := store.manual[3]
	assert.Equal(t, item.StatusInUse, tool.Status)
	assert.Equal(t, 5, tool.Quantity, "owned quantity is administrative, not engine-owned")

	rej := submitRejected(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindManual,
		ItemID:            3,
		Quantity:          decimal.NewFromInt(6),
		DestinationSiteID: uintPtr(2),
	})
	assert.Equal(t, ReasonInsufficientStock, rej.Reason)
}

func TestWriteOffStatus(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)
	one := decimal.NewFromInt(1)

	submit(t, engine, &SubmitRequest{
		MovementKind: KindWriteOff,
		ItemKind:     item.KindElectrical,
		ItemID:       2,
		Quantity:     one,
		Reason:       "burned motor",
	})
	assert.Equal(t, item.StatusDamaged, store.electrical[2].Status)

	submit(t, engine, &SubmitRequest{
		MovementKind:   KindWriteOff,
		ItemKind:       item.KindManual,
		ItemID:         3,
		Quantity:       one,
		WriteOffStatus: item.StatusInactive,
	})
	assert.Equal(t, item.StatusInactive, store.manual[3].Status)
}

func TestSupplyLedgerFoldMatchesOnHand(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)

	steps := []struct {
		kind Kind
		qty  string
	}{
		{KindEntry, "20"},
		{KindExit, "7.250"},
		{KindEntry, "3"},
		{KindReturn, "1.250"},
		{KindExit, "10"},
		{KindTransfer, "4"},
	}
	for _, step := range steps {
		req := &SubmitRequest{
			MovementKind: step.kind,
			ItemKind:     item.KindSupply,
			ItemID:       1,
			Quantity:     decimal.RequireFromString(step.qty),
		}
		switch step.kind {
		case KindExit:
			req.DestinationSiteID = uintPtr(2)
		case KindReturn:
			req.OriginSiteID = uintPtr(2)
		case KindTransfer:
			req.OriginSiteID = uintPtr(1)
			req.DestinationSiteID = uintPtr(2)
		}
		submit(t, engine, req)
	}

	folded := decimal.NewFromInt(10) // initial stock
	for _, m := range store.movements {
		folded = folded.Add(stockDelta(m.Kind, m.Quantity))
	}
	assert.True(t, folded.Equal(store.supplies[1].OnHand),
		"folded %s, on hand %s", folded, store.supplies[1].OnHand)
}

func TestDocumentRefGuard(t *testing.T) {
	store := seedStore()
	cfg := testConfig()
	cfg.Engine.DocumentRefGuard = true
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	engine := NewEngine(store, cfg, logger)

	req := func() *SubmitRequest {
		return &SubmitRequest{
			MovementKind: KindEntry,
			ItemKind:     item.KindSupply,
			ItemID:       1,
			Quantity:     decimal.NewFromInt(5),
			DocumentRef:  "NF-2001",
		}
	}

	submit(t, engine, req())

	rej := submitRejected(t, engine, req())
	assert.Equal(t, ReasonDuplicateMovement, rej.Reason)
	assert.Equal(t, "NF-2001", rej.Detail["document_ref"])

	// Without a document ref the guard does not apply.
	noRef := req()
	noRef.DocumentRef = ""
	submit(t, engine, noRef)
}

func TestSubmitWithoutGuardIsNotIdempotent(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)

	req := &SubmitRequest{
		MovementKind: KindEntry,
		ItemKind:     item.KindSupply,
		ItemID:       1,
		Quantity:     decimal.NewFromInt(5),
		DocumentRef:  "NF-3001",
	}
	submit(t, engine, req)
	submit(t, engine, req)

	assert.True(t, store.supplies[1].OnHand.Equal(decimal.NewFromInt(20)))
	assert.Len(t, store.movements, 2)
}

func TestRaceConflictRetriesThenSucceeds(t *testing.T) {
	store := seedStore()
	store.raceLeft = 2
	engine := testEngine(t, store)

	submit(t, engine, &SubmitRequest{
		MovementKind: KindEntry,
		ItemKind:     item.KindSupply,
		ItemID:       1,
		Quantity:     decimal.NewFromInt(1),
	})

	assert.True(t, store.supplies[1].OnHand.Equal(decimal.NewFromInt(11)))
	assert.Len(t, store.movements, 1, "only the winning attempt lands in the ledger")
}

func TestRaceConflictExhaustsRetries(t *testing.T) {
	store := seedStore()
	store.raceLeft = 10
	engine := testEngine(t, store)

	rej := submitRejected(t, engine, &SubmitRequest{
		MovementKind: KindEntry,
		ItemKind:     item.KindSupply,
		ItemID:       1,
		Quantity:     decimal.NewFromInt(1),
	})

	assert.Equal(t, ReasonRaceConflict, rej.Reason)
	assert.True(t, store.supplies[1].OnHand.Equal(decimal.NewFromInt(10)))
}

func TestExitWithExpectedReturnDateIsPending(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	mv := submit(t, engine, &SubmitRequest{
		MovementKind:       KindExit,
		ItemKind:           item.KindManual,
		ItemID:             3,
		Quantity:           decimal.NewFromInt(1),
		DestinationSiteID:  uintPtr(2),
		ExpectedReturnDate: &due,
	})

	assert.Equal(t, StatusPending, mv.Status)
}

func TestTotalValueComputedFromUnitValue(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)
	unitValue := decimal.RequireFromString("12.50")

	mv := submit(t, engine, &SubmitRequest{
		MovementKind: KindEntry,
		ItemKind:     item.KindSupply,
		ItemID:       1,
		Quantity:     decimal.NewFromInt(4),
		UnitValue:    &unitValue,
	})

	require.NotNil(t, mv.TotalValue)
	assert.True(t, mv.TotalValue.Equal(decimal.RequireFromString("50.00")))
}

func TestCancelExitRestoresStock(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)

	mv := submit(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindSupply,
		ItemID:            1,
		Quantity:          decimal.NewFromInt(4),
		DestinationSiteID: uintPtr(2),
	})
	require.True(t, store.supplies[1].OnHand.Equal(decimal.NewFromInt(6)))

	comp, err := engine.Cancel(context.Background(), mv.ID, testActor)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, comp.Status)
	require.NotNil(t, comp.CancelsMovementID)
	assert.Equal(t, mv.ID, *comp.CancelsMovementID)
	assert.True(t, store.supplies[1].OnHand.Equal(decimal.NewFromInt(10)))

	// A movement cannot be cancelled twice.
	_, err = engine.Cancel(context.Background(), mv.ID, testActor)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonAlreadyCancelled, rej.Reason)
}

func TestCancelUnknownMovement(t *testing.T) {
	engine := testEngine(t, seedStore())

	_, err := engine.Cancel(context.Background(), 999, testActor)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonUnknownMovement, rej.Reason)
}

func TestCancelReturnReissuesTrackedItem(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)
	one := decimal.NewFromInt(1)

	submit(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindElectrical,
		ItemID:            2,
		Quantity:          one,
		DestinationSiteID: uintPtr(2),
	})
	ret := submit(t, engine, &SubmitRequest{
		MovementKind: KindReturn,
		ItemKind:     item.KindElectrical,
		ItemID:       2,
		Quantity:     one,
		OriginSiteID: uintPtr(2),
	})
	require.Equal(t, item.StatusAvailable, store.electrical[2].Status)

	_, err := engine.Cancel(context.Background(), ret.ID, testActor)
	require.NoError(t, err)

	eq := store.electrical[2]
	assert.Equal(t, item.StatusInUse, eq.Status)
	require.NotNil(t, eq.CurrentSiteID)
	assert.Equal(t, uint(2), *eq.CurrentSiteID)
}

func TestCancelTransferRestoresPriorPlacement(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)
	one := decimal.NewFromInt(1)

	submit(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindElectrical,
		ItemID:            2,
		Quantity:          one,
		DestinationSiteID: uintPtr(1),
	})
	tr := submit(t, engine, &SubmitRequest{
		MovementKind:      KindTransfer,
		ItemKind:          item.KindElectrical,
		ItemID:            2,
		Quantity:          one,
		OriginSiteID:      uintPtr(1),
		DestinationSiteID: uintPtr(2),
	})

	_, err := engine.Cancel(context.Background(), tr.ID, testActor)
	require.NoError(t, err)

	// The unit goes back to where the transfer took it from, still issued.
	eq := store.electrical[2]
	assert.Equal(t, item.StatusInUse, eq.Status)
	require.NotNil(t, eq.CurrentSiteID)
	assert.Equal(t, uint(1), *eq.CurrentSiteID)

	// The original exit is still outstanding, so the ledger agrees.
	rej := submitRejected(t, engine, &SubmitRequest{
		MovementKind:      KindExit,
		ItemKind:          item.KindElectrical,
		ItemID:            2,
		Quantity:          one,
		DestinationSiteID: uintPtr(2),
	})
	assert.Equal(t, ReasonAlreadyIssued, rej.Reason)
}

func TestCancelTransferWithoutOriginFreesItem(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)
	one := decimal.NewFromInt(1)

	tr := submit(t, engine, &SubmitRequest{
		MovementKind:      KindTransfer,
		ItemKind:          item.KindElectrical,
		ItemID:            2,
		Quantity:          one,
		DestinationSiteID: uintPtr(2),
	})

	_, err := engine.Cancel(context.Background(), tr.ID, testActor)
	require.NoError(t, err)

	eq := store.electrical[2]
	assert.Equal(t, item.StatusAvailable, eq.Status)
	assert.Nil(t, eq.CurrentSiteID)
	assert.Nil(t, eq.CurrentCustodianID)
}

func TestConcurrentExitsNeverOverdraw(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Submit(context.Background(), &SubmitRequest{
				MovementKind:      KindExit,
				ItemKind:          item.KindSupply,
				ItemID:            1,
				Quantity:          decimal.NewFromInt(2),
				DestinationSiteID: uintPtr(2),
			}, testActor)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for err := range results {
		if err == nil {
			accepted++
			continue
		}
		rej, ok := AsRejection(err)
		require.True(t, ok)
		assert.Equal(t, ReasonInsufficientStock, rej.Reason)
	}

	// 10 units on hand, 2 per exit: exactly 5 submissions can win.
	assert.Equal(t, 5, accepted)
	assert.True(t, store.supplies[1].OnHand.IsZero())
	assert.False(t, store.supplies[1].OnHand.IsNegative())
	assert.Len(t, store.movements, accepted)
}

func TestEveryRejectionIsAudited(t *testing.T) {
	store := seedStore()
	engine := testEngine(t, store)

	reqs := []*SubmitRequest{
		{MovementKind: "bogus", ItemKind: item.KindSupply, ItemID: 1, Quantity: decimal.NewFromInt(1)},
		{MovementKind: KindExit, ItemKind: item.KindSupply, ItemID: 99, Quantity: decimal.NewFromInt(1)},
		{MovementKind: KindExit, ItemKind: item.KindSupply, ItemID: 1, Quantity: decimal.NewFromInt(999)},
	}
	for _, req := range reqs {
		submitRejected(t, engine, req)
	}

	require.Len(t, store.audits, len(reqs))
	for _, entry := range store.audits {
		assert.Equal(t, audit.ActionAttemptRejected, entry.Action)
		assert.NotEmpty(t, entry.Note)
	}
}
