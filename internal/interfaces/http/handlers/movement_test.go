// internal/interfaces/http/handlers/movement_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/sitestock-backend/internal/config"
	"github.com/your-org/sitestock-backend/internal/domain/actor"
	"github.com/your-org/sitestock-backend/internal/domain/audit"
	"github.com/your-org/sitestock-backend/internal/domain/item"
	"github.com/your-org/sitestock-backend/internal/domain/movement"
)

// ledgerFake backs the movement engine in handler tests with one supply
// item and an append-only slice of movements.
type ledgerFake struct {
	mu        sync.Mutex
	supply    *item.Supply
	movements []movement.Movement
	nextID    uint
}

func newLedgerFake() *ledgerFake {
	return &ledgerFake{
		supply: &item.Supply{
			ID: 1, Code: "SUP-CEM-001", Description: "Cement 50kg", Unit: "bag",
			OnHand: decimal.NewFromInt(10), Active: true,
		},
		nextID: 1,
	}
}

func (f *ledgerFake) Transaction(ctx context.Context, fn func(movement.Session) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(&ledgerSession{fake: f})
}

func (f *ledgerFake) RecordAudit(ctx context.Context, entry *audit.Entry) error { return nil }

func (f *ledgerFake) Query(ctx context.Context, filter movement.QueryFilter) ([]movement.Movement, int64, error) {
	return f.movements, int64(len(f.movements)), nil
}

type ledgerSession struct {
	fake *ledgerFake
}

func (s *ledgerSession) ItemForUpdate(kind item.Kind, id uint) (*item.Item, error) {
	if kind == item.KindSupply && id == s.fake.supply.ID {
		return &item.Item{Kind: kind, Supply: s.fake.supply}, nil
	}
	return nil, movement.ErrNotFound
}

func (s *ledgerSession) ItemByCodeForUpdate(kind item.Kind, code string) (*item.Item, error) {
	if kind == item.KindSupply && code == s.fake.supply.Code {
		return &item.Item{Kind: kind, Supply: s.fake.supply}, nil
	}
	return nil, movement.ErrNotFound
}

func (s *ledgerSession) Site(id uint) (*actor.Site, error) {
	return &actor.Site{ID: id, Active: true}, nil
}

func (s *ledgerSession) Custodian(id uint) (*actor.Custodian, error) {
	return &actor.Custodian{ID: id, Active: true}, nil
}

func (s *ledgerSession) LatestOutbound(kind item.Kind, id uint) (*movement.Movement, error) {
	return nil, nil
}

func (s *ledgerSession) HasDocumentRef(kind item.Kind, id uint, ref string) (bool, error) {
	return false, nil
}

func (s *ledgerSession) MovementByID(id uint) (*movement.Movement, error) {
	for _, m := range s.fake.movements {
		if m.ID == id {
			found := m
			return &found, nil
		}
	}
	return nil, movement.ErrNotFound
}

func (s *ledgerSession) CancellationOf(id uint) (*movement.Movement, error) {
	for _, m := range s.fake.movements {
		if m.CancelsMovementID != nil && *m.CancelsMovementID == id {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

func (s *ledgerSession) ApplyStockDelta(supply *item.Supply, delta decimal.Decimal) error {
	newOnHand := supply.OnHand.Add(delta)
	if newOnHand.IsNegative() {
		return movement.ErrNegativeStock
	}
	supply.OnHand = newOnHand
	return nil
}

func (s *ledgerSession) ApplyPlacement(it *item.Item, placement item.Placement) error { return nil }

func (s *ledgerSession) AppendMovement(m *movement.Movement) error {
	m.ID = s.fake.nextID
	s.fake.nextID++
	m.EventTime = time.Now().UTC()
	s.fake.movements = append(s.fake.movements, *m)
	return nil
}

func (s *ledgerSession) RecordAudit(entry *audit.Entry) error { return nil }

func newMovementTestRouter(t *testing.T) (*gin.Engine, *ledgerFake) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Engine: config.EngineConfig{
			MaxRaceRetries: 3,
			SubmitDeadline: 5 * time.Second,
		},
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	fake := newLedgerFake()
	handler := &MovementHandler{
		engine: movement.NewEngine(fake, cfg, logger),
		config: cfg,
	}

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("user_id", uint(7)) })
	router.POST("/movements", handler.Submit)
	router.POST("/movements/:id/cancel", handler.Cancel)
	return router, fake
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitMovementRespondsOK(t *testing.T) {
	router, fake := newMovementTestRouter(t)

	rec := postJSON(t, router, "/movements", gin.H{
		"movement_kind":       "entry",
		"item_kind":           "supply",
		"item_id":             1,
		"quantity":            "5",
		"destination_site_id": 2,
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data movement.Movement `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, movement.KindEntry, resp.Data.Kind)
	assert.Equal(t, uint(7), resp.Data.ActorUserID)
	assert.True(t, fake.supply.OnHand.Equal(decimal.NewFromInt(15)))
}

func TestSubmitMovementMalformedBody(t *testing.T) {
	router, _ := newMovementTestRouter(t)

	rec := postJSON(t, router, "/movements", gin.H{
		"item_kind": "supply",
		"item_id":   1,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), string(movement.ReasonMalformedRequest))
}

func TestSubmitMovementRejectionStatuses(t *testing.T) {
	router, _ := newMovementTestRouter(t)

	// Unknown item.
	rec := postJSON(t, router, "/movements", gin.H{
		"movement_kind": "entry",
		"item_kind":     "supply",
		"item_id":       99,
		"quantity":      "1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), string(movement.ReasonUnknownItem))

	// Business-state refusal.
	rec = postJSON(t, router, "/movements", gin.H{
		"movement_kind":       "exit",
		"item_kind":           "supply",
		"item_id":             1,
		"quantity":            "999",
		"destination_site_id": 2,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), string(movement.ReasonInsufficientStock))
}

func TestCancelMovementRespondsOK(t *testing.T) {
	router, _ := newMovementTestRouter(t)

	rec := postJSON(t, router, "/movements", gin.H{
		"movement_kind":       "exit",
		"item_kind":           "supply",
		"item_id":             1,
		"quantity":            "4",
		"destination_site_id": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/movements/1/cancel", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data movement.Movement `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.CancelsMovementID)
	assert.Equal(t, uint(1), *resp.Data.CancelsMovementID)
	assert.Equal(t, movement.StatusCancelled, resp.Data.Status)
}

func TestRejectionStatusMapping(t *testing.T) {
	tests := []struct {
		reason movement.Reason
		status int
	}{
		{movement.ReasonMalformedRequest, http.StatusUnprocessableEntity},
		{movement.ReasonUnknownItem, http.StatusNotFound},
		{movement.ReasonUnknownActor, http.StatusNotFound},
		{movement.ReasonUnknownMovement, http.StatusNotFound},
		{movement.ReasonInsufficientStock, http.StatusConflict},
		{movement.ReasonAlreadyIssued, http.StatusConflict},
		{movement.ReasonDuplicateMovement, http.StatusConflict},
		{movement.ReasonRaceConflict, http.StatusConflict},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, rejectionStatus(tt.reason), string(tt.reason))
	}
}
