// internal/domain/movement/store.go
package movement

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/your-org/sitestock-backend/internal/domain/actor"
	"github.com/your-org/sitestock-backend/internal/domain/audit"
	"github.com/your-org/sitestock-backend/internal/domain/item"
)

// Store is the engine's handle on persistent state. The postgres
// implementation lives in internal/infrastructure/database/postgres; tests
// substitute an in-memory one.
type Store interface {
	// Transaction runs fn inside a single transaction with at least
	// repeatable-read isolation plus row locking on items read through the
	// session. Returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(Session) error) error

	// RecordAudit appends an audit entry in its own short transaction so
	// rejected attempts stay observable after a rollback.
	RecordAudit(ctx context.Context, entry *audit.Entry) error

	// Query reads the ledger with filters, newest first, returning the
	// page and the unpaged total.
	Query(ctx context.Context, filter QueryFilter) ([]Movement, int64, error)
}

// Session is the transactional view the engine works through. Item reads
// take row locks; mutations are visible to later reads in the same session.
type Session interface {
	// ItemForUpdate loads an item by id with a row lock. ErrNotFound when
	// no such item exists.
	ItemForUpdate(kind item.Kind, id uint) (*item.Item, error)

	// ItemByCodeForUpdate loads an item by code with a row lock.
	ItemByCodeForUpdate(kind item.Kind, code string) (*item.Item, error)

	// Site and Custodian resolve movement endpoints. ErrNotFound when the
	// referenced actor does not exist.
	Site(id uint) (*actor.Site, error)
	Custodian(id uint) (*actor.Custodian, error)

	// LatestOutbound returns the item's most recent outward movement with
	// no later return or entry, or nil when nothing is outstanding.
	LatestOutbound(kind item.Kind, id uint) (*Movement, error)

	// HasDocumentRef reports whether a movement with the same item and
	// document reference already exists (duplicate guard).
	HasDocumentRef(kind item.Kind, id uint, ref string) (bool, error)

	// MovementByID loads a single ledger row. ErrNotFound when missing.
	MovementByID(id uint) (*Movement, error)

	// CancellationOf returns the compensating record for a movement, or
	// nil when it has not been cancelled.
	CancellationOf(id uint) (*Movement, error)

	// ApplyStockDelta mutates a supply's on_hand by delta. ErrNegativeStock
	// when the result would drop below zero; no state changes in that case.
	ApplyStockDelta(supply *item.Supply, delta decimal.Decimal) error

	// ApplyPlacement re-places a tracked item (site, custodian, status).
	ApplyPlacement(it *item.Item, placement item.Placement) error

	// AppendMovement writes one immutable ledger row, assigning id and
	// event time.
	AppendMovement(m *Movement) error

	// RecordAudit appends an audit entry atomically with the session.
	RecordAudit(entry *audit.Entry) error
}
