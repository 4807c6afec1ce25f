// internal/infrastructure/database/postgres/store.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/your-org/sitestock-backend/internal/domain/actor"
	"github.com/your-org/sitestock-backend/internal/domain/audit"
	"github.com/your-org/sitestock-backend/internal/domain/item"
	"github.com/your-org/sitestock-backend/internal/domain/movement"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovementStore is the PostgreSQL implementation of movement.Store. All
// engine transactions run at repeatable read with row locks on item reads;
// serialization failures surface as movement.ErrRaceConflict so the engine
// can retry.
type MovementStore struct {
	db *gorm.DB
}

// NewMovementStore creates a new movement store
func NewMovementStore(db *gorm.DB) *MovementStore {
	return &MovementStore{db: db}
}

// Transaction runs fn inside a single repeatable-read transaction.
func (s *MovementStore) Transaction(ctx context.Context, fn func(movement.Session) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&session{tx: tx})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	return mapStorageError(err)
}

// RecordAudit appends an audit entry in its own short transaction.
func (s *MovementStore) RecordAudit(ctx context.Context, entry *audit.Entry) error {
	if entry.HappenedAt.IsZero() {
		entry.HappenedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return mapStorageError(err)
	}
	return nil
}

// Query reads the ledger newest first with the given filters.
func (s *MovementStore) Query(ctx context.Context, filter movement.QueryFilter) ([]movement.Movement, int64, error) {
	query := s.db.WithContext(ctx).Model(&movement.Movement{})

	if filter.ItemKind != "" {
		query = query.Where("item_kind = ?", filter.ItemKind)
	}
	if filter.ItemID != 0 {
		query = query.Where("item_id = ?", filter.ItemID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.From != nil {
		query = query.Where("event_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("event_time <= ?", *filter.To)
	}
	if filter.SiteID != 0 {
		query = query.Where("origin_site_id = ? OR destination_site_id = ?", filter.SiteID, filter.SiteID)
	}
	if filter.CustodianID != 0 {
		query = query.Where("origin_custodian_id = ? OR destination_custodian_id = ?", filter.CustodianID, filter.CustodianID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"item_code_snapshot ILIKE ? OR item_description_snapshot ILIKE ? OR document_ref ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, mapStorageError(err)
	}

	var movements []movement.Movement
	err := query.
		Order("event_time DESC, id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&movements).Error
	if err != nil {
		return nil, 0, mapStorageError(err)
	}

	return movements, total, nil
}

// session is the transactional view handed to the engine.
type session struct {
	tx *gorm.DB
}

func (s *session) ItemForUpdate(kind item.Kind, id uint) (*item.Item, error) {
	locked := s.tx.Clauses(clause.Locking{Strength: "UPDATE"})
	return loadItem(locked, kind, "id = ?", id)
}

func (s *session) ItemByCodeForUpdate(kind item.Kind, code string) (*item.Item, error) {
	locked := s.tx.Clauses(clause.Locking{Strength: "UPDATE"})
	return loadItem(locked, kind, "code = ?", code)
}

func loadItem(tx *gorm.DB, kind item.Kind, cond string, arg interface{}) (*item.Item, error) {
	switch kind {
	case item.KindSupply:
		var supply item.Supply
		if err := tx.Where(cond, arg).First(&supply).Error; err != nil {
			return nil, mapLookupError(err)
		}
		return &item.Item{Kind: kind, Supply: &supply}, nil
	case item.KindElectrical:
		var electrical item.Electrical
		if err := tx.Where(cond, arg).First(&electrical).Error; err != nil {
			return nil, mapLookupError(err)
		}
		return &item.Item{Kind: kind, Electrical: &electrical}, nil
	default:
		var manual item.ManualTool
		if err := tx.Where(cond, arg).First(&manual).Error; err != nil {
			return nil, mapLookupError(err)
		}
		return &item.Item{Kind: kind, Manual: &manual}, nil
	}
}

func (s *session) Site(id uint) (*actor.Site, error) {
	var site actor.Site
	if err := s.tx.First(&site, id).Error; err != nil {
		return nil, mapLookupError(err)
	}
	return &site, nil
}

func (s *session) Custodian(id uint) (*actor.Custodian, error) {
	var custodian actor.Custodian
	if err := s.tx.First(&custodian, id).Error; err != nil {
		return nil, mapLookupError(err)
	}
	return &custodian, nil
}

func (s *session) LatestOutbound(kind item.Kind, id uint) (*movement.Movement, error) {
	var m movement.Movement
	err := s.tx.
		Where("item_kind = ? AND item_id = ?", kind, id).
		Where("kind IN ?", []movement.Kind{movement.KindEntry, movement.KindExit, movement.KindTransfer, movement.KindReturn}).
		Where("cancels_movement_id IS NULL").
		Where("NOT EXISTS (SELECT 1 FROM movements c WHERE c.cancels_movement_id = movements.id)").
		Order("event_time DESC, id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.Kind.Outbound() {
		return &m, nil
	}
	return nil, nil
}

func (s *session) HasDocumentRef(kind item.Kind, id uint, ref string) (bool, error) {
	var count int64
	err := s.tx.Model(&movement.Movement{}).
		Where("item_kind = ? AND item_id = ? AND document_ref = ?", kind, id, ref).
		Where("cancels_movement_id IS NULL").
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *session) MovementByID(id uint) (*movement.Movement, error) {
	var m movement.Movement
	if err := s.tx.First(&m, id).Error; err != nil {
		return nil, mapLookupError(err)
	}
	return &m, nil
}

func (s *session) CancellationOf(id uint) (*movement.Movement, error) {
	var m movement.Movement
	err := s.tx.Where("cancels_movement_id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ApplyStockDelta mutates a supply's on_hand with an optimistic version
// check on top of the row lock.
func (s *session) ApplyStockDelta(supply *item.Supply, delta decimal.Decimal) error {
	newOnHand := supply.OnHand.Add(delta)
	if newOnHand.IsNegative() {
		return movement.ErrNegativeStock
	}

	result := s.tx.Model(&item.Supply{}).
		Where("id = ? AND version = ?", supply.ID, supply.Version).
		Updates(map[string]interface{}{
			"on_hand": newOnHand,
			"version": supply.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return movement.ErrRaceConflict
	}

	supply.OnHand = newOnHand
	supply.Version++
	return nil
}

func (s *session) ApplyPlacement(it *item.Item, placement item.Placement) error {
	updates := map[string]interface{}{
		"current_site_id":      placement.SiteID,
		"current_custodian_id": placement.CustodianID,
		"status":               placement.Status,
	}

	switch it.Kind {
	case item.KindElectrical:
		result := s.tx.Model(&item.Electrical{}).Where("id = ?", it.Electrical.ID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		it.Electrical.CurrentSiteID = placement.SiteID
		it.Electrical.CurrentCustodianID = placement.CustodianID
		it.Electrical.Status = placement.Status
	case item.KindManual:
		result := s.tx.Model(&item.ManualTool{}).Where("id = ?", it.Manual.ID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		it.Manual.CurrentSiteID = placement.SiteID
		it.Manual.CurrentCustodianID = placement.CustodianID
		it.Manual.Status = placement.Status
	default:
		return fmt.Errorf("placement does not apply to %s items", it.Kind)
	}
	return nil
}

func (s *session) AppendMovement(m *movement.Movement) error {
	if m.EventTime.IsZero() {
		m.EventTime = time.Now().UTC()
	}
	return s.tx.Create(m).Error
}

func (s *session) RecordAudit(entry *audit.Entry) error {
	if entry.HappenedAt.IsZero() {
		entry.HappenedAt = time.Now().UTC()
	}
	return s.tx.Create(entry).Error
}

// mapLookupError translates gorm's not-found into the domain sentinel.
func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return movement.ErrNotFound
	}
	return err
}

// mapStorageError classifies transaction errors. Domain errors pass through
// untouched; serialization failures become retryable; everything else is a
// storage fault.
func mapStorageError(err error) error {
	if err == nil {
		return nil
	}

	var rej *movement.Rejection
	if errors.As(err, &rej) {
		return rej
	}
	if errors.Is(err, movement.ErrRaceConflict) ||
		errors.Is(err, movement.ErrNegativeStock) ||
		errors.Is(err, movement.ErrNotFound) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		switch pgErr.Code {
		case "40001", "40P01":
			return movement.ErrRaceConflict
		}
	}

	return fmt.Errorf("%w: %v", movement.ErrStorageUnavailable, err)
}
