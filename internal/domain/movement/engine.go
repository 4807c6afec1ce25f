// internal/domain/movement/engine.go
package movement

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/sitestock-backend/internal/config"
	"github.com/your-org/sitestock-backend/internal/domain/audit"
	"github.com/your-org/sitestock-backend/internal/domain/item"
)

// Engine is the transactional orchestrator for stock movements. It is the
// only component that writes to both the ledger and the item registry, and
// it is stateless: all shared state lives behind the Store.
type Engine struct {
	store  Store
	config *config.Config
	log    *logrus.Logger
}

// NewEngine creates a new movement engine
func NewEngine(store Store, cfg *config.Config, log *logrus.Logger) *Engine {
	return &Engine{
		store:  store,
		config: cfg,
		log:    log,
	}
}

// Submit validates and applies one movement. On success the returned
// Movement has been committed together with its stock mutation and audit
// entry. Refusals come back as *Rejection; storage failures wrap
// ErrStorageUnavailable.
func (e *Engine) Submit(ctx context.Context, req *SubmitRequest, actorUserID uint) (*Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Engine.SubmitDeadline)
	defer cancel()

	if rej := req.ShapeCheck(); rej != nil {
		e.auditRejection(ctx, req, actorUserID, rej)
		return nil, rej
	}

	var mv *Movement
	var err error
	for attempt := 0; ; attempt++ {
		mv, err = e.submitOnce(ctx, req, actorUserID)
		if errors.Is(err, ErrRaceConflict) && attempt < e.config.Engine.MaxRaceRetries {
			e.log.WithFields(logrus.Fields{
				"item_kind": req.ItemKind,
				"item_id":   req.ItemID,
				"attempt":   attempt + 1,
			}).Warn("Serialization conflict, retrying movement submission")
			continue
		}
		break
	}

	if err != nil {
		if errors.Is(err, ErrRaceConflict) {
			err = Reject(ReasonRaceConflict, nil)
		}
		if rej, ok := AsRejection(err); ok {
			e.auditRejection(ctx, req, actorUserID, rej)
			e.log.WithFields(logrus.Fields{
				"movement_kind": req.MovementKind,
				"item_kind":     req.ItemKind,
				"item_id":       req.ItemID,
				"item_code":     req.ItemCode,
				"actor_user_id": actorUserID,
				"reason":        rej.Reason,
			}).Warn("Movement rejected")
			return nil, rej
		}
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"movement_id":   mv.ID,
		"movement_kind": mv.Kind,
		"item_kind":     mv.ItemKind,
		"item_id":       mv.ItemID,
		"quantity":      mv.Quantity,
		"actor_user_id": actorUserID,
	}).Info("Movement committed")

	return mv, nil
}

// submitOnce runs one attempt inside a single transaction. A returned
// *Rejection rolls the transaction back and surfaces unchanged.
func (e *Engine) submitOnce(ctx context.Context, req *SubmitRequest, actorUserID uint) (*Movement, error) {
	var mv *Movement

	err := e.store.Transaction(ctx, func(s Session) error {
		it, err := e.resolveItem(s, req)
		if err != nil {
			return err
		}

		if req.MovementKind != KindEntry && !it.Active() {
			return Reject(ReasonItemInactive, nil)
		}

		if err := resolveActors(s, req); err != nil {
			return err
		}

		if e.config.Engine.DocumentRefGuard && req.DocumentRef != "" {
			dup, err := s.HasDocumentRef(it.Kind, it.ID(), req.DocumentRef)
			if err != nil {
				return err
			}
			if dup {
				return Reject(ReasonDuplicateMovement, map[string]interface{}{
					"document_ref": req.DocumentRef,
				})
			}
		}

		if req.MovementKind.Outbound() {
			var latest *Movement
			if it.Kind == item.KindElectrical {
				latest, err = s.LatestOutbound(it.Kind, it.ID())
				if err != nil {
					return err
				}
			}
			verdict := CheckAvailability(req.MovementKind, it, latest, req.Quantity)
			if !verdict.Allowed {
				return Reject(verdict.Reason, verdict.Detail)
			}
		}

		before := stateSnapshot(it)

		if err := e.apply(s, it, req); err != nil {
			return err
		}

		mv = buildMovement(it, req, actorUserID)
		if err := s.AppendMovement(mv); err != nil {
			return err
		}

		return s.RecordAudit(&audit.Entry{
			UserID:     actorUserID,
			Action:     audit.ActionMovementCommitted,
			Module:     "movements",
			TargetKind: string(it.Kind),
			TargetID:   mv.ID,
			BeforeJSON: audit.MarshalSnapshot(before),
			AfterJSON:  audit.MarshalSnapshot(stateSnapshot(it)),
			Note:       fmt.Sprintf("%s of %s %s", mv.Kind, mv.Quantity, it.Code()),
		})
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// Cancel appends a compensating record for a committed movement and
// reverses its effect on the item. The original row is never edited.
func (e *Engine) Cancel(ctx context.Context, movementID uint, actorUserID uint) (*Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Engine.SubmitDeadline)
	defer cancel()

	var comp *Movement
	err := e.store.Transaction(ctx, func(s Session) error {
		orig, err := s.MovementByID(movementID)
		if errors.Is(err, ErrNotFound) {
			return Reject(ReasonUnknownMovement, map[string]interface{}{"movement_id": movementID})
		}
		if err != nil {
			return err
		}
		if orig.Status == StatusCancelled || orig.CancelsMovementID != nil {
			return Reject(ReasonAlreadyCancelled, map[string]interface{}{"movement_id": movementID})
		}
		if existing, err := s.CancellationOf(orig.ID); err != nil {
			return err
		} else if existing != nil {
			return Reject(ReasonAlreadyCancelled, map[string]interface{}{"movement_id": movementID})
		}

		it, err := s.ItemForUpdate(orig.ItemKind, orig.ItemID)
		if errors.Is(err, ErrNotFound) {
			return Reject(ReasonUnknownItem, map[string]interface{}{"item_id": orig.ItemID})
		}
		if err != nil {
			return err
		}

		before := stateSnapshot(it)

		if it.Kind == item.KindSupply {
			delta := stockDelta(orig.Kind, orig.Quantity).Neg()
			if !delta.IsZero() {
				if err := s.ApplyStockDelta(it.Supply, delta); err != nil {
					if errors.Is(err, ErrNegativeStock) {
						return Reject(ReasonInsufficientStock, map[string]interface{}{
							"current_on_hand": it.Supply.OnHand,
						})
					}
					return err
				}
			}
		} else {
			if err := s.ApplyPlacement(it, reversePlacement(orig)); err != nil {
				return err
			}
		}

		comp = &Movement{
			Kind:                    orig.Kind,
			ItemKind:                orig.ItemKind,
			ItemID:                  orig.ItemID,
			ItemCodeSnapshot:        it.Code(),
			ItemDescriptionSnapshot: it.Description(),
			Quantity:                orig.Quantity,
			Unit:                    orig.Unit,
			OriginSiteID:            orig.DestinationSiteID,
			DestinationSiteID:       orig.OriginSiteID,
			OriginCustodianID:       orig.DestinationCustodianID,
			DestinationCustodianID:  orig.OriginCustodianID,
			Reason:                  "cancellation",
			Note:                    fmt.Sprintf("compensates movement %d", orig.ID),
			Status:                  StatusCancelled,
			ActorUserID:             actorUserID,
			CancelsMovementID:       &orig.ID,
		}
		if err := s.AppendMovement(comp); err != nil {
			return err
		}

		return s.RecordAudit(&audit.Entry{
			UserID:     actorUserID,
			Action:     audit.ActionMovementCancelled,
			Module:     "movements",
			TargetKind: string(it.Kind),
			TargetID:   comp.ID,
			BeforeJSON: audit.MarshalSnapshot(before),
			AfterJSON:  audit.MarshalSnapshot(stateSnapshot(it)),
			Note:       fmt.Sprintf("cancelled movement %d", orig.ID),
		})
	})
	if err != nil {
		if rej, ok := AsRejection(err); ok {
			e.log.WithFields(logrus.Fields{
				"movement_id":   movementID,
				"actor_user_id": actorUserID,
				"reason":        rej.Reason,
			}).Warn("Cancellation rejected")
			return nil, rej
		}
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"movement_id":   movementID,
		"compensator":   comp.ID,
		"actor_user_id": actorUserID,
	}).Info("Movement cancelled")

	return comp, nil
}

// resolveItem looks the item up by id or code, with a row lock.
func (e *Engine) resolveItem(s Session, req *SubmitRequest) (*item.Item, error) {
	var it *item.Item
	var err error
	if req.ItemID != 0 {
		it, err = s.ItemForUpdate(req.ItemKind, req.ItemID)
	} else {
		it, err = s.ItemByCodeForUpdate(req.ItemKind, req.ItemCode)
	}
	if errors.Is(err, ErrNotFound) {
		return nil, Reject(ReasonUnknownItem, map[string]interface{}{
			"item_id":   req.ItemID,
			"item_code": req.ItemCode,
		})
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// resolveActors verifies every referenced site and custodian exists.
func resolveActors(s Session, req *SubmitRequest) error {
	sites := map[string]*uint{
		"origin_site":      req.OriginSiteID,
		"destination_site": req.DestinationSiteID,
	}
	for which, id := range sites {
		if id == nil {
			continue
		}
		if _, err := s.Site(*id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return Reject(ReasonUnknownActor, map[string]interface{}{"which": which, "id": *id})
			}
			return err
		}
	}

	custodians := map[string]*uint{
		"origin_custodian":      req.OriginCustodianID,
		"destination_custodian": req.DestinationCustodianID,
	}
	for which, id := range custodians {
		if id == nil {
			continue
		}
		if _, err := s.Custodian(*id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return Reject(ReasonUnknownActor, map[string]interface{}{"which": which, "id": *id})
			}
			return err
		}
	}
	return nil
}

// apply performs the registry mutation for the request, dispatching on the
// item kind once.
func (e *Engine) apply(s Session, it *item.Item, req *SubmitRequest) error {
	if it.Kind == item.KindSupply {
		delta := stockDelta(req.MovementKind, req.Quantity)
		if delta.IsZero() {
			return nil
		}
		if err := s.ApplyStockDelta(it.Supply, delta); err != nil {
			if errors.Is(err, ErrNegativeStock) {
				// Belt-and-suspenders: the oracle already checked, but a
				// concurrent commit may have drained the stock.
				return Reject(ReasonInsufficientStock, map[string]interface{}{
					"current_on_hand": it.Supply.OnHand,
				})
			}
			return err
		}
		return nil
	}
	return s.ApplyPlacement(it, targetPlacement(req))
}

// stockDelta maps a movement kind onto the signed on-hand change for
// supplies. Transfers are net zero: stock changes holders, not amount.
func stockDelta(kind Kind, qty decimal.Decimal) decimal.Decimal {
	switch kind {
	case KindEntry, KindReturn:
		return qty
	case KindExit, KindWriteOff:
		return qty.Neg()
	default:
		return decimal.Zero
	}
}

// targetPlacement maps a movement request onto the resulting placement of
// a tracked item.
func targetPlacement(req *SubmitRequest) item.Placement {
	switch req.MovementKind {
	case KindEntry:
		status := item.StatusAvailable
		if req.DestinationCustodianID != nil {
			status = item.StatusInUse
		}
		return item.Placement{
			SiteID:      req.DestinationSiteID,
			CustodianID: req.DestinationCustodianID,
			Status:      status,
		}
	case KindExit, KindTransfer:
		return item.Placement{
			SiteID:      req.DestinationSiteID,
			CustodianID: req.DestinationCustodianID,
			Status:      item.StatusInUse,
		}
	case KindReturn:
		return item.Placement{Status: item.StatusAvailable}
	default: // write-off
		status := req.WriteOffStatus
		if status == "" {
			status = item.StatusDamaged
		}
		return item.Placement{Status: status}
	}
}

// reversePlacement maps a cancelled movement back onto the placement the
// item held before it.
func reversePlacement(orig *Movement) item.Placement {
	switch orig.Kind {
	case KindReturn:
		// Undoing a return re-issues the item to where it came back from.
		return item.Placement{
			SiteID:      orig.OriginSiteID,
			CustodianID: orig.OriginCustodianID,
			Status:      item.StatusInUse,
		}
	case KindTransfer:
		// Undoing a transfer puts the item back with its pre-transfer
		// holder. A transfer out of storage has no origin to go back to.
		if orig.OriginSiteID == nil && orig.OriginCustodianID == nil {
			return item.Placement{Status: item.StatusAvailable}
		}
		return item.Placement{
			SiteID:      orig.OriginSiteID,
			CustodianID: orig.OriginCustodianID,
			Status:      item.StatusInUse,
		}
	default:
		return item.Placement{Status: item.StatusAvailable}
	}
}

// buildMovement assembles the immutable ledger row for an accepted request.
func buildMovement(it *item.Item, req *SubmitRequest, actorUserID uint) *Movement {
	status := StatusCommitted
	if req.MovementKind == KindExit && req.ExpectedReturnDate != nil {
		status = StatusPending
	}

	var total *decimal.Decimal
	if req.UnitValue != nil {
		t := req.UnitValue.Mul(req.Quantity)
		total = &t
	}

	return &Movement{
		Kind:                    req.MovementKind,
		ItemKind:                it.Kind,
		ItemID:                  it.ID(),
		ItemCodeSnapshot:        it.Code(),
		ItemDescriptionSnapshot: it.Description(),
		Quantity:                req.Quantity,
		Unit:                    it.Unit(),
		OriginSiteID:            req.OriginSiteID,
		DestinationSiteID:       req.DestinationSiteID,
		OriginCustodianID:       req.OriginCustodianID,
		DestinationCustodianID:  req.DestinationCustodianID,
		UnitValue:               req.UnitValue,
		TotalValue:              total,
		Reason:                  req.Reason,
		Note:                    req.Note,
		DocumentRef:             req.DocumentRef,
		ExpectedReturnDate:      req.ExpectedReturnDate,
		Status:                  status,
		ActorUserID:             actorUserID,
	}
}

// stateSnapshot captures the engine-owned fields of an item for audit
// before/after records.
func stateSnapshot(it *item.Item) map[string]interface{} {
	switch it.Kind {
	case item.KindSupply:
		return map[string]interface{}{
			"on_hand": it.Supply.OnHand,
		}
	case item.KindElectrical:
		return map[string]interface{}{
			"status":               it.Electrical.Status,
			"current_site_id":      it.Electrical.CurrentSiteID,
			"current_custodian_id": it.Electrical.CurrentCustodianID,
		}
	default:
		return map[string]interface{}{
			"status":               it.Manual.Status,
			"current_site_id":      it.Manual.CurrentSiteID,
			"current_custodian_id": it.Manual.CurrentCustodianID,
		}
	}
}

// auditRejection records a refused attempt in its own transaction so it
// survives the rollback of the attempt itself.
func (e *Engine) auditRejection(ctx context.Context, req *SubmitRequest, actorUserID uint, rej *Rejection) {
	entry := &audit.Entry{
		UserID:     actorUserID,
		Action:     audit.ActionAttemptRejected,
		Module:     "movements",
		TargetKind: string(req.ItemKind),
		TargetID:   req.ItemID,
		AfterJSON:  audit.MarshalSnapshot(rej),
		Note:       string(rej.Reason),
	}
	if err := e.store.RecordAudit(ctx, entry); err != nil {
		e.log.WithError(err).Error("Failed to audit rejected attempt")
	}
}
