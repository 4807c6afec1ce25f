// cmd/movectl/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/sitestock-backend/internal/config"
	"github.com/your-org/sitestock-backend/internal/domain/item"
	"github.com/your-org/sitestock-backend/internal/domain/movement"
	"github.com/your-org/sitestock-backend/internal/infrastructure/database/postgres"
)

// movectl is an operator tool that drives the movement engine directly,
// without going through the HTTP API. Useful for stock corrections and
// scripted imports.
func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := postgres.NewMovementStore(db.GetDB())

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	engine := movement.NewEngine(store, cfg, logger)

	ctx := context.Background()

	switch os.Args[1] {
	case "submit":
		runSubmit(ctx, engine, os.Args[2:])
	case "cancel":
		runCancel(ctx, engine, os.Args[2:])
	case "list":
		runList(ctx, store, os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: movectl <submit|cancel|list> [flags]")
	os.Exit(2)
}

func runSubmit(ctx context.Context, engine *movement.Engine, args []string) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	movementKind := fs.String("kind", "", "movement kind: entry, exit, transfer, return, write_off")
	itemKind := fs.String("item-kind", "", "item kind: supply, electrical, manual")
	itemID := fs.Uint("item-id", 0, "item id")
	itemCode := fs.String("item-code", "", "item code (alternative to -item-id)")
	quantity := fs.String("qty", "1", "quantity")
	originSite := fs.Uint("origin-site", 0, "origin site id")
	destSite := fs.Uint("dest-site", 0, "destination site id")
	originCustodian := fs.Uint("origin-custodian", 0, "origin custodian id")
	destCustodian := fs.Uint("dest-custodian", 0, "destination custodian id")
	reason := fs.String("reason", "", "movement reason")
	docRef := fs.String("doc-ref", "", "document reference")
	actor := fs.Uint("actor", 1, "acting user id")
	fs.Parse(args)

	qty, err := decimal.NewFromString(*quantity)
	if err != nil {
		log.Fatalf("Invalid quantity %q: %v", *quantity, err)
	}

	req := &movement.SubmitRequest{
		MovementKind:           movement.Kind(*movementKind),
		ItemKind:               item.Kind(*itemKind),
		ItemID:                 *itemID,
		ItemCode:               *itemCode,
		Quantity:               qty,
		OriginSiteID:           optionalID(*originSite),
		DestinationSiteID:      optionalID(*destSite),
		OriginCustodianID:      optionalID(*originCustodian),
		DestinationCustodianID: optionalID(*destCustodian),
		Reason:                 *reason,
		DocumentRef:            *docRef,
	}

	mv, err := engine.Submit(ctx, req, uint(*actor))
	if err != nil {
		if rej, ok := movement.AsRejection(err); ok {
			detail, _ := json.Marshal(rej.Detail)
			log.Fatalf("Rejected: %s %s", rej.Reason, detail)
		}
		log.Fatalf("Submission failed: %v", err)
	}

	printJSON(mv)
}

func runCancel(ctx context.Context, engine *movement.Engine, args []string) {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	movementID := fs.Uint("id", 0, "movement id to cancel")
	actor := fs.Uint("actor", 1, "acting user id")
	fs.Parse(args)

	if *movementID == 0 {
		log.Fatal("movectl cancel requires -id")
	}

	comp, err := engine.Cancel(ctx, *movementID, uint(*actor))
	if err != nil {
		if rej, ok := movement.AsRejection(err); ok {
			log.Fatalf("Rejected: %s", rej.Reason)
		}
		log.Fatalf("Cancellation failed: %v", err)
	}

	printJSON(comp)
}

func runList(ctx context.Context, store *postgres.MovementStore, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	itemKind := fs.String("item-kind", "", "filter by item kind")
	itemID := fs.Uint("item-id", 0, "filter by item id")
	movementKind := fs.String("kind", "", "filter by movement kind")
	siteID := fs.Uint("site", 0, "filter by site id")
	since := fs.String("since", "", "only movements on or after this date (2006-01-02)")
	limit := fs.Int("limit", 20, "maximum rows")
	fs.Parse(args)

	filter := movement.QueryFilter{
		ItemKind: item.Kind(*itemKind),
		ItemID:   *itemID,
		Kind:     movement.Kind(*movementKind),
		SiteID:   *siteID,
		Limit:    *limit,
	}
	if *since != "" {
		from, err := time.Parse("2006-01-02", *since)
		if err != nil {
			log.Fatalf("Invalid -since date: %v", err)
		}
		filter.From = &from
	}

	movements, total, err := store.Query(ctx, filter)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	for _, mv := range movements {
		fmt.Printf("%6d  %-20s  %-9s  %-10s  %10s %-5s  %s\n",
			mv.ID,
			mv.EventTime.Format(time.RFC3339),
			mv.Kind,
			mv.Status,
			mv.Quantity,
			mv.Unit,
			mv.ItemCodeSnapshot,
		)
	}
	fmt.Printf("%d of %d movements\n", len(movements), total)
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to render output: %v", err)
	}
	fmt.Println(string(out))
}
