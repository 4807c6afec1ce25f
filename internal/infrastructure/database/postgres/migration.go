// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/your-org/sitestock-backend/internal/domain/actor"
	"github.com/your-org/sitestock-backend/internal/domain/audit"
	"github.com/your-org/sitestock-backend/internal/domain/item"
	"github.com/your-org/sitestock-backend/internal/domain/movement"
	"github.com/your-org/sitestock-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		// Accounts and actors - base tables
		&user.User{},
		&actor.Site{},
		&actor.Custodian{},

		// Item registry
		&item.Supply{},
		&item.Electrical{},
		&item.ManualTool{},

		// Ledger and audit - append-only tables
		&movement.Movement{},
		&audit.Entry{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Ledger indexes: per-item history and global recency
		"CREATE INDEX IF NOT EXISTS idx_movements_item_history ON movements(item_kind, item_id, event_time DESC)",
		"CREATE INDEX IF NOT EXISTS idx_movements_recent ON movements(event_time DESC)",
		"CREATE INDEX IF NOT EXISTS idx_movements_destination_site ON movements(destination_site_id)",
		"CREATE INDEX IF NOT EXISTS idx_movements_origin_site ON movements(origin_site_id)",
		"CREATE INDEX IF NOT EXISTS idx_movements_document_ref ON movements(item_kind, item_id, document_ref)",
		"CREATE INDEX IF NOT EXISTS idx_movements_cancels ON movements(cancels_movement_id)",

		// Item registry indexes
		"CREATE INDEX IF NOT EXISTS idx_items_supply_code_active ON items_supply(code, active)",
		"CREATE INDEX IF NOT EXISTS idx_items_supply_reorder ON items_supply(on_hand, reorder_point)",
		"CREATE INDEX IF NOT EXISTS idx_items_electrical_placement ON items_electrical(current_site_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_items_manual_placement ON items_manual(current_site_id, status)",

		// Actor indexes
		"CREATE INDEX IF NOT EXISTS idx_sites_code_active ON sites(code, active)",
		"CREATE INDEX IF NOT EXISTS idx_custodians_code_active ON custodians(code, active)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_entries_user_time ON audit_entries(user_id, happened_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_entries_action_time ON audit_entries(action, happened_at DESC)",

		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := m.seedActors(); err != nil {
		return fmt.Errorf("failed to seed actors: %w", err)
	}

	if err := m.seedSampleItems(); err != nil {
		return fmt.Errorf("failed to seed sample items: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// GetTableInfo returns information about database tables
func (m *Migration) GetTableInfo() error {
	var tables []string

	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	log.Println("📊 Database Tables Information:")
	log.Println("================================")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		log.Printf("%-25s | %d records", table, count)
	}

	log.Println("================================")
	log.Printf("📈 Total records across all tables: %d", totalRecords)

	return nil
}

// seedAdminUser creates the default admin account
func (m *Migration) seedAdminUser() error {
	log.Println("👤 Seeding admin user...")

	var existing user.User
	result := m.db.Where("email = ?", "admin@example.com").First(&existing)
	if result.Error != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), 10)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		adminUser := user.User{
			Email:     "admin@example.com",
			Password:  string(hashedPassword),
			FirstName: "Admin",
			LastName:  "User",
			IsActive:  true,
			IsAdmin:   true,
		}

		if err := m.db.Create(&adminUser).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("✅ Created admin user: admin@example.com (password: admin123)")
	} else {
		log.Printf("⏭️ Admin user already exists with ID: %d", existing.ID)
	}

	return nil
}

// seedActors creates a default warehouse site and a sample custodian
func (m *Migration) seedActors() error {
	log.Println("🏗️ Seeding sites and custodians...")

	sites := []actor.Site{
		{Code: "WH-01", Name: "Central Warehouse", Address: "Main depot", Active: true},
		{Code: "SITE-A", Name: "Site A", Address: "North construction lot", Active: true},
	}

	for _, site := range sites {
		var existing actor.Site
		result := m.db.Where("code = ?", site.Code).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&site).Error; err != nil {
				return err
			}
			log.Printf("✅ Created site: %s", site.Name)
		} else {
			log.Printf("⏭️ Site already exists: %s", site.Name)
		}
	}

	custodians := []actor.Custodian{
		{Code: "CUST-01", Name: "Warehouse Keeper", Role: "storekeeper", Active: true},
	}

	for _, custodian := range custodians {
		var existing actor.Custodian
		result := m.db.Where("code = ?", custodian.Code).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&custodian).Error; err != nil {
				return err
			}
			log.Printf("✅ Created custodian: %s", custodian.Name)
		} else {
			log.Printf("⏭️ Custodian already exists: %s", custodian.Name)
		}
	}

	return nil
}

// seedSampleItems creates one item of each kind for development
func (m *Migration) seedSampleItems() error {
	log.Println("📦 Seeding sample items...")

	var supplyCount int64
	m.db.Model(&item.Supply{}).Count(&supplyCount)
	if supplyCount > 0 {
		log.Println("⏭️ Sample items already exist")
		return nil
	}

	supply := item.Supply{
		Code:         "SUP-CEM-001",
		Description:  "Portland cement 50kg bag",
		Unit:         "bag",
		OnHand:       decimal.NewFromInt(100),
		ReorderPoint: decimal.NewFromInt(20),
		Location:     "Aisle 1",
		Active:       true,
	}
	if err := m.db.Create(&supply).Error; err != nil {
		return err
	}

	electrical := item.Electrical{
		Code:         "ELE-DRL-001",
		Description:  "Rotary hammer drill",
		Status:       item.StatusAvailable,
		SerialNumber: "RH-2024-0001",
		Location:     "Tool cage",
		Active:       true,
	}
	if err := m.db.Create(&electrical).Error; err != nil {
		return err
	}

	manual := item.ManualTool{
		Code:        "MAN-HAM-001",
		Description: "Claw hammer",
		Status:      item.StatusAvailable,
		Condition:   item.ConditionGoodUsed,
		Quantity:    10,
		Location:    "Tool cage",
		Active:      true,
	}
	if err := m.db.Create(&manual).Error; err != nil {
		return err
	}

	log.Println("✅ Created sample items")
	return nil
}
