package main

import (
	"log"
	"os"

	"multisite-be/internal/model"
	"multisite-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. AutoMigrate stage and live tables
	log.Println("Step 1: Running AutoMigrate for site tree tables...")
	if err := db.AutoMigrate(&model.SiteTree{}, &model.SiteTreeLive{}); err != nil {
		log.Fatal("Error: AutoMigrate failed:", err)
	}

	// 4. Indexes AutoMigrate cannot express
	log.Println("Step 2: Creating partial indexes...")
	postSQL := []string{
		// Sibling pages need distinct URL segments for path resolution.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_site_tree_sibling_segment ON site_tree (parent_id, url_segment) WHERE deleted_at IS NULL AND class_name = 'Page';`,
		`CREATE INDEX IF NOT EXISTS idx_site_tree_sites ON site_tree (id) WHERE class_name = 'Site';`,
	}
	for _, sql := range postSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v. Continuing...", err)
		}
	}

	log.Println("Migration completed successfully!")
}
