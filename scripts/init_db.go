//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"loan-application-engine/internal/catalog"
	"loan-application-engine/internal/services/database"
)

func main() {
	fmt.Println("=== Database Initialization Script ===")
	fmt.Println()

	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Println("❌ DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("📡 Connecting to database...")
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		fmt.Printf("❌ Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)
	fmt.Println("✅ Connected to database successfully!")

	fmt.Println("📖 Reading SQL schema file...")
	sqlBytes, err := os.ReadFile("scripts/schema.sql")
	if err != nil {
		fmt.Printf("❌ Failed to read SQL file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🚀 Executing database schema...")
	if _, err := conn.Exec(ctx, string(sqlBytes)); err != nil {
		fmt.Printf("❌ Failed to execute SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Database schema executed successfully!")
	fmt.Println()

	cat, err := catalog.Load(os.Getenv("CATALOG_PATH"))
	if err != nil {
		fmt.Printf("❌ Failed to load catalog: %v\n", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, databaseURL, database.DefaultPoolConfig())
	if err != nil {
		fmt.Printf("❌ Failed to open pool: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	n, err := database.NewProductRepository(db).SyncCatalog(ctx, cat)
	if err != nil {
		fmt.Printf("❌ Failed to mirror catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("   📦 Catalog v%d mirrored: %d products\n", cat.Version(), n)
	for _, p := range cat.Products() {
		fmt.Printf("   • %s (%s): %.0f - %.0f, ages %d-%d\n", p.Name, p.ID, p.MinAmount, p.MaxAmount, p.AgeMin, p.AgeMax)
	}

	fmt.Println()
	fmt.Println("🎉 Database initialization completed successfully!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Test the connections: go run scripts/test_connection.go")
	fmt.Println("  2. Start the server: go run ./cmd/server")
}
