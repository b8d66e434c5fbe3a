package main

import (
	"fmt"
	"log"
	"os"

	"golang-ussd-gateway/internal/adapters/db/postgres"
	"golang-ussd-gateway/internal/config"
)

func main() {
	conf, err := config.FromEnv()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	fmt.Println("🔗 Connecting to database...")

	repo, err := postgres.New(conf.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect: %v", err)
	}
	defer repo.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println("🔄 Running migrations...")

	if err := repo.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	fmt.Println("✅ Migration complete!")
	fmt.Println("")
	fmt.Println("📊 Checking tables...")

	tables, err := repo.Tables()
	if err != nil {
		log.Fatalf("❌ Failed to list tables: %v", err)
	}
	if len(tables) == 0 {
		fmt.Println("⚠️  No tables found")
		os.Exit(1)
	}

	fmt.Println("✅ Tables created:")
	for _, table := range tables {
		fmt.Printf("  - %s\n", table)
	}

	fmt.Println("")
	fmt.Println("🎉 Database ready!")
}
