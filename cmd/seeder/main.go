package main

import (
	"flag"
	"log"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/config"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/migrations"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/seeds"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/services"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
)

func main() {
	demo := flag.String("demo", "", "also create a demo user with this email")
	rollback := flag.Bool("rollback", false, "roll back the most recent migration and exit")
	status := flag.Bool("status", false, "list pending migrations and exit")
	flag.Parse()

	config.LoadConfig()
	logger.Init(config.AppConfig.Env, config.AppConfig.LogLevel)
	if err := database.Connect(); err != nil {
		log.Fatalf("❌ Failed to connect: %v", err)
	}

	m := migrations.NewMigrator(database.DB)

	if *status {
		pending, err := m.Pending()
		if err != nil {
			log.Fatalf("❌ Failed to read migrations: %v", err)
		}
		if len(pending) == 0 {
			log.Println("✅ No pending migrations")
		}
		for _, p := range pending {
			log.Printf("⏳ %s: %s", p.ID, p.Name)
		}
		return
	}

	if *rollback {
		if err := m.Rollback(); err != nil {
			log.Fatalf("❌ Rollback failed: %v", err)
		}
		log.Println("✅ Rolled back last migration")
		return
	}

	log.Println("🔄 Running migrations...")
	if err := database.AutoMigrate(database.DB); err != nil {
		log.Fatalf("❌ AutoMigrate failed: %v", err)
	}
	if err := m.Run(); err != nil {
		log.Fatalf("❌ Migrations failed: %v", err)
	}

	log.Println("🏅 Seeding badges...")
	if err := seeds.SeedBadges(); err != nil {
		log.Fatalf("❌ Failed to seed badges: %v", err)
	}

	if *demo != "" {
		user, created, err := services.GetOrCreateUser(*demo, "email", "Demo User")
		if err != nil {
			log.Fatalf("❌ Failed to create demo user: %v", err)
		}
		log.Printf("👤 Demo user %s (ID: %s, created: %v)", user.Email, user.ID, created)
	}

	log.Println("✅ Seeding complete!")
}
