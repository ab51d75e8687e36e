// Command seed fills the database with demo users, posts, comments and friendships.
package main

import (
	"flag"
	"log"
	"strings"

	"socialblog/internal/config"
	"socialblog/internal/database"
	"socialblog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Use the cheapest bcrypt cost for seeded passwords")
	preset := flag.String("preset", "", "Apply a fixture preset ("+strings.Join(seed.Presets(), ", ")+") instead of random data")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	if *preset != "" {
		log.Printf("Applying preset: %s (ignoring -users and -posts)\n", *preset)
	} else {
		log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{SkipBcrypt: *fast})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if *preset != "" {
		if err := s.ApplyPreset(*preset); err != nil {
			log.Fatalf("❌ Preset seeding failed: %v", err)
		}
	} else {
		users, err := s.SeedSocialMesh(*numUsers)
		if err != nil {
			log.Fatalf("❌ User seeding failed: %v", err)
		}
		if _, err := s.SeedEngagement(users, *numPosts); err != nil {
			log.Fatalf("❌ Engagement seeding failed: %v", err)
		}
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All seeded users have the password: %s\n", seed.DefaultPassword)
}
