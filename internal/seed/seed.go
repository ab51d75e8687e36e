package seed

import (
	"fmt"
	"log"
	"math/rand/v2"

	"socialblog/internal/models"

	"gorm.io/gorm"
)

// Seeder fills a database with a random social graph.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// ClearAll removes every row the application owns.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec(`TRUNCATE TABLE comments, friendships, posts, profiles, users RESTART IDENTITY CASCADE`).Error
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"comments", "friendships", "posts", "profiles", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedSocialMesh creates n users and gives each up to three friends.
func (s *Seeder) SeedSocialMesh(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
		if (i+1)%100 == 0 {
			log.Printf("Created %d users...", i+1)
		}
	}

	if len(users) > 1 {
		for _, u := range users {
			for j := 0; j < rand.IntN(4); j++ {
				other := users[rand.IntN(len(users))]
				if err := s.factory.Befriend(u, other); err != nil {
					return nil, fmt.Errorf("befriend: %w", err)
				}
			}
		}
	}
	log.Printf("✓ %d users created", len(users))
	return users, nil
}

// SeedEngagement spreads numPosts posts over users, each with up to four
// comments from random users.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}
	posts := make([]*models.Post, 0, numPosts)
	comments := 0
	for i := 0; i < numPosts; i++ {
		post, err := s.factory.CreatePost(users[rand.IntN(len(users))])
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)

		for j := 0; j < rand.IntN(5); j++ {
			if _, err := s.factory.CreateComment(users[rand.IntN(len(users))], post); err != nil {
				return nil, err
			}
			comments++
		}
	}
	log.Printf("✓ %d posts and %d comments created", len(posts), comments)
	return posts, nil
}

// ApplyPreset loads the named fixture and writes it.
func (s *Seeder) ApplyPreset(name string) error {
	fx, err := LoadFixture(name)
	if err != nil {
		return err
	}
	return ApplyFixture(s.db, s.factory, fx)
}
