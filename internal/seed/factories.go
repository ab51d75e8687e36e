// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"socialblog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account logs in with.
const DefaultPassword = "Seeded-Passw0rd!"

// Options tune how seed data is generated.
type Options struct {
	// SkipBcrypt stores a cheap hash so large meshes seed quickly.
	SkipBcrypt bool
	// DryRun builds entities with synthetic IDs and writes nothing.
	DryRun bool
	// MaxDays spreads post timestamps over this many days back. Default 90.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db     *gorm.DB
	opts   Options
	faker  *gofakeit.Faker
	hash   string
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	return &Factory{db: db, opts: opts, faker: gofakeit.New(0), nextID: 1000}
}

func (f *Factory) passwordHash() string {
	if f.hash != "" {
		return f.hash
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		// Only reachable with an out-of-range cost.
		panic(err)
	}
	f.hash = string(h)
	return f.hash
}

// BuildUser returns an unsaved user with a profile. Overrides run last.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	username := usernameFrom(f.faker.Username(), f.faker.Number(100, 9999))
	user := &models.User{
		Username: username,
		Email:    strings.ToLower(username) + "@example.com",
		Password: f.passwordHash(),
		Profile:  &models.Profile{Bio: truncate(f.faker.Sentence(10), 500)},
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if f.opts.DryRun {
		user.ID = f.syntheticID()
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// BuildPost returns an unsaved post by user with a created_at spread over
// the last MaxDays.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60-1)) * time.Minute

	post := &models.Post{
		Title:     truncate(strings.TrimSuffix(f.faker.Sentence(5), "."), 100),
		Content:   f.faker.Paragraph(1, 3, 12, "\n\n"),
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-back),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost constructs and persists a sample post for the given user.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)
	if f.opts.DryRun {
		post.ID = f.syntheticID()
		log.Printf("[dry-run] CreatePost: user=%d title=%q", post.UserID, post.Title)
		return post, nil
	}
	if err := f.db.Omit("User").Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateComment persists a comment by user on post, dated after the post.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	created := post.CreatedAt.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
	if created.After(time.Now()) {
		created = time.Now()
	}
	comment := &models.Comment{
		Content:   f.faker.Sentence(f.faker.Number(4, 20)),
		UserID:    user.ID,
		PostID:    post.ID,
		CreatedAt: created,
	}
	for _, override := range overrides {
		override(comment)
	}
	if f.opts.DryRun {
		comment.ID = f.syntheticID()
		return comment, nil
	}
	if err := f.db.Omit("User", "Post").Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Befriend records that from counts to as a friend. Existing edges are kept.
func (f *Factory) Befriend(from, to *models.User) error {
	if from.ID == to.ID || f.opts.DryRun {
		return nil
	}
	edge := models.Friendship{RequesterID: from.ID, AddresseeID: to.ID}
	return f.db.Omit("Requester", "Addressee").
		Where(models.Friendship{RequesterID: from.ID, AddresseeID: to.ID}).
		FirstOrCreate(&edge).Error
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}

// usernameFrom keeps only characters allowed in usernames and appends n.
func usernameFrom(raw string, n int) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "user"
	}
	suffix := fmt.Sprintf("%d", n)
	if len(base)+len(suffix) > 30 {
		base = base[:30-len(suffix)]
	}
	return base + suffix
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
