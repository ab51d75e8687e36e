package seed

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"socialblog/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures/*.yml
var fixtureFS embed.FS

// Fixture is a hand-written set of accounts with their posts, comments and
// friends.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
}

type FixtureUser struct {
	Username string        `yaml:"username"`
	Email    string        `yaml:"email"`
	Bio      string        `yaml:"bio"`
	Admin    bool          `yaml:"admin"`
	Friends  []string      `yaml:"friends"`
	Posts    []FixturePost `yaml:"posts"`
}

type FixturePost struct {
	Title    string           `yaml:"title"`
	Content  string           `yaml:"content"`
	Comments []FixtureComment `yaml:"comments"`
}

type FixtureComment struct {
	By      string `yaml:"by"`
	Content string `yaml:"content"`
}

// Presets lists the embedded fixture names.
func Presets() []string {
	entries, err := fixtureFS.ReadDir("fixtures")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// LoadFixture reads an embedded fixture by name.
func LoadFixture(name string) (*Fixture, error) {
	data, err := fixtureFS.ReadFile("fixtures/" + name + ".yml")
	if err != nil {
		return nil, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(Presets(), ", "))
	}
	return ParseFixture(data)
}

// ParseFixture decodes YAML and checks that every reference resolves.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	known := make(map[string]bool, len(fx.Users))
	for _, u := range fx.Users {
		if u.Username == "" {
			return nil, errors.New("fixture user without username")
		}
		if known[u.Username] {
			return nil, fmt.Errorf("duplicate fixture user %q", u.Username)
		}
		known[u.Username] = true
	}
	for _, u := range fx.Users {
		for _, friend := range u.Friends {
			if !known[friend] {
				return nil, fmt.Errorf("%s befriends unknown user %q", u.Username, friend)
			}
		}
		for _, p := range u.Posts {
			for _, c := range p.Comments {
				if !known[c.By] {
					return nil, fmt.Errorf("comment on %q by unknown user %q", p.Title, c.By)
				}
			}
		}
	}
	return &fx, nil
}

// ApplyFixture writes fx. Users are matched by username and posts by
// author and title, so applying the same fixture twice changes nothing.
func ApplyFixture(db *gorm.DB, f *Factory, fx *Fixture) error {
	return db.Transaction(func(tx *gorm.DB) error {
		users := make(map[string]*models.User, len(fx.Users))
		for _, fu := range fx.Users {
			u, err := ensureUser(tx, f, fu)
			if err != nil {
				return err
			}
			users[fu.Username] = u
		}

		for _, fu := range fx.Users {
			author := users[fu.Username]
			for _, name := range fu.Friends {
				edge := models.Friendship{RequesterID: author.ID, AddresseeID: users[name].ID}
				if err := tx.Omit("Requester", "Addressee").Where(edge).FirstOrCreate(&edge).Error; err != nil {
					return fmt.Errorf("befriend %s -> %s: %w", fu.Username, name, err)
				}
			}
			for _, fp := range fu.Posts {
				if err := ensurePost(tx, author, users, fp); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func ensureUser(tx *gorm.DB, f *Factory, fu FixtureUser) (*models.User, error) {
	var user models.User
	err := tx.Where("username = ?", fu.Username).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	email := fu.Email
	if email == "" {
		email = strings.ToLower(fu.Username) + "@example.com"
	}
	built := f.BuildUser(func(u *models.User) {
		u.Username = fu.Username
		u.Email = email
		u.IsAdmin = fu.Admin
		u.Profile = &models.Profile{Bio: fu.Bio}
	})
	if err := tx.Create(built).Error; err != nil {
		return nil, fmt.Errorf("create fixture user %s: %w", fu.Username, err)
	}
	return built, nil
}

func ensurePost(tx *gorm.DB, author *models.User, users map[string]*models.User, fp FixturePost) error {
	var post models.Post
	err := tx.Where("user_id = ? AND title = ?", author.ID, fp.Title).First(&post).Error
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	post = models.Post{Title: fp.Title, Content: fp.Content, UserID: author.ID}
	if err := tx.Omit("User").Create(&post).Error; err != nil {
		return fmt.Errorf("create fixture post %q: %w", fp.Title, err)
	}
	for _, fc := range fp.Comments {
		c := models.Comment{Content: fc.Content, UserID: users[fc.By].ID, PostID: post.ID}
		if err := tx.Omit("User", "Post").Create(&c).Error; err != nil {
			return fmt.Errorf("create fixture comment on %q: %w", fp.Title, err)
		}
	}
	return nil
}
