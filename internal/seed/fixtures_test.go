package seed

import (
	"strings"
	"testing"

	"socialblog/internal/models"
	"socialblog/internal/testutil"
)

func TestPresets(t *testing.T) {
	presets := Presets()
	if len(presets) == 0 || presets[0] != "demo" {
		t.Fatalf("expected demo preset, got %v", presets)
	}
	if _, err := LoadFixture("nope"); err == nil || !strings.Contains(err.Error(), "demo") {
		t.Fatalf("expected unknown preset error listing presets, got %v", err)
	}
}

func TestParseFixture_RejectsDanglingReferences(t *testing.T) {
	tests := map[string]string{
		"unknown friend": `
users:
  - username: a
    friends: [ghost]
`,
		"unknown commenter": `
users:
  - username: a
    posts:
      - title: t
        content: c
        comments:
          - by: ghost
            content: hi
`,
		"duplicate user": `
users:
  - username: a
  - username: a
`,
		"missing username": `
users:
  - email: a@example.com
`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseFixture([]byte(doc)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestApplyFixture_Idempotent(t *testing.T) {
	db := testutil.OpenSQLite(t)
	s := NewSeeder(db, Options{SkipBcrypt: true})

	if err := s.ApplyPreset("demo"); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := s.ApplyPreset("demo"); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	counts := map[string]struct {
		model any
		want  int64
	}{
		"users":       {&models.User{}, 3},
		"posts":       {&models.Post{}, 3},
		"comments":    {&models.Comment{}, 3},
		"friendships": {&models.Friendship{}, 3},
	}
	for name, c := range counts {
		var got int64
		if err := db.Model(c.model).Count(&got).Error; err != nil {
			t.Fatalf("count %s: %v", name, err)
		}
		if got != c.want {
			t.Fatalf("expected %d %s, got %d", c.want, name, got)
		}
	}

	var alice, kali models.User
	if err := db.Where("username = ?", "alice").First(&alice).Error; err != nil {
		t.Fatalf("alice: %v", err)
	}
	if !alice.IsAdmin {
		t.Fatal("expected alice to be an admin")
	}
	if err := db.Where("username = ?", "kali").First(&kali).Error; err != nil {
		t.Fatalf("kali: %v", err)
	}

	var reverse int64
	if err := db.Model(&models.Friendship{}).
		Where("requester_id = ? AND addressee_id = ?", kali.ID, alice.ID).
		Count(&reverse).Error; err != nil {
		t.Fatalf("count reverse edge: %v", err)
	}
	if reverse != 0 {
		t.Fatal("friendship must stay directed")
	}
}
