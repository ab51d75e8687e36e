package forms

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_PostForm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		form   PostForm
		fields []string
	}{
		{"valid", PostForm{Title: "Hello", Content: "World"}, nil},
		{"missing both", PostForm{}, []string{"title", "content"}},
		{"title at limit", PostForm{Title: strings.Repeat("t", 100), Content: "x"}, nil},
		{"title too long", PostForm{Title: strings.Repeat("t", 101), Content: "x"}, []string{"title"}},
		{"multibyte title at limit", PostForm{Title: strings.Repeat("é", 100), Content: "x"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&tt.form)
			assert.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				assert.True(t, errs.Has(f), "expected error on %s, got %v", f, errs)
			}
		})
	}
}

func TestValidate_RegisterForm(t *testing.T) {
	t.Parallel()

	valid := func() RegisterForm {
		return RegisterForm{
			Username:  "alice",
			Email:     "alice@example.com",
			Password1: "SecurePass12!@",
			Password2: "SecurePass12!@",
		}
	}

	tests := []struct {
		name    string
		mutate  func(f *RegisterForm)
		field   string
		message string
	}{
		{"valid", func(*RegisterForm) {}, "", ""},
		{"mismatched passwords", func(f *RegisterForm) { f.Password2 = "Different12!@" }, "password2", "The two password fields didn't match."},
		{"weak password", func(f *RegisterForm) { f.Password1, f.Password2 = "short", "short" }, "password1", "Password must be at least 12 characters long."},
		{"bad username", func(f *RegisterForm) { f.Username = "-alice" }, "username", "Username cannot start or end with underscore or hyphen."},
		{"bad email", func(f *RegisterForm) { f.Email = "nope" }, "email", "Enter a valid email address."},
		{"missing username", func(f *RegisterForm) { f.Username = "" }, "username", "This field is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(&f)
			errs := Validate(&f)
			if tt.field == "" {
				assert.True(t, errs.Valid(), "%v", errs)
				return
			}
			assert.Equal(t, tt.message, errs[tt.field])
		})
	}
}

func TestValidate_MaxMessageCountsCharacters(t *testing.T) {
	t.Parallel()

	errs := Validate(&CommentForm{Content: strings.Repeat("x", 10001)})
	assert.Equal(t, "Ensure this value has at most 10000 characters (it has 10001).", errs["content"])
}

func TestErrors_AddKeepsFirst(t *testing.T) {
	t.Parallel()

	errs := Errors{}
	errs.Add("username", "first")
	errs.Add("username", "second")
	errs.Merge(Errors{"email": "taken", "username": "third"})

	assert.Equal(t, "first", errs["username"])
	assert.Equal(t, "taken", errs["email"])
	assert.False(t, errs.Valid())
}

func TestBind_TrimsAndIgnoresPublisher(t *testing.T) {
	app := fiber.New()
	var got PostForm
	app.Post("/", func(c *fiber.Ctx) error {
		if err := Bind(c, &got); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	vals := url.Values{}
	vals.Set("title", "  Hello  ")
	vals.Set("content", "\nbody\n")
	vals.Set("publisher", "99")
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(vals.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "body", got.Content)
}

func TestBind_KeepsPasswordWhitespace(t *testing.T) {
	app := fiber.New()
	var got LoginForm
	app.Post("/", func(c *fiber.Ctx) error {
		return Bind(c, &got)
	})

	vals := url.Values{"username": {" bob "}, "password": {" pass word "}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(vals.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	_, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.Equal(t, " pass word ", got.Password)
}
