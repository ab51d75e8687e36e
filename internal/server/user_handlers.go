package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"socialblog/internal/featureflags"
	"socialblog/internal/forms"
	"socialblog/internal/middleware"
	"socialblog/internal/models"
	"socialblog/internal/notifications"
	"socialblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Search handles GET /search?searched=. An empty term lists every user.
func (s *Server) Search(c *fiber.Ctx) error {
	searched := strings.TrimSpace(c.Query("searched"))
	users, err := s.userService.SearchUsers(c.UserContext(), searched)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "search", fiber.Map{
		"Title":    "Search",
		"Searched": searched,
		"Users":    users,
	})
}

// RegisterPage handles GET /register
func (s *Server) RegisterPage(c *fiber.Ctx) error {
	return s.renderRegister(c, fiber.StatusOK, forms.RegisterForm{}, forms.Errors{})
}

// Register handles POST /register and sends the new user to the login page.
func (s *Server) Register(c *fiber.Ctx) error {
	var form forms.RegisterForm
	if err := forms.Bind(c, &form); err != nil {
		return fiber.ErrBadRequest
	}
	errs := forms.Validate(form)
	if errs.Valid() {
		user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
			Username: form.Username,
			Email:    form.Email,
			Password: form.Password1,
		})
		if err == nil {
			middleware.Logger.InfoContext(c.UserContext(), "user registered", "new_user_id", user.ID)
			s.addFlash(c, FlashSuccess, "Your account has been created! You are now able to log in")
			return seeOther(c, loginPath)
		}
		if err := applyServiceError(errs, err); err != nil {
			return err
		}
	}
	form.Password1, form.Password2 = "", ""
	return s.renderRegister(c, fiber.StatusUnprocessableEntity, form, errs)
}

func (s *Server) renderRegister(c *fiber.Ctx, status int, form forms.RegisterForm, errs forms.Errors) error {
	return s.render(c, status, "register", fiber.Map{
		"Title":  "Register",
		"Form":   form,
		"Errors": errs,
	})
}

// ProfilePage handles GET /profile/:id. The owner gets the edit forms,
// anyone else gets the friend button and the user's posts.
func (s *Server) ProfilePage(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	target, err := s.userService.GetProfile(c.UserContext(), id)
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	if userID == target.ID {
		return s.renderOwnerProfile(c, fiber.StatusOK, target,
			forms.AccountForm{Username: target.Username, Email: target.Email},
			forms.ProfileForm{Bio: target.Profile.Bio},
			forms.Errors{})
	}
	return s.renderViewerProfile(c, userID, target)
}

// ProfileSubmit handles POST /profile/:id. The owner saves both forms;
// a visitor toggles friendship with the profile's user.
func (s *Server) ProfileSubmit(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	target, err := s.userService.GetProfile(c.UserContext(), id)
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	if userID == target.ID {
		return s.updateOwnProfile(c, target)
	}
	return s.toggleFriend(c, userID, target)
}

func (s *Server) updateOwnProfile(c *fiber.Ctx, target *models.User) error {
	var account forms.AccountForm
	if err := forms.Bind(c, &account); err != nil {
		return fiber.ErrBadRequest
	}
	var profile forms.ProfileForm
	if err := forms.Bind(c, &profile); err != nil {
		return fiber.ErrBadRequest
	}
	errs := forms.Validate(account)
	errs.Merge(forms.Validate(profile))

	avatar, problem := s.avatarUpload(c, target.ID)
	if problem != "" {
		errs.Add("image", problem)
	}

	if errs.Valid() {
		_, err := s.userService.UpdateAccount(c.UserContext(), service.UpdateAccountInput{
			UserID:   target.ID,
			Username: account.Username,
			Email:    account.Email,
			Bio:      profile.Bio,
			Avatar:   avatar,
		})
		if err == nil {
			s.addFlash(c, FlashSuccess, "Your account has been updated!")
			return seeOther(c, c.Path())
		}
		if err := applyServiceError(errs, err); err != nil {
			return err
		}
	}
	return s.renderOwnerProfile(c, fiber.StatusUnprocessableEntity, target, account, profile, errs)
}

func (s *Server) toggleFriend(c *fiber.Ctx, userID uint, target *models.User) error {
	res, err := s.friendService.Toggle(c.UserContext(), userID, target.ID)
	if err != nil {
		return err
	}
	eventType := notifications.EventFriendRemoved
	if res.Added {
		eventType = notifications.EventFriendAdded
		s.addFlash(c, FlashSuccess, "Successfully added friend!")
	} else {
		s.addFlash(c, FlashInfo, fmt.Sprintf("Successfully unfriended with %s.", target.Username))
	}
	s.publishUserEvent(c, target.ID, eventType, map[string]any{"user_id": userID})
	return seeOther(c, c.Path())
}

// avatarUpload reads the optional "image" file. A nil upload with no
// problem means the field was left empty.
func (s *Server) avatarUpload(c *fiber.Ctx, userID uint) (*service.AvatarUpload, string) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, ""
	}
	fh, err := c.FormFile("image")
	if err != nil || fh.Size == 0 {
		return nil, ""
	}
	if !s.featureFlags.Enabled(featureflags.AvatarUpload, userID) {
		return nil, "Avatar uploads are disabled."
	}
	limit := s.maxUploadBytes()
	if fh.Size > limit {
		return nil, fmt.Sprintf("Image is too large (max %d MB).", limit>>20)
	}
	content, err := readUpload(fh, limit)
	if err != nil {
		return nil, "Upload a valid image."
	}
	return &service.AvatarUpload{Filename: fh.Filename, Content: content}, ""
}

func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}

func (s *Server) renderOwnerProfile(c *fiber.Ctx, status int, target *models.User, account forms.AccountForm, profile forms.ProfileForm, errs forms.Errors) error {
	count, err := s.friendService.CountFriends(c.UserContext(), target.ID)
	if err != nil {
		return err
	}
	return s.render(c, status, "profile", fiber.Map{
		"Title":        "Profile",
		"Target":       target,
		"Owner":        true,
		"FriendCount":  count,
		"Account":      account,
		"ProfileForm":  profile,
		"AvatarUpload": s.featureFlags.Enabled(featureflags.AvatarUpload, target.ID),
		"Errors":       errs,
	})
}

func (s *Server) renderViewerProfile(c *fiber.Ctx, userID uint, target *models.User) error {
	ctx := c.UserContext()
	isFriend, err := s.friendService.IsFriend(ctx, userID, target.ID)
	if err != nil {
		return err
	}
	count, err := s.friendService.CountFriends(ctx, target.ID)
	if err != nil {
		return err
	}
	posts, err := s.postService.ListByUser(ctx, target.ID, service.ListPostsInput{})
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "profile", fiber.Map{
		"Title":       target.Username,
		"Target":      target,
		"Owner":       false,
		"FriendCount": count,
		"IsFriend":    isFriend,
		"Posts":       posts,
		"Errors":      forms.Errors{},
	})
}
