package server

import (
	"socialblog/internal/forms"
	"socialblog/internal/middleware"
	"socialblog/internal/models"
	"socialblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Feed handles GET / with every post, newest first.
func (s *Server) Feed(c *fiber.Ctx) error {
	posts, err := s.postService.Feed(c.UserContext(), service.ListPostsInput{})
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "feed", fiber.Map{
		"Title": "Home",
		"Posts": posts,
	})
}

// UserPosts handles GET /user/:username
func (s *Server) UserPosts(c *fiber.Ctx) error {
	author, posts, err := s.postService.ListByUsername(c.UserContext(), c.Params("username"), service.ListPostsInput{})
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "user_posts", fiber.Map{
		"Title":  author.Username,
		"Author": author,
		"Posts":  posts,
	})
}

// PostDetail handles GET /post/:id. It is public.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return err
	}
	comments, err := s.commentService.ListComments(c.UserContext(), post.ID)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "post_detail", fiber.Map{
		"Title":    post.Title,
		"Post":     post,
		"Comments": comments,
	})
}

// PostCreatePage handles GET /post/new
func (s *Server) PostCreatePage(c *fiber.Ctx) error {
	return s.renderPostForm(c, fiber.StatusOK, nil, forms.PostForm{}, forms.Errors{})
}

// PostCreate handles POST /post/new. The publisher is always the session user.
func (s *Server) PostCreate(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	var form forms.PostForm
	if err := forms.Bind(c, &form); err != nil {
		return fiber.ErrBadRequest
	}
	errs := forms.Validate(form)
	if errs.Valid() {
		_, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
			UserID:  userID,
			Title:   form.Title,
			Content: form.Content,
		})
		if err == nil {
			return seeOther(c, "/")
		}
		if err := applyServiceError(errs, err); err != nil {
			return err
		}
	}
	return s.renderPostForm(c, fiber.StatusUnprocessableEntity, nil, form, errs)
}

// PostUpdatePage handles GET /post/:id/update
func (s *Server) PostUpdatePage(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	post, err := s.postService.GetForModify(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return s.renderPostForm(c, fiber.StatusOK, post, forms.PostForm{Title: post.Title, Content: post.Content}, forms.Errors{})
}

// PostUpdate handles POST /post/:id/update
func (s *Server) PostUpdate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	post, err := s.postService.GetForModify(c.UserContext(), userID, id)
	if err != nil {
		return err
	}

	var form forms.PostForm
	if err := forms.Bind(c, &form); err != nil {
		return fiber.ErrBadRequest
	}
	errs := forms.Validate(form)
	if errs.Valid() {
		_, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
			UserID:  userID,
			PostID:  post.ID,
			Title:   form.Title,
			Content: form.Content,
		})
		if err == nil {
			return seeOther(c, "/")
		}
		if err := applyServiceError(errs, err); err != nil {
			return err
		}
	}
	return s.renderPostForm(c, fiber.StatusUnprocessableEntity, post, form, errs)
}

// PostDeletePage handles GET /post/:id/delete with a confirmation form.
func (s *Server) PostDeletePage(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	post, err := s.postService.GetForModify(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "confirm_delete", fiber.Map{
		"Title":  "Delete Post",
		"Kind":   "post",
		"Label":  post.Title,
		"Cancel": "/post/" + c.Params("id"),
	})
}

// PostDelete handles POST /post/:id/delete
func (s *Server) PostDelete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{UserID: userID, PostID: id}); err != nil {
		return err
	}
	return seeOther(c, "/")
}

func (s *Server) renderPostForm(c *fiber.Ctx, status int, post *models.Post, form forms.PostForm, errs forms.Errors) error {
	title := "New Post"
	if post != nil {
		title = "Update Post"
	}
	return s.render(c, status, "post_form", fiber.Map{
		"Title":  title,
		"Post":   post,
		"Form":   form,
		"Errors": errs,
	})
}
