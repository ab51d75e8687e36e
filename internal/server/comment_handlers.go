package server

import (
	"strconv"

	"socialblog/internal/forms"
	"socialblog/internal/middleware"
	"socialblog/internal/models"
	"socialblog/internal/notifications"
	"socialblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CommentCreatePage handles GET /post/:id/comment/new
func (s *Server) CommentCreatePage(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return err
	}
	return s.renderCommentForm(c, fiber.StatusOK, post, nil, forms.CommentForm{}, forms.Errors{})
}

// CommentCreate handles POST /post/:id/comment/new. The parent post comes
// from the path and the publisher from the session.
func (s *Server) CommentCreate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return err
	}

	var form forms.CommentForm
	if err := forms.Bind(c, &form); err != nil {
		return fiber.ErrBadRequest
	}
	errs := forms.Validate(form)
	if errs.Valid() {
		comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
			UserID:  userID,
			PostID:  post.ID,
			Content: form.Content,
		})
		if err == nil {
			s.notifyCommentCreated(c, comment)
			return seeOther(c, "/")
		}
		if err := applyServiceError(errs, err); err != nil {
			return err
		}
	}
	return s.renderCommentForm(c, fiber.StatusUnprocessableEntity, post, nil, form, errs)
}

// CommentUpdatePage handles GET /comment/:id/update
func (s *Server) CommentUpdatePage(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	comment, err := s.commentService.GetForModify(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return s.renderCommentForm(c, fiber.StatusOK, comment.Post, comment, forms.CommentForm{Content: comment.Content}, forms.Errors{})
}

// CommentUpdate handles POST /comment/:id/update
func (s *Server) CommentUpdate(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	comment, err := s.commentService.GetForModify(c.UserContext(), userID, id)
	if err != nil {
		return err
	}

	var form forms.CommentForm
	if err := forms.Bind(c, &form); err != nil {
		return fiber.ErrBadRequest
	}
	errs := forms.Validate(form)
	if errs.Valid() {
		_, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
			UserID:    userID,
			CommentID: comment.ID,
			Content:   form.Content,
		})
		if err == nil {
			return seeOther(c, "/")
		}
		if err := applyServiceError(errs, err); err != nil {
			return err
		}
	}
	return s.renderCommentForm(c, fiber.StatusUnprocessableEntity, comment.Post, comment, form, errs)
}

// CommentDeletePage handles GET /comment/:id/delete
func (s *Server) CommentDeletePage(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	comment, err := s.commentService.GetForModify(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "confirm_delete", fiber.Map{
		"Title":  "Delete Comment",
		"Kind":   "comment",
		"Cancel": "/post/" + strconv.FormatUint(uint64(comment.PostID), 10),
	})
}

// CommentDelete handles POST /comment/:id/delete
func (s *Server) CommentDelete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)
	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{UserID: userID, CommentID: id}); err != nil {
		return err
	}
	return seeOther(c, "/")
}

func (s *Server) renderCommentForm(c *fiber.Ctx, status int, post *models.Post, comment *models.Comment, form forms.CommentForm, errs forms.Errors) error {
	title := "New Comment"
	if comment != nil {
		title = "Edit Comment"
	}
	return s.render(c, status, "comment_form", fiber.Map{
		"Title":   title,
		"Post":    post,
		"Comment": comment,
		"Form":    form,
		"Errors":  errs,
	})
}

func (s *Server) notifyCommentCreated(c *fiber.Ctx, comment *models.Comment) {
	if comment.Post == nil || comment.Post.UserID == comment.UserID {
		return
	}
	s.publishUserEvent(c, comment.Post.UserID, notifications.EventCommentCreated, map[string]any{
		"post_id":    comment.PostID,
		"post_title": comment.Post.Title,
		"comment_id": comment.ID,
		"user_id":    comment.UserID,
	})
}
