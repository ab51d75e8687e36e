package server

import (
	"strings"

	"socialblog/internal/middleware"
	"socialblog/internal/models"
	"socialblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// APIListPosts handles GET /api/posts
// @Summary List posts
// @Description Newest posts first
// @Tags posts
// @Produce json
// @Param limit query int false "Max results (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.PostResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [get]
func (s *Server) APIListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.postService.Feed(c.UserContext(), service.ListPostsInput{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return err
	}
	return c.JSON(models.NewPostResponses(posts))
}

// APIGetPost handles GET /api/posts/:id
// @Summary Get a post
// @Description A single post with its comments
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{post=models.PostResponse,comments=[]models.CommentResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) APIGetPost(c *fiber.Ctx) error {
	id, err := apiID(c, "id")
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
	return c.JSON(fiber.Map{
		"post":     models.NewPostResponse(post),
		"comments": models.NewCommentResponses(comments),
	})
}

// APISearchUsers handles GET /api/users/search
// @Summary Search users
// @Description Case-insensitive username substring match; empty matches everyone
// @Tags users
// @Produce json
// @Param searched query string false "Search term"
// @Success 200 {array} models.UserResponse
// @Router /users/search [get]
func (s *Server) APISearchUsers(c *fiber.Ctx) error {
	users, err := s.userService.SearchUsers(c.UserContext(), strings.TrimSpace(c.Query("searched")))
	if err != nil {
		return err
	}
	return c.JSON(models.NewUserResponses(users))
}

// APIGetFriends handles GET /api/users/:id/friends
// @Summary List friends
// @Description Users that the given user has added as friends
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.UserResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/friends [get]
func (s *Server) APIGetFriends(c *fiber.Ctx) error {
	id, err := apiID(c, "id")
	if err != nil {
		return err
	}
	if _, err := s.userService.GetUserByID(c.UserContext(), id); err != nil {
		return err
	}
	friends, err := s.friendService.GetFriends(c.UserContext(), id)
	if err != nil {
		return err
	}
	middleware.Logger.DebugContext(c.UserContext(), "friends listed", "target_user_id", id, "count", len(friends))
	return c.JSON(models.NewUserResponses(friends))
}
