package models

import "time"

// UserResponse is the public view of a User. It never carries the email address.
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

// PostResponse is a Post as returned by the JSON API.
type PostResponse struct {
	ID            uint         `json:"id"`
	Title         string       `json:"title"`
	Content       string       `json:"content"`
	UserID        uint         `json:"user_id"`
	User          UserResponse `json:"user"`
	CommentsCount int          `json:"comments_count"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// CommentResponse is a Comment as returned by the JSON API.
type CommentResponse struct {
	ID        uint         `json:"id"`
	Content   string       `json:"content"`
	UserID    uint         `json:"user_id"`
	PostID    uint         `json:"post_id"`
	User      UserResponse `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

func NewUserResponse(u *User) UserResponse {
	if u == nil {
		return UserResponse{}
	}
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.Profile.AvatarURL(),
		CreatedAt: u.CreatedAt,
	}
	if u.Profile != nil {
		resp.Bio = u.Profile.Bio
	}
	return resp
}

func NewUserResponses(users []User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

func NewPostResponse(p *Post) PostResponse {
	return PostResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		UserID:        p.UserID,
		User:          NewUserResponse(&p.User),
		CommentsCount: p.CommentsCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func NewPostResponses(posts []*Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostResponse(p))
	}
	return out
}

func NewCommentResponses(comments []*Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentResponse{
			ID:        c.ID,
			Content:   c.Content,
			UserID:    c.UserID,
			PostID:    c.PostID,
			User:      NewUserResponse(&c.User),
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}
