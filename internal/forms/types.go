package forms

// PostForm is the create/update form for posts. The publisher is never bound
// from the request.
type PostForm struct {
	Title   string `form:"title" validate:"required,max=100"`
	Content string `form:"content" validate:"required,max=50000"`
}

// CommentForm is the create/update form for comments. The parent post comes
// from the URL, never from the body.
type CommentForm struct {
	Content string `form:"content" validate:"required,max=10000"`
}

// RegisterForm creates an account.
type RegisterForm struct {
	Username  string `form:"username" validate:"required,username"`
	Email     string `form:"email" validate:"required,max=254,email"`
	Password1 string `form:"password1" trim:"false" validate:"required,password"`
	Password2 string `form:"password2" trim:"false" validate:"required,eqfield=Password1"`
}

// LoginForm authenticates an existing account.
type LoginForm struct {
	Username string `form:"username" validate:"required,max=254"`
	Password string `form:"password" trim:"false" validate:"required,max=128"`
	Next     string `form:"next"`
}

// AccountForm edits the User fields on the owner's profile page.
type AccountForm struct {
	Username string `form:"username" validate:"required,username"`
	Email    string `form:"email" validate:"required,max=254,email"`
}

// ProfileForm edits the Profile fields. The avatar arrives as the multipart file "image".
type ProfileForm struct {
	Bio string `form:"bio" validate:"max=500"`
}
