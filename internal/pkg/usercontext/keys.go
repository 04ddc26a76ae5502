package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey          = "authenticated"
	KeyUserEmail     = "user_email"
	KeyUserName      = "user_name"
	KeyUserPicture   = "user_picture"
	KeyFromProtected = "from_protected"
)
