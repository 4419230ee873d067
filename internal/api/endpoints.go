package api

// Endpoints holds the backend path for each auth operation. Paths are
// relative to the client base URL, which already carries the /api/v1 prefix.
type Endpoints struct {
	Login    string
	Register string
	Logout   string
	Profile  string
	Refresh  string
}

// DefaultEndpoints returns the standard TrashDash auth endpoint layout.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:    "/auth/login",
		Register: "/auth/register",
		Logout:   "/auth/logout",
		Profile:  "/auth/profile",
		Refresh:  "/auth/refresh",
	}
}
