package models

// Role identifies which of the three TrashDash apps a user belongs to.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDasher   Role = "dasher"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleDasher, RoleAdmin:
		return true
	}
	return false
}

// Label returns the display label for the role ("Customer", "Dasher", "Admin").
func (r Role) Label() string {
	switch r {
	case RoleCustomer:
		return "Customer"
	case RoleDasher:
		return "Dasher"
	case RoleAdmin:
		return "Admin"
	}
	return string(r)
}

// Status is the account status assigned by the backend.
type Status string

const (
	StatusActive              Status = "active"
	StatusInactive            Status = "inactive"
	StatusSuspended           Status = "suspended"
	StatusPendingVerification Status = "pending_verification"
)

// User is the authenticated identity returned by the backend.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone"`
	PhoneVerified bool   `json:"phoneVerified"`
	Role          Role   `json:"role"`
	Status        Status `json:"status"`
	ProfilePhoto  string `json:"profilePhoto,omitempty"`
	PushToken     string `json:"pushToken,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// FullName returns "First Last", tolerating a missing half.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// LoginCredentials is the login request body.
type LoginCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterData is the registration request body. Role is assigned at
// creation time; role-gated apps do not re-check it on register.
type RegisterData struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password_strength"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone" validate:"required,us_phone"`
	Role      Role   `json:"role" validate:"required"`
}

// AuthResponse is the canonical shape every backend auth response is
// normalized into, whatever shape it arrived in.
type AuthResponse struct {
	User         *User  `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
