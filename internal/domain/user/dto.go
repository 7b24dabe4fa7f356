package user

// EmployeeResponse is the compact user projection used by calendar filters
type EmployeeResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionUserResponse mirrors the identity carried in the access token
type SessionUserResponse struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Role       Role    `json:"role"`
	Department *string `json:"department,omitempty"`
}

func ToEmployeeResponse(u User) EmployeeResponse {
	return EmployeeResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func ToSessionUserResponse(a Actor) SessionUserResponse {
	return SessionUserResponse{
		ID:         a.ID,
		Email:      a.Email,
		Name:       a.Name,
		Role:       a.Role,
		Department: a.Department,
	}
}
