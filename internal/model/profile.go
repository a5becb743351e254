package model

// Profile is the user record joined into reports and used to address
// notifications.
type Profile struct {
	ID       string `json:"id" db:"id"`
	FullName string `json:"full_name" db:"full_name"`
	SBUName  string `json:"sbu_name" db:"sbu_name"`
	Email    string `json:"email" db:"email"`
	Role     string `json:"role" db:"role"`
}
