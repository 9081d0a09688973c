package entity

import (
	"strings"
	"time"
)

// Project is the resource-management record that names a request's approvers
type Project struct {
	ProjectID           int64     `json:"project_id"`
	ProjectCode         string    `json:"project_code"`
	ProjectName         string    `json:"project_name"`
	DuID                int       `json:"du_id"`
	ProjectStartDate    time.Time `json:"project_start_date"`
	ProjectEndDate      time.Time `json:"project_end_date"`
	ProjectManager      string    `json:"project_manager"`
	ProjectManagerEmail string    `json:"project_manager_email"`
	ProjectStatus       string    `json:"project_status"`
	DuHeadName          string    `json:"du_head_name"`
	DuHeadEmail         string    `json:"du_head_email"`
	IsActive            bool      `json:"is_active"`
}

// User is an employee account
type User struct {
	UserID        int64     `json:"user_id"`
	EmployeeName  string    `json:"employee_name"`
	EmployeeEmail string    `json:"employee_email"`
	PasswordHash  string    `json:"-"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	UserRole      string    `json:"user_role"`
	Department    string    `json:"department"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return strings.EqualFold(u.UserRole, RoleAdmin)
}

// HasEmail compares addresses case-insensitively
func (u *User) HasEmail(email string) bool {
	return SameEmail(u.EmployeeEmail, email)
}

// SameEmail compares two addresses ignoring case and surrounding space
func SameEmail(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
