// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema in internal/database/migrations.
package models

import (
	"time"
)

// Role is the kind of account a user holds.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleOfficer Role = "officer"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOfficer, RoleStudent:
		return true
	}
	return false
}

// User is an account. Password is an opaque credential and never serialized.
type User struct {
	ID         int64   `json:"id" db:"id"`
	Username   string  `json:"username" db:"username"`
	Password   string  `json:"-" db:"password"`
	Role       Role    `json:"role" db:"role"`
	Department *string `json:"department,omitempty" db:"department"`
	Points     int     `json:"points" db:"points"`
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// ComplaintStatus is a step of the complaint workflow.
type ComplaintStatus string

const (
	StatusPendingReview ComplaintStatus = "Pending Admin Review"
	StatusInProgress    ComplaintStatus = "In Progress"
	StatusResolved      ComplaintStatus = "Resolved"
	StatusClosed        ComplaintStatus = "Closed"
)

// ComplaintStatuses lists every complaint status in workflow order.
var ComplaintStatuses = []ComplaintStatus{StatusPendingReview, StatusInProgress, StatusResolved, StatusClosed}

func (s ComplaintStatus) Valid() bool {
	for _, v := range ComplaintStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Priority of a complaint as chosen by the reporter.
type Priority string

const (
	PriorityUrgent Priority = "Urgent"
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Complaint categories offered to reporters.
const (
	CategoryElectrical     = "Electrical Issues"
	CategoryWater          = "Water & Sanitation"
	CategoryInfrastructure = "Faulty Infrastructure"
	CategoryNetwork        = "Internet & Network"
	CategorySecurity       = "Security Concerns"
)

// Complaint is a facility problem reported by a user.
type Complaint struct {
	ID            int64           `json:"id" db:"id"`
	Title         string          `json:"title" db:"title"`
	Description   string          `json:"description" db:"description"`
	Category      string          `json:"category" db:"category"`
	Priority      Priority        `json:"priority" db:"priority"`
	Status        ComplaintStatus `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	ReporterID    int64           `json:"reporter_id" db:"user_id"`
	AssignedTo    *int64          `json:"assigned_to,omitempty" db:"assigned_to"`
	AdminNotes    *string         `json:"admin_notes,omitempty" db:"admin_notes"`
	OfficerNotes  *string         `json:"officer_notes,omitempty" db:"officer_notes"`
	ImagePath     *string         `json:"image_path,omitempty" db:"image_path"`
	PointsAwarded bool            `json:"points_awarded" db:"points_awarded"`

	// Joined for listings.
	Reporter       string  `json:"reporter,omitempty"`
	AssignedToName *string `json:"assigned_to_name,omitempty"`
}

// ComplaintSubmission is the request body for filing a new complaint
type ComplaintSubmission struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"required,max=50"`
	Priority    Priority `json:"priority" validate:"required,oneof=Urgent High Medium Low"`
}

// ComplaintStatusUpdate is the request body for moving a complaint along the workflow.
type ComplaintStatusUpdate struct {
	Status     ComplaintStatus `json:"status" validate:"required"`
	Notes      *string         `json:"notes,omitempty"`
	AssignedTo *int64          `json:"assigned_to,omitempty"`
}

// LostItemStatus is a step of the lost-and-found workflow.
type LostItemStatus string

const (
	ItemLost      LostItemStatus = "Lost"
	ItemFound     LostItemStatus = "Found"
	ItemCollected LostItemStatus = "Collected"
)

var LostItemStatuses = []LostItemStatus{ItemLost, ItemFound, ItemCollected}

func (s LostItemStatus) Valid() bool {
	for _, v := range LostItemStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// LostItem is an item a user reported missing.
type LostItem struct {
	ID          int64          `json:"id" db:"id"`
	ItemName    string         `json:"item_name" db:"item_name"`
	Description string         `json:"description" db:"description"`
	LostTime    time.Time      `json:"lost_time" db:"lost_time"`
	LostPlace   string         `json:"lost_place" db:"lost_place"`
	Status      LostItemStatus `json:"status" db:"status"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	ReporterID  int64          `json:"reporter_id" db:"user_id"`
	AdminNotes  *string        `json:"admin_notes,omitempty" db:"admin_notes"`
	ImagePath   *string        `json:"image_path,omitempty" db:"image_path"`

	Reporter string `json:"reporter,omitempty"`
}

// LostItemReport is the request body for reporting a lost item
type LostItemReport struct {
	ItemName    string    `json:"item_name" validate:"required,max=100"`
	Description string    `json:"description" validate:"required"`
	LostTime    time.Time `json:"lost_time" validate:"required"`
	LostPlace   string    `json:"lost_place" validate:"required,max=100"`
}

// LostItemStatusUpdate is the request body for an admin status change.
type LostItemStatusUpdate struct {
	Status LostItemStatus `json:"status" validate:"required"`
	Notes  *string        `json:"notes,omitempty"`
}

// LeaderboardEntry is one ranked student.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Points   int    `json:"points"`
	Role     Role   `json:"role"`
}

// ActivityType classifies entries of the complaint activity log.
type ActivityType string

const (
	ActivitySubmission   ActivityType = "submission"
	ActivityStatusChange ActivityType = "status_change"
	ActivityPointsAward  ActivityType = "points_award"
)

// ActivityLog represents a recorded workflow event for accountability tracking
type ActivityLog struct {
	ID                int64        `json:"id" db:"id"`
	ComplaintID       int64        `json:"complaint_id" db:"complaint_id"`
	ActivityType      ActivityType `json:"activity_type" db:"activity_type"`
	ActionDescription string       `json:"action_description" db:"action_description"`
	Actor             string       `json:"actor" db:"actor"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
}

// ActivityLogEntry is a new event to record.
type ActivityLogEntry struct {
	ComplaintID       int64
	ActivityType      ActivityType
	ActionDescription string
	Actor             string
}

// LoginRequest is the request body for POST /auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token and the authenticated user.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// CategoryDistribution for pie/bar charts
type CategoryDistribution struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Open     int    `json:"open"`
}

// DepartmentLoad summarizes complaints routed to one department.
type DepartmentLoad struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
	Open       int    `json:"open"`
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
}
