package database

import (
	"context"
	"fmt"

	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
)

func dept(name string) *string { return &name }

// DefaultUsers is the fixed account set provisioned on a fresh install:
// one admin, one officer per department and a demo student.
var DefaultUsers = []models.User{
	{Username: "admin", Password: "admin", Role: models.RoleAdmin},
	{Username: "electrician", Password: "electrician", Role: models.RoleOfficer, Department: dept("Electrical")},
	{Username: "plumber", Password: "plumber", Role: models.RoleOfficer, Department: dept("Plumbing")},
	{Username: "maintenance", Password: "maintenance", Role: models.RoleOfficer, Department: dept("Maintenance")},
	{Username: "it", Password: "it", Role: models.RoleOfficer, Department: dept("IT")},
	{Username: "security", Password: "security", Role: models.RoleOfficer, Department: dept("Security")},
	{Username: "student", Password: "student", Role: models.RoleStudent},
}

// Seed inserts users that do not exist yet and returns how many were created.
func Seed(ctx context.Context, users storage.UserStore, seed []models.User) (int, error) {
	created := 0
	for i := range seed {
		u := seed[i]
		ok, err := users.CreateUser(ctx, &u)
		if err != nil {
			return created, fmt.Errorf("seed user %q: %w", u.Username, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}
