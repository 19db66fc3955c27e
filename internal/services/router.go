package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
)

// departmentByCategory routes each complaint category to the department
// whose officer handles it.
var departmentByCategory = map[string]string{
	models.CategoryElectrical:     "Electrical",
	models.CategoryWater:          "Plumbing",
	models.CategoryInfrastructure: "Maintenance",
	models.CategoryNetwork:        "IT",
	models.CategorySecurity:       "Security",
}

// ResolveDepartment maps a complaint category to its department.
func ResolveDepartment(category string) (string, bool) {
	dept, ok := departmentByCategory[category]
	return dept, ok
}

// Departments lists every routable department in name order.
func Departments() []string {
	out := make([]string, 0, len(departmentByCategory))
	for _, d := range departmentByCategory {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Routing is the outcome of routing a complaint. Either field may be nil.
type Routing struct {
	Department *string
	OfficerID  *int64
}

// DepartmentRouter resolves which officer receives a complaint.
type DepartmentRouter struct {
	users storage.UserStore
}

// NewDepartmentRouter creates a router over the user store
func NewDepartmentRouter(users storage.UserStore) *DepartmentRouter {
	return &DepartmentRouter{users: users}
}

// ResolveOfficer returns the officer on duty for department, or nil when
// the department has none. Several officers resolve to the lowest id.
func (r *DepartmentRouter) ResolveOfficer(ctx context.Context, department string) (*int64, error) {
	id, err := r.users.OfficerForDepartment(ctx, department)
	if err != nil {
		return nil, fmt.Errorf("resolve officer for %s: %w", department, err)
	}
	return id, nil
}

// Route resolves the department and officer for a category.
func (r *DepartmentRouter) Route(ctx context.Context, category string) (Routing, error) {
	dept, ok := ResolveDepartment(category)
	if !ok {
		return Routing{}, nil
	}
	officer, err := r.ResolveOfficer(ctx, dept)
	if err != nil {
		return Routing{}, err
	}
	return Routing{Department: &dept, OfficerID: officer}, nil
}

// Officers lists every officer account.
func (r *DepartmentRouter) Officers(ctx context.Context) ([]models.User, error) {
	return r.users.ListOfficers(ctx)
}
