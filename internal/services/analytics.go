package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
)

// UnroutedDepartment groups categories that map to no department.
const UnroutedDepartment = "Unrouted"

// AnalyticsService aggregates complaint counts for the admin dashboard
type AnalyticsService struct {
	complaints storage.ComplaintStore
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(complaints storage.ComplaintStore) *AnalyticsService {
	return &AnalyticsService{complaints: complaints}
}

// Categories returns complaint counts per category, largest first
func (s *AnalyticsService) Categories(ctx context.Context) ([]models.CategoryDistribution, error) {
	cats, err := s.complaints.CategoryStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	return cats, nil
}

// Departments folds category counts into per-department load. Every
// routable department is listed, even with no complaints.
func (s *AnalyticsService) Departments(ctx context.Context) ([]models.DepartmentLoad, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}

	load := make(map[string]*models.DepartmentLoad)
	for _, d := range Departments() {
		load[d] = &models.DepartmentLoad{Department: d}
	}
	for _, c := range cats {
		dept, ok := ResolveDepartment(c.Category)
		if !ok {
			dept = UnroutedDepartment
		}
		l, ok := load[dept]
		if !ok {
			l = &models.DepartmentLoad{Department: dept}
			load[dept] = l
		}
		l.Count += c.Count
		l.Open += c.Open
	}

	out := make([]models.DepartmentLoad, 0, len(load))
	for _, l := range load {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Department < out[j].Department
	})
	return out, nil
}
