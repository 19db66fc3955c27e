package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/database"
	"github.com/sbms/facilities-server/internal/filestore"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
	"github.com/sbms/facilities-server/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	store       *memory.Store
	cache       *mapCache
	complaints  *ComplaintService
	lostItems   *LostItemService
	leaderboard *LeaderboardService
	auth        *AuthService
	analytics   *AnalyticsService
}

func newFixture(t *testing.T, opts ...func(*fixtureConfig)) *fixture {
	t.Helper()
	cfg := fixtureConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	st := memory.New()
	_, err := database.Seed(context.Background(), st, database.DefaultUsers)
	require.NoError(t, err)

	var backing storage.Store = st
	if cfg.wrap != nil {
		backing = cfg.wrap(st)
	}
	if cfg.files == nil {
		local, err := filestore.NewLocal(t.TempDir())
		require.NoError(t, err)
		cfg.files = local
	}

	logger := zaptest.NewLogger(t).Sugar()
	cache := newMapCache()
	ledger := NewRewardsLedger(cache, logger)
	activity := NewActivityLogService(backing, logger)
	return &fixture{
		store:       st,
		cache:       cache,
		complaints:  NewComplaintService(backing, NewDepartmentRouter(backing), ledger, cfg.files, activity, logger),
		lostItems:   NewLostItemService(backing, cfg.files, logger),
		leaderboard: NewLeaderboardService(backing, cache, logger),
		auth:        NewAuthService(backing, "test-secret", time.Hour, logger),
		analytics:   NewAnalyticsService(backing),
	}
}

type fixtureConfig struct {
	files FileStore
	wrap  func(*memory.Store) storage.Store
}

func withFiles(fs FileStore) func(*fixtureConfig) {
	return func(c *fixtureConfig) { c.files = fs }
}

func withStore(wrap func(*memory.Store) storage.Store) func(*fixtureConfig) {
	return func(c *fixtureConfig) { c.wrap = wrap }
}

func (f *fixture) actor(t *testing.T, username string) models.Actor {
	t.Helper()
	u, err := f.store.GetUserByUsername(context.Background(), username)
	require.NoError(t, err)
	return models.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (f *fixture) addStudent(t *testing.T, username string, points int) models.Actor {
	t.Helper()
	ctx := context.Background()
	u := &models.User{Username: username, Password: username, Role: models.RoleStudent}
	created, err := f.store.CreateUser(ctx, u)
	require.NoError(t, err)
	require.True(t, created)
	if points > 0 {
		require.NoError(t, f.store.AddPoints(ctx, u.ID, points))
	}
	return models.Actor{ID: u.ID, Username: username, Role: models.RoleStudent}
}

func (f *fixture) points(t *testing.T, a models.Actor) int {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), a.ID)
	require.NoError(t, err)
	return u.Points
}

func (f *fixture) submit(t *testing.T, a models.Actor, category string) *models.Complaint {
	t.Helper()
	c, err := f.complaints.Submit(context.Background(), a, models.ComplaintSubmission{
		Title:       "Broken thing",
		Description: "It stopped working this morning",
		Category:    category,
		Priority:    models.PriorityHigh,
	}, nil)
	require.NoError(t, err)
	return c
}

func setStatus(status models.ComplaintStatus) models.ComplaintStatusUpdate {
	return models.ComplaintStatusUpdate{Status: status}
}

type mapCache struct {
	mu            sync.Mutex
	data          map[int][]models.LeaderboardEntry
	invalidations int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[int][]models.LeaderboardEntry)}
}

func (c *mapCache) Get(_ context.Context, limit int) ([]models.LeaderboardEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[limit]
	return e, ok, nil
}

func (c *mapCache) Set(_ context.Context, limit int, entries []models.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[limit] = entries
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[int][]models.LeaderboardEntry)
	c.invalidations++
	return nil
}

type brokenFiles struct{}

func (brokenFiles) Store(context.Context, io.Reader, string) (string, error) {
	return "", &apperr.StorageError{Path: "uploads", Err: errors.New("disk full")}
}

func (brokenFiles) Remove(string) error { return nil }

type pointlessStore struct{ *memory.Store }

func (pointlessStore) AddPoints(context.Context, int64, int) error {
	return errors.New("connection reset by peer")
}

// Complaints

func TestSubmit_RoutesToDepartmentOfficer(t *testing.T) {
	f := newFixture(t)
	student := f.actor(t, "student")
	plumber := f.actor(t, "plumber")

	c := f.submit(t, student, models.CategoryWater)

	require.NotNil(t, c.AssignedTo)
	assert.Equal(t, plumber.ID, *c.AssignedTo)
	assert.Equal(t, models.StatusPendingReview, c.Status)
	assert.False(t, c.PointsAwarded)
	assert.Equal(t, "student", c.Reporter)
	assert.Equal(t, 1, f.points(t, student))
}

func TestSubmit_UnroutedCategoryStillAwards(t *testing.T) {
	f := newFixture(t)
	student := f.actor(t, "student")

	c := f.submit(t, student, "Cafeteria")

	assert.Nil(t, c.AssignedTo)
	assert.Equal(t, 1, f.points(t, student))
}

func TestSubmit_EachSubmissionAwardsOnePoint(t *testing.T) {
	f := newFixture(t)
	student := f.actor(t, "student")

	for i := 0; i < 3; i++ {
		f.submit(t, student, models.CategoryNetwork)
	}

	assert.Equal(t, 3, f.points(t, student))
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	student := f.actor(t, "student")

	_, err := f.complaints.Submit(context.Background(), student, models.ComplaintSubmission{
		Description: "no title",
		Category:    models.CategoryElectrical,
		Priority:    "Whenever",
	}, nil)

	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Fields))
	for _, fe := range verr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"title", "priority"}, fields)

	n, err := f.complaints.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.points(t, student))
}

func TestSubmit_StoresImage(t *testing.T) {
	f := newFixture(t)
	student := f.actor(t, "student")

	c, err := f.complaints.Submit(context.Background(), student, models.ComplaintSubmission{
		Title: "Sparks", Description: "Socket sparks", Category: models.CategoryElectrical, Priority: models.PriorityUrgent,
	}, &Upload{Filename: "socket.jpg", Content: strings.NewReader("jpeg")})
	require.NoError(t, err)

	require.NotNil(t, c.ImagePath)
	assert.True(t, strings.HasSuffix(*c.ImagePath, ".jpg"))
}

func TestSubmit_ImageFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, withFiles(brokenFiles{}))
	student := f.actor(t, "student")

	c, err := f.complaints.Submit(context.Background(), student, models.ComplaintSubmission{
		Title: "Leak", Description: "Pipe leaking", Category: models.CategoryWater, Priority: models.PriorityMedium,
	}, &Upload{Filename: "leak.png", Content: strings.NewReader("png")})
	require.NoError(t, err)

	assert.Nil(t, c.ImagePath)
	assert.Equal(t, 1, f.points(t, student))
}

func TestSubmit_AwardFailureKeepsComplaint(t *testing.T) {
	f := newFixture(t, withStore(func(st *memory.Store) storage.Store { return pointlessStore{st} }))
	student := f.actor(t, "student")

	c := f.submit(t, student, models.CategorySecurity)

	stored, err := f.store.GetComplaint(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Title, stored.Title)
	assert.Zero(t, f.points(t, student))
}

func TestUpdateStatus_ResolutionAwardsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.actor(t, "student")
	admin := f.actor(t, "admin")
	c := f.submit(t, student, models.CategoryElectrical)

	_, err := f.complaints.UpdateStatus(ctx, c.ID, setStatus(models.StatusInProgress), admin)
	require.NoError(t, err)
	assert.Equal(t, 1, f.points(t, student))

	resolved, err := f.complaints.UpdateStatus(ctx, c.ID, setStatus(models.StatusResolved), admin)
	require.NoError(t, err)
	assert.True(t, resolved.PointsAwarded)
	assert.Equal(t, models.StatusResolved, resolved.Status)
	assert.Equal(t, 4, f.points(t, student))

	for _, s := range []models.ComplaintStatus{models.StatusResolved, models.StatusClosed, models.StatusInProgress, models.StatusResolved} {
		_, err := f.complaints.UpdateStatus(ctx, c.ID, setStatus(s), admin)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, f.points(t, student))
}

func TestUpdateStatus_ConcurrentResolveAwardsOnce(t *testing.T) {
	f := newFixture(t)
	student := f.actor(t, "student")
	officer := f.actor(t, "electrician")
	c := f.submit(t, student, models.CategoryElectrical)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.complaints.UpdateStatus(context.Background(), c.ID, setStatus(models.StatusResolved), officer)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1+ResolutionPoints, f.points(t, student))
}

func TestUpdateStatus_SettlesLeaderboardCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.actor(t, "student")
	c := f.submit(t, student, models.CategoryElectrical)
	before := f.cache.invalidations

	_, err := f.complaints.UpdateStatus(ctx, c.ID, setStatus(models.StatusResolved), f.actor(t, "admin"))
	require.NoError(t, err)
	assert.Equal(t, before+1, f.cache.invalidations)

	_, err = f.complaints.UpdateStatus(ctx, c.ID, setStatus(models.StatusResolved), f.actor(t, "admin"))
	require.NoError(t, err)
	assert.Equal(t, before+1, f.cache.invalidations)
}

func TestUpdateStatus_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.actor(t, "student")
	admin := f.actor(t, "admin")
	c := f.submit(t, student, models.CategoryElectrical)

	_, err := f.complaints.UpdateStatus(ctx, 999, setStatus(models.StatusResolved), admin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.complaints.UpdateStatus(ctx, c.ID, setStatus("Escalated"), admin)
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = f.complaints.UpdateStatus(ctx, c.ID, setStatus(models.StatusResolved), student)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	assignee := student.ID
	_, err = f.complaints.UpdateStatus(ctx, c.ID, models.ComplaintStatusUpdate{Status: models.StatusInProgress, AssignedTo: &assignee}, admin)
	assert.True(t, errors.As(err, &verr))

	assert.Equal(t, 1, f.points(t, student))
	got, err := f.store.GetComplaint(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, got.Status)
}

func TestUpdateStatus_NotesAndReassignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.actor(t, "student")
	admin := f.actor(t, "admin")
	officer := f.actor(t, "maintenance")
	c := f.submit(t, student, models.CategoryElectrical)

	adminNote := "Sending maintenance instead"
	reassign := officer.ID
	got, err := f.complaints.UpdateStatus(ctx, c.ID, models.ComplaintStatusUpdate{
		Status: models.StatusInProgress, Notes: &adminNote, AssignedTo: &reassign,
	}, admin)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, officer.ID, *got.AssignedTo)
	require.NotNil(t, got.AssignedToName)
	assert.Equal(t, "maintenance", *got.AssignedToName)

	officerNote := "Replaced the breaker"
	got, err = f.complaints.UpdateStatus(ctx, c.ID, models.ComplaintStatusUpdate{
		Status: models.StatusResolved, Notes: &officerNote,
	}, officer)
	require.NoError(t, err)
	assert.Equal(t, adminNote, *got.AdminNotes)
	assert.Equal(t, officerNote, *got.OfficerNotes)
	assert.Equal(t, officer.ID, *got.AssignedTo)
}

func TestList_ScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addStudent(t, "alice", 0)
	bob := f.addStudent(t, "bob", 0)

	first := f.submit(t, alice, models.CategoryWater)
	f.submit(t, bob, models.CategoryNetwork)
	second := f.submit(t, alice, models.CategoryWater)

	own, err := f.complaints.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, second.ID, own[0].ID)
	assert.Equal(t, first.ID, own[1].ID)

	assigned, err := f.complaints.List(ctx, f.actor(t, "plumber"))
	require.NoError(t, err)
	assert.Len(t, assigned, 2)

	all, err := f.complaints.List(ctx, f.actor(t, "admin"))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.complaints.Get(ctx, first.ID, bob)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

func TestActivity_RecordsWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.actor(t, "student")
	admin := f.actor(t, "admin")
	c := f.submit(t, student, models.CategoryWater)
	_, err := f.complaints.UpdateStatus(ctx, c.ID, setStatus(models.StatusResolved), admin)
	require.NoError(t, err)

	logs, err := f.complaints.Activity(ctx, c.ID, admin, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, models.ActivityPointsAward, logs[0].ActivityType)
	assert.Equal(t, models.ActivityStatusChange, logs[1].ActivityType)
	assert.Equal(t, "admin", logs[1].Actor)
	assert.Equal(t, models.ActivitySubmission, logs[2].ActivityType)
	assert.Contains(t, logs[2].ActionDescription, "Plumbing")
}

// Lost items

func TestLostItems_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addStudent(t, "alice", 0)
	bob := f.addStudent(t, "bob", 0)
	admin := f.actor(t, "admin")

	item, err := f.lostItems.Report(ctx, alice, models.LostItemReport{
		ItemName:    "Blue umbrella",
		Description: "Folding, wooden handle",
		LostTime:    time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
		LostPlace:   "Library",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ItemLost, item.Status)
	assert.Zero(t, f.points(t, alice))

	_, err = f.lostItems.Report(ctx, bob, models.LostItemReport{
		ItemName: "Calculator", Description: "Casio", LostTime: time.Now(), LostPlace: "Lab 2",
	}, nil)
	require.NoError(t, err)

	note := "At the front desk"
	require.NoError(t, f.lostItems.UpdateStatus(ctx, item.ID, models.LostItemStatusUpdate{Status: models.ItemFound, Notes: &note}, admin))
	require.NoError(t, f.lostItems.UpdateStatus(ctx, item.ID, models.LostItemStatusUpdate{Status: models.ItemCollected}, admin))

	own, err := f.lostItems.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, models.ItemCollected, own[0].Status)
	assert.Nil(t, own[0].AdminNotes)

	all, err := f.lostItems.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bob", all[0].Reporter)
}

func TestLostItems_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.actor(t, "student")
	admin := f.actor(t, "admin")

	_, err := f.lostItems.Report(ctx, student, models.LostItemReport{Description: "x", LostTime: time.Now(), LostPlace: "Gym"}, nil)
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))

	err = f.lostItems.UpdateStatus(ctx, 404, models.LostItemStatusUpdate{Status: models.ItemFound}, admin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = f.lostItems.UpdateStatus(ctx, 1, models.LostItemStatusUpdate{Status: "Stolen"}, admin)
	assert.True(t, errors.As(err, &verr))

	err = f.lostItems.UpdateStatus(ctx, 1, models.LostItemStatusUpdate{Status: models.ItemFound}, student)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

// Leaderboard

func TestTopStudents_RanksByPointsThenUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStudent(t, "dana", 10)
	f.addStudent(t, "carol", 30)
	f.addStudent(t, "bert", 30)
	f.addStudent(t, "anna", 50)
	require.NoError(t, f.store.AddPoints(ctx, f.actor(t, "admin").ID, 500))

	top, err := f.leaderboard.TopStudents(ctx, 4)
	require.NoError(t, err)

	names := make([]string, 0, len(top))
	points := make([]int, 0, len(top))
	for _, e := range top {
		names = append(names, e.Username)
		points = append(points, e.Points)
		assert.Equal(t, models.RoleStudent, e.Role)
	}
	assert.Equal(t, []string{"anna", "bert", "carol", "dana"}, names)
	assert.Equal(t, []int{50, 30, 30, 10}, points)
}

func TestTopStudents_CachedUntilPointsChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.actor(t, "student")

	top, err := f.leaderboard.TopStudents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Zero(t, top[0].Points)

	require.NoError(t, f.store.AddPoints(ctx, student.ID, 7))
	top, err = f.leaderboard.TopStudents(ctx, DefaultLeaderboardSize)
	require.NoError(t, err)
	assert.Zero(t, top[0].Points)

	f.submit(t, student, models.CategoryWater)
	top, err = f.leaderboard.TopStudents(ctx, DefaultLeaderboardSize)
	require.NoError(t, err)
	assert.Equal(t, 8, top[0].Points)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLeaderboardSize, NormalizeLimit(0))
	assert.Equal(t, DefaultLeaderboardSize, NormalizeLimit(-3))
	assert.Equal(t, 25, NormalizeLimit(25))
	assert.Equal(t, MaxLeaderboardSize, NormalizeLimit(1000))
}

// Auth

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Login(ctx, models.LoginRequest{Username: "plumber", Password: "plumber"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleOfficer, resp.User.Role)
	require.NotNil(t, resp.User.Department)
	assert.Equal(t, "Plumbing", *resp.User.Department)

	_, err = f.auth.Login(ctx, models.LoginRequest{Username: "plumber", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, models.LoginRequest{Username: "ghost", Password: "ghost"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.auth.Login(ctx, models.LoginRequest{Username: "plumber"})
	var verr *apperr.ValidationError
	assert.True(t, errors.As(err, &verr))
}

// Rewards

func TestAward_RejectsNonPositiveAmounts(t *testing.T) {
	f := newFixture(t)
	ledger := NewRewardsLedger(nil, zaptest.NewLogger(t).Sugar())
	student := f.actor(t, "student")

	var verr *apperr.ValidationError
	assert.True(t, errors.As(ledger.Award(context.Background(), f.store, student.ID, 0, ReasonSubmission), &verr))
	assert.ErrorIs(t, ledger.Award(context.Background(), f.store, 999, 1, ReasonSubmission), apperr.ErrNotFound)
	ledger.Settle(context.Background())
}

// Routing and analytics

func TestResolveDepartment(t *testing.T) {
	tests := map[string]string{
		models.CategoryElectrical:     "Electrical",
		models.CategoryWater:          "Plumbing",
		models.CategoryInfrastructure: "Maintenance",
		models.CategoryNetwork:        "IT",
		models.CategorySecurity:       "Security",
	}
	for category, want := range tests {
		got, ok := ResolveDepartment(category)
		assert.True(t, ok, category)
		assert.Equal(t, want, got)
	}

	_, ok := ResolveDepartment("Parking")
	assert.False(t, ok)
}

func TestAnalytics_Departments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := f.actor(t, "student")
	f.submit(t, student, models.CategoryWater)
	resolved := f.submit(t, student, models.CategoryWater)
	f.submit(t, student, "Parking")
	_, err := f.complaints.UpdateStatus(ctx, resolved.ID, setStatus(models.StatusResolved), f.actor(t, "admin"))
	require.NoError(t, err)

	load, err := f.analytics.Departments(ctx)
	require.NoError(t, err)

	byDept := make(map[string]models.DepartmentLoad)
	for _, l := range load {
		byDept[l.Department] = l
	}
	assert.Equal(t, models.DepartmentLoad{Department: "Plumbing", Count: 2, Open: 1}, byDept["Plumbing"])
	assert.Equal(t, models.DepartmentLoad{Department: UnroutedDepartment, Count: 1, Open: 1}, byDept[UnroutedDepartment])
	assert.Equal(t, models.DepartmentLoad{Department: "IT"}, byDept["IT"])
	assert.Equal(t, "Plumbing", load[0].Department)
}

func TestStatsWorker_StopsWithContext(t *testing.T) {
	f := newFixture(t)
	f.submit(t, f.actor(t, "student"), models.CategoryWater)
	w := NewStatsWorker(f.complaints, f.analytics, zaptest.NewLogger(t).Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stats worker did not stop")
	}
}
