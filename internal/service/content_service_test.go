package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
)

type courseRepoStub struct {
	courses   map[string]*models.Course
	listCalls int
}

func (c *courseRepoStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := c.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *course
	return &copy, nil
}

func (c *courseRepoStub) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	c.listCalls++
	var out []models.Course
	for _, course := range c.courses {
		if filter.ActiveOnly && !course.Active {
			continue
		}
		out = append(out, *course)
	}
	return out, len(out), nil
}

func (c *courseRepoStub) Create(ctx context.Context, course *models.Course) error {
	course.ID = "course-" + course.Code
	c.courses[course.ID] = course
	return nil
}

func (c *courseRepoStub) Update(ctx context.Context, course *models.Course) error {
	if _, ok := c.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	c.courses[course.ID] = course
	return nil
}

func (c *courseRepoStub) Deactivate(ctx context.Context, id string) error {
	course, ok := c.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	course.Active = false
	return nil
}

func TestCourseServicePublicListingIsCachedAndInvalidated(t *testing.T) {
	repo := &courseRepoStub{courses: map[string]*models.Course{
		courseC1:     {ID: courseC1, Code: "CIT", Title: "Certificate in IT", Active: true},
		courseClosed: {ID: courseClosed, Code: "OLD", Title: "Retired", Active: false},
	}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewCourseService(repo, cache, time.Minute, nil, nil)
	ctx := context.Background()

	items, _, hit, err := svc.ListPublic(ctx, dto.CourseQuery{})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, items, 1)
	assert.Equal(t, "CIT", items[0].Code)

	_, _, hit, err = svc.ListPublic(ctx, dto.CourseQuery{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.listCalls)

	created, err := svc.Create(ctx, dto.CourseRequest{Code: "dae", Title: "Diploma of Associate Engineering"})
	require.NoError(t, err)
	assert.Equal(t, "DAE", created.Code)
	assert.True(t, created.Active)

	items, _, hit, err = svc.ListPublic(ctx, dto.CourseQuery{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, items, 2)
}

func TestCourseServiceHidesInactiveCourses(t *testing.T) {
	repo := &courseRepoStub{courses: map[string]*models.Course{courseClosed: {ID: courseClosed, Code: "OLD", Active: false}}}
	svc := NewCourseService(repo, nil, time.Minute, nil, nil)

	_, err := svc.Get(context.Background(), courseClosed, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	course, err := svc.Get(context.Background(), courseClosed, true)
	require.NoError(t, err)
	assert.Equal(t, "OLD", course.Code)
}

const (
	productBook = "9d000000-0000-4000-8000-000000000001"
	productKit  = "9d000000-0000-4000-8000-000000000002"
)

type productRepoStub struct {
	products map[string]*models.Product
}

func (p *productRepoStub) ListActive(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, product := range p.products {
		if product.Active {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (p *productRepoStub) FindByID(ctx context.Context, id string) (*models.Product, error) {
	product, ok := p.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return product, nil
}

func (p *productRepoStub) Create(ctx context.Context, product *models.Product) error {
	product.ID = "p-new"
	p.products[product.ID] = product
	return nil
}

func (p *productRepoStub) Update(ctx context.Context, product *models.Product) error {
	p.products[product.ID] = product
	return nil
}

type alertRepoStub struct {
	alerts map[string]*models.NewsAlert
}

func (a *alertRepoStub) ListActive(ctx context.Context, now time.Time) ([]models.NewsAlert, error) {
	var out []models.NewsAlert
	for _, alert := range a.alerts {
		if alert.Active && (alert.ExpiresAt == nil || alert.ExpiresAt.After(now)) {
			out = append(out, *alert)
		}
	}
	return out, nil
}

func (a *alertRepoStub) Create(ctx context.Context, alert *models.NewsAlert) error {
	alert.ID = uuid.NewString()
	a.alerts[alert.ID] = alert
	return nil
}

func (a *alertRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := a.alerts[id]; !ok {
		return sql.ErrNoRows
	}
	delete(a.alerts, id)
	return nil
}

func TestCatalogServiceProductsAndAlerts(t *testing.T) {
	products := &productRepoStub{products: map[string]*models.Product{
		productBook: {ID: productBook, Name: "Course Book", Price: 1500, Active: true},
		productKit:  {ID: productKit, Name: "Old Kit", Active: false},
	}}
	alerts := &alertRepoStub{alerts: map[string]*models.NewsAlert{}}
	svc := NewCatalogService(products, alerts, nil, CatalogTTLs{Products: time.Minute, Alerts: time.Minute}, nil, nil)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	items, _, err := svc.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.Product(ctx, productKit)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	past := now.Add(-time.Hour)
	_, err = svc.CreateAlert(ctx, dto.AlertRequest{Title: "Admissions open", Body: "Apply now", ExpiresAt: &past})
	require.Error(t, err)
	assert.Equal(t, []string{"expires_at"}, fieldNames(err))

	alert, err := svc.CreateAlert(ctx, dto.AlertRequest{Title: "<script>x</script>Admissions open", Body: "<p>Apply <b>now</b></p><script>alert(1)</script>"})
	require.NoError(t, err)
	assert.Equal(t, "Admissions open", alert.Title)
	assert.NotContains(t, alert.Body, "<script>")
	assert.Contains(t, alert.Body, "<b>now</b>")

	listed, _, err := svc.Alerts(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, svc.DeleteAlert(ctx, alert.ID))
	err = svc.DeleteAlert(ctx, alert.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

type resultRepoStub struct {
	results []models.ExamResult
}

func (r *resultRepoStub) ListByRegistrationNo(ctx context.Context, registrationNo string) ([]models.ExamResult, error) {
	var out []models.ExamResult
	for _, res := range r.results {
		if res.RegistrationNo == registrationNo {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *resultRepoStub) Create(ctx context.Context, result *models.ExamResult) error {
	result.ID = "r-new"
	r.results = append(r.results, *result)
	return nil
}

func TestResultServiceLookupRequiresMatchingCNIC(t *testing.T) {
	register := newRegisterStoreStub(sampleEntry("1", models.RegisterStatusActive))
	repo := &resultRepoStub{results: []models.ExamResult{{ID: "r1", RegistrationNo: "CIT-26-00001", ExamTitle: "Final", ObtainedMarks: 80, TotalMarks: 100, Grade: "A"}}}
	svc := NewResultService(repo, register, nil, nil, nil)
	ctx := context.Background()

	card, err := svc.Lookup(ctx, dto.ResultLookupQuery{RegistrationNo: "cit-26-00001", CNIC: "1234512345671"})
	require.NoError(t, err)
	assert.Equal(t, "Ayesha Khan", card.StudentName)
	require.Len(t, card.Results, 1)
	assert.Equal(t, "A", card.Results[0].Grade)

	_, errWrongCNIC := svc.Lookup(ctx, dto.ResultLookupQuery{RegistrationNo: "CIT-26-00001", CNIC: "99999-9999999-9"})
	_, errWrongReg := svc.Lookup(ctx, dto.ResultLookupQuery{RegistrationNo: "CIT-26-99999", CNIC: "12345-1234567-1"})
	require.Error(t, errWrongCNIC)
	require.Error(t, errWrongReg)
	assert.Equal(t, appErrors.FromError(errWrongCNIC).Message, appErrors.FromError(errWrongReg).Message)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(errWrongCNIC).Code)
}

func TestResultServicePublish(t *testing.T) {
	register := newRegisterStoreStub(sampleEntry("1", models.RegisterStatusActive))
	repo := &resultRepoStub{}
	audit := &auditLoggerStub{}
	svc := NewResultService(repo, register, audit, nil, nil)
	ctx := context.Background()

	_, err := svc.Publish(ctx, dto.PublishResultRequest{RegistrationNo: "CIT-26-00001", CourseID: courseC1, ExamTitle: "Final", ObtainedMarks: 120, TotalMarks: 100}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, []string{"obtained_marks"}, fieldNames(err))

	_, err = svc.Publish(ctx, dto.PublishResultRequest{RegistrationNo: "CIT-26-77777", CourseID: courseC1, ExamTitle: "Final", ObtainedMarks: 50, TotalMarks: 100}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, []string{"registration_no"}, fieldNames(err))

	result, err := svc.Publish(ctx, dto.PublishResultRequest{RegistrationNo: "cit-26-00001", CourseID: courseC1, ExamTitle: "Final", ObtainedMarks: 50, TotalMarks: 100, Grade: "c"}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "C", result.Grade)
	assert.Equal(t, "CIT-26-00001", result.RegistrationNo)
	assert.Equal(t, courseC1, result.CourseID)
	assert.Equal(t, []string{models.AuditActionResultPublish}, audit.actions())
}

func TestResultServicePublishUsesTheEnrolledCourse(t *testing.T) {
	register := newRegisterStoreStub(sampleEntry("1", models.RegisterStatusActive))
	repo := &resultRepoStub{}
	svc := NewResultService(repo, register, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Publish(ctx, dto.PublishResultRequest{RegistrationNo: "CIT-26-00001", CourseID: courseClosed, ExamTitle: "Final", ObtainedMarks: 50, TotalMarks: 100}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, []string{"course_id"}, fieldNames(err))
	assert.Empty(t, repo.results)

	result, err := svc.Publish(ctx, dto.PublishResultRequest{RegistrationNo: "CIT-26-00001", ExamTitle: "Midterm", ObtainedMarks: 40, TotalMarks: 50}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, courseC1, result.CourseID)
}
