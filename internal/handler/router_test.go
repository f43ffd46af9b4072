package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/middleware"
	"github.com/noah-isme/institute-portal-api/internal/models"
	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (t tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := t[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

type auditStub struct {
	mu      sync.Mutex
	actions []string
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, log.Action)
	return nil
}

type courseServiceStub struct {
	created []dto.CourseRequest
}

func (s *courseServiceStub) ListPublic(ctx context.Context, query dto.CourseQuery) ([]models.Course, *models.Pagination, bool, error) {
	return []models.Course{{ID: "c1", Code: "CIT", Active: true}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, true, nil
}

func (s *courseServiceStub) ListAll(ctx context.Context, query dto.CourseQuery) ([]models.Course, *models.Pagination, error) {
	return nil, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (s *courseServiceStub) Get(ctx context.Context, id string, includeInactive bool) (*models.Course, error) {
	return &models.Course{ID: id}, nil
}

func (s *courseServiceStub) Create(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	s.created = append(s.created, req)
	return &models.Course{ID: "c-new", Code: req.Code}, nil
}

func (s *courseServiceStub) Update(ctx context.Context, id string, req dto.CourseRequest) (*models.Course, error) {
	return &models.Course{ID: id, Code: req.Code}, nil
}

func (s *courseServiceStub) Deactivate(ctx context.Context, id string) error {
	return nil
}

type routerFixture struct {
	engine  *gin.Engine
	courses *courseServiceStub
	audit   *auditStub
	admits  *admissionServiceStub
}

func newRouterFixture() *routerFixture {
	courses := &courseServiceStub{}
	audit := &auditStub{}
	admits := &admissionServiceStub{}
	tokens := tokenStub{
		"admin-token":   adminClaims(),
		"student-token": {UserID: "stu-1", Role: models.RoleStudent, RegistrationNo: "CIT-26-00001"},
	}

	engine := gin.New()
	engine.Use(middleware.WithResponseMeta())
	RegisterRoutes(engine.Group("/api/v1"), Handlers{
		Auth:      NewAuthHandler(nil),
		Admission: NewAdmissionHandler(admits),
		Register:  NewRegisterHandler(nil),
		Course:    NewCourseHandler(courses),
		Catalog:   NewCatalogHandler(nil),
		Result:    NewResultHandler(nil),
		LMS:       NewLMSHandler(nil),
		Upload:    NewUploadHandler(nil, nil),
		User:      NewUserHandler(nil),
	}, RouteDeps{Tokens: tokens, Audit: audit})

	return &routerFixture{engine: engine, courses: courses, audit: audit, admits: admits}
}

func (f *routerFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, stringsReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestRoutesPublicCourseListingReportsCacheHit(t *testing.T) {
	fx := newRouterFixture()

	w := fx.do(http.MethodGet, "/api/v1/courses", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
}

func TestRoutesAdminRequiresTokenAndRole(t *testing.T) {
	fx := newRouterFixture()

	w := fx.do(http.MethodPost, "/api/v1/admin/admissions/adm-1/approve", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = fx.do(http.MethodPost, "/api/v1/admin/admissions/adm-1/approve", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = fx.do(http.MethodPost, "/api/v1/admin/admissions/adm-1/approve", "student-token", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, fx.admits.reviewer)

	w = fx.do(http.MethodPost, "/api/v1/admin/admissions/adm-1/approve", "admin-token", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-1", fx.admits.reviewer)
}

func TestRoutesCourseCreateIsAudited(t *testing.T) {
	fx := newRouterFixture()

	w := fx.do(http.MethodPost, "/api/v1/admin/courses", "admin-token", `{"code":"CIT","title":"Certificate in IT"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, fx.courses.created, 1)
	assert.Equal(t, []string{models.AuditActionCourseCreate}, fx.audit.actions)
}

func TestRoutesFailedRequestsAreNotAudited(t *testing.T) {
	fx := newRouterFixture()

	w := fx.do(http.MethodPost, "/api/v1/admin/courses", "admin-token", `{broken`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, fx.audit.actions)
}
