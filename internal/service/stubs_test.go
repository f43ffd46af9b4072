package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/noah-isme/institute-portal-api/internal/models"
	"github.com/noah-isme/institute-portal-api/internal/repository"
)

const (
	courseC1     = "c1000000-0000-4000-8000-000000000001"
	courseClosed = "c1000000-0000-4000-8000-000000000002"
	unknownID    = "00000000-0000-4000-8000-00000000dead"
)

// entryID derives a register entry id from a single-digit fixture key.
func entryID(key string) string {
	return "e0000000-0000-4000-8000-00000000000" + key
}

type auditLoggerStub struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (a *auditLoggerStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditLoggerStub) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

// admissionStoreStub keeps forms and register entries in memory and mimics the
// compare-and-swap and unique constraint of the SQL implementation.
type admissionStoreStub struct {
	mu         sync.Mutex
	forms      map[string]*models.Admission
	entries    map[string]*models.RegisterEntry
	courseCode map[string]string
	serial     int64
	approveErr error
	writeErr   error
	writes     int
}

func newAdmissionStoreStub() *admissionStoreStub {
	return &admissionStoreStub{
		forms:      make(map[string]*models.Admission),
		entries:    make(map[string]*models.RegisterEntry),
		courseCode: map[string]string{courseC1: "CIT"},
	}
}

func (s *admissionStoreStub) Create(ctx context.Context, admission *models.Admission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if admission.ID == "" {
		admission.ID = uuid.NewString()
	}
	admission.CreatedAt = time.Now().UTC()
	admission.UpdatedAt = admission.CreatedAt
	copy := *admission
	s.forms[admission.ID] = &copy
	s.writes++
	return nil
}

func (s *admissionStoreStub) UpdateDraft(ctx context.Context, admission *models.Admission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	current, ok := s.forms[admission.ID]
	if !ok || !current.IsDraft {
		return sql.ErrNoRows
	}
	copy := *admission
	copy.Status = current.Status
	copy.CreatedAt = current.CreatedAt
	s.forms[admission.ID] = &copy
	s.writes++
	return nil
}

func (s *admissionStoreStub) FindByID(ctx context.Context, id string) (*models.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	form, ok := s.forms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *form
	return &copy, nil
}

func (s *admissionStoreStub) FindOpenByCNIC(ctx context.Context, cnic string) (*models.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, form := range s.forms {
		if form.CNIC == cnic && form.Status == models.AdmissionStatusPending && !form.IsDraft {
			copy := *form
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *admissionStoreStub) Track(ctx context.Context, cnic string) ([]models.AdmissionTrack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AdmissionTrack
	for _, form := range s.forms {
		if form.CNIC != cnic {
			continue
		}
		row := models.AdmissionTrack{ID: form.ID, Status: form.Status, IsDraft: form.IsDraft, Remarks: form.Remarks, CourseID: form.CourseID, SubmittedAt: form.CreatedAt}
		if entry, ok := s.entries[form.ID]; ok {
			row.RegistrationNo = entry.RegistrationNo
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *admissionStoreStub) List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Admission
	for _, form := range s.forms {
		if filter.Status != "" && form.Status != filter.Status {
			continue
		}
		out = append(out, *form)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *admissionStoreStub) Reject(ctx context.Context, id, reviewerID, remarks string, at time.Time) (*models.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	form, ok := s.forms[id]
	if !ok || form.Status != models.AdmissionStatusPending || form.IsDraft {
		return nil, sql.ErrNoRows
	}
	form.Status = models.AdmissionStatusRejected
	form.Remarks = remarks
	form.ReviewedBy = &reviewerID
	form.ReviewedAt = &at
	s.writes++
	copy := *form
	return &copy, nil
}

func (s *admissionStoreStub) ApproveAndRegister(ctx context.Context, p repository.ApprovalParams) (*models.Admission, *models.RegisterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.approveErr != nil {
		return nil, nil, s.approveErr
	}
	form, ok := s.forms[p.AdmissionID]
	if !ok || form.Status != models.AdmissionStatusPending || form.IsDraft {
		return nil, nil, sql.ErrNoRows
	}
	if _, exists := s.entries[form.ID]; exists {
		return nil, nil, &pq.Error{Code: "23505", Constraint: repository.RegisterEntryUniqueConstraint}
	}
	code := s.courseCode[form.CourseID]
	if code == "" {
		code = p.DefaultCourseCode
	}
	s.serial++
	form.Status = models.AdmissionStatusApproved
	form.ReviewedBy = &p.ReviewerID
	form.ReviewedAt = &p.At
	entry := &models.RegisterEntry{
		ID:             uuid.NewString(),
		AdmissionID:    form.ID,
		RegistrationNo: p.RegistrationNo(code, s.serial, p.At),
		SerialNo:       s.serial,
		StudentName:    form.FullName(),
		CNIC:           form.CNIC,
		CourseID:       form.CourseID,
		EnrollmentDate: p.At,
		Status:         models.RegisterStatusActive,
	}
	s.entries[form.ID] = entry
	s.writes++
	formCopy, entryCopy := *form, *entry
	return &formCopy, &entryCopy, nil
}

type courseLookupStub struct {
	courses map[string]*models.Course
}

func newCourseLookupStub() *courseLookupStub {
	return &courseLookupStub{courses: map[string]*models.Course{
		courseC1:     {ID: courseC1, Code: "CIT", Title: "Certificate in IT", Active: true},
		courseClosed: {ID: courseClosed, Code: "OLD", Title: "Retired Course", Active: false},
	}}
}

func (c *courseLookupStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := c.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *course
	return &copy, nil
}

type photoResolverStub struct {
	calls int
}

func (p *photoResolverStub) ResolvePhoto(ctx context.Context, value string) (string, error) {
	p.calls++
	if value == "" {
		return "", nil
	}
	return "https://media.example.com/photos/applicant.png", nil
}

type notifierStub struct {
	mu       sync.Mutex
	approved []string
	rejected []string
}

func (n *notifierStub) AdmissionApproved(ctx context.Context, admission *models.Admission, entry *models.RegisterEntry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, entry.RegistrationNo)
}

func (n *notifierStub) AdmissionRejected(ctx context.Context, admission *models.Admission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, admission.Remarks)
}
