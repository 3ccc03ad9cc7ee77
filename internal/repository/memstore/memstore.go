// Package memstore is an in-memory implementation of the repository
// contracts, used as a test double for service flows.
package memstore

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ksohaib16/Test-Generator/internal/dto"
	"github.com/Ksohaib16/Test-Generator/internal/models"
)

// Store holds every entity behind one mutex. The typed views returned by its
// accessors satisfy the service repository interfaces.
type Store struct {
	mu sync.RWMutex

	now func() time.Time

	users        map[string]models.User
	institutions map[string]models.Institution
	sessions     map[string]models.Session
	links        map[string]models.StudentTeacherLink
	questions    []models.Question
	tests        map[string]models.Test
	assignments  []models.Assignment
	audit        []models.AuditLog

	// FailAssignmentAfter makes CreateBatch fail once this many rows of a
	// batch have been staged. Zero disables the failure.
	FailAssignmentAfter int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:          func() time.Time { return time.Now().UTC() },
		users:        map[string]models.User{},
		institutions: map[string]models.Institution{},
		sessions:     map[string]models.Session{},
		links:        map[string]models.StudentTeacherLink{},
		tests:        map[string]models.Test{},
	}
}

// SetClock overrides the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Users returns the account view.
func (s *Store) Users() *Users { return &Users{s} }

// Questions returns the question bank view.
func (s *Store) Questions() *Questions { return &Questions{s} }

// Tests returns the test view.
func (s *Store) Tests() *Tests { return &Tests{s} }

// Assignments returns the assignment view.
func (s *Store) Assignments() *Assignments { return &Assignments{s} }

// Links returns the approval link view.
func (s *Store) Links() *Links { return &Links{s} }

// Stats returns the dashboard counter view.
func (s *Store) Stats() *Stats { return &Stats{s} }

// AuditLogs returns a copy of every recorded audit entry.
func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditLog(nil), s.audit...)
}

// Users implements account, session and audit persistence.
type Users struct{ s *Store }

// FindByEmail returns the user with the given email or sql.ErrNoRows.
func (u *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, user := range u.s.users {
		if user.Email == email {
			cp := user
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

// FindByID returns a user by identifier or sql.ErrNoRows.
func (u *Users) FindByID(ctx context.Context, id string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

// Register stores the user with an optional institution and pending link.
func (u *Users) Register(ctx context.Context, user *models.User, institution *models.Institution, link *models.StudentTeacherLink) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Email == user.Email {
			return models.ErrDuplicateEmail
		}
	}
	now := u.s.now()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	if institution != nil {
		if institution.ID == "" {
			institution.ID = uuid.NewString()
		}
		institution.CreatedByTeacherID = &user.ID
		institution.CreatedAt = now
		u.s.institutions[institution.ID] = *institution
		user.InstitutionID = &institution.ID
	}
	u.s.users[user.ID] = *user
	if link != nil {
		if link.ID == "" {
			link.ID = uuid.NewString()
		}
		link.StudentID = user.ID
		link.Status = models.LinkStatusPending
		link.CreatedAt = now
		link.UpdatedAt = now
		u.s.links[link.ID] = *link
	}
	return nil
}

// FindInstitutionByID returns an institution by identifier.
func (u *Users) FindInstitutionByID(ctx context.Context, id string) (*models.Institution, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	inst, ok := u.s.institutions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &inst, nil
}

// CreateSession stores a new session row.
func (u *Users) CreateSession(ctx context.Context, session *models.Session) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = u.s.now()
	}
	u.s.sessions[session.ID] = *session
	return nil
}

// FindSession returns a session by identifier.
func (u *Users) FindSession(ctx context.Context, id string) (*models.Session, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	session, ok := u.s.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &session, nil
}

// RevokeSession marks an active session as revoked.
func (u *Users) RevokeSession(ctx context.Context, id string, revokedAt time.Time) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	session, ok := u.s.sessions[id]
	if !ok || session.Revoked {
		return nil
	}
	session.Revoked = true
	session.RevokedAt = &revokedAt
	u.s.sessions[id] = session
	return nil
}

// CreateAuditLog appends an audit trail entry.
func (u *Users) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = u.s.now()
	}
	u.s.audit = append(u.s.audit, *log)
	return nil
}

// Questions implements the question bank.
type Questions struct{ s *Store }

// List returns questions matching every set filter field.
func (q *Questions) List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	var out []models.Question
	for _, item := range q.s.questions {
		if filter.Matches(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// FindByID returns a question by identifier.
func (q *Questions) FindByID(ctx context.Context, id string) (*models.Question, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	for _, item := range q.s.questions {
		if item.ID == id {
			cp := item
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

// FindByIDs returns the questions with the given ids.
func (q *Questions) FindByIDs(ctx context.Context, ids []string) ([]models.Question, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	var out []models.Question
	for _, item := range q.s.questions {
		if want[item.ID] {
			out = append(out, item)
		}
	}
	return out, nil
}

// ExistsByText reports whether a question with this text is stored.
func (q *Questions) ExistsByText(ctx context.Context, text string) (bool, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	for _, item := range q.s.questions {
		if item.QuestionText == text {
			return true, nil
		}
	}
	return false, nil
}

// Create stores a question, assigning id and timestamp.
func (q *Questions) Create(ctx context.Context, question *models.Question) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	question.CreatedAt = q.s.now()
	q.s.questions = append(q.s.questions, *question)
	return nil
}

// Tests implements test persistence. Stored values are deep-copied so callers
// never alias the embedded snapshots.
type Tests struct{ s *Store }

// Create stores a test, assigning id and timestamps.
func (t *Tests) Create(ctx context.Context, test *models.Test) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	now := t.s.now()
	test.CreatedAt = now
	test.UpdatedAt = now
	cp := *test
	cp.QuestionsList = test.QuestionsList.Clone()
	t.s.tests[test.ID] = cp
	return nil
}

// FindByID returns a test by identifier.
func (t *Tests) FindByID(ctx context.Context, id string) (*models.Test, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	test, ok := t.s.tests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	test.QuestionsList = test.QuestionsList.Clone()
	return &test, nil
}

// ListByTeacher returns the teacher's tests, newest first.
func (t *Tests) ListByTeacher(ctx context.Context, teacherID string) ([]models.Test, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	var out []models.Test
	for _, test := range t.s.tests {
		if test.CreatedByTeacherID == teacherID {
			test.QuestionsList = test.QuestionsList.Clone()
			out = append(out, test)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Update replaces a stored test.
func (t *Tests) Update(ctx context.Context, test *models.Test) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	existing, ok := t.s.tests[test.ID]
	if !ok {
		return sql.ErrNoRows
	}
	test.CreatedAt = existing.CreatedAt
	test.UpdatedAt = t.s.now()
	cp := *test
	cp.QuestionsList = test.QuestionsList.Clone()
	t.s.tests[test.ID] = cp
	return nil
}

// Delete removes a test together with its assignments.
func (t *Tests) Delete(ctx context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.tests[id]; !ok {
		return sql.ErrNoRows
	}
	delete(t.s.tests, id)
	kept := t.s.assignments[:0]
	for _, a := range t.s.assignments {
		if a.TestID != id {
			kept = append(kept, a)
		}
	}
	t.s.assignments = kept
	return nil
}

// Assignments implements assignment persistence.
type Assignments struct{ s *Store }

// ErrInjected is returned when FailAssignmentAfter triggers.
var ErrInjected = errors.New("injected assignment failure")

// CreateBatch stores all rows or none.
func (a *Assignments) CreateBatch(ctx context.Context, batch []models.Assignment) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	now := a.s.now()
	staged := make([]models.Assignment, 0, len(batch))
	for i := range batch {
		if a.s.FailAssignmentAfter > 0 && len(staged) == a.s.FailAssignmentAfter {
			return ErrInjected
		}
		item := batch[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.AssignedAt = now
		if item.Status == "" {
			item.Status = models.AssignmentStatusAssigned
		}
		staged = append(staged, item)
	}
	copy(batch, staged)
	a.s.assignments = append(a.s.assignments, staged...)
	return nil
}

// ListByTest returns a test's assignments joined with student details.
func (a *Assignments) ListByTest(ctx context.Context, testID string) ([]models.AssignmentDetail, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	var out []models.AssignmentDetail
	for _, item := range a.s.assignments {
		if item.TestID != testID {
			continue
		}
		detail := models.AssignmentDetail{Assignment: item}
		if user, ok := a.s.users[item.StudentID]; ok {
			detail.StudentName = user.Name
			detail.StudentEmail = user.Email
			detail.RollNumber = user.RollNumber
		}
		out = append(out, detail)
	}
	return out, nil
}

// All returns every stored assignment.
func (a *Assignments) All() []models.Assignment {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	return append([]models.Assignment(nil), a.s.assignments...)
}

// Links implements the approval link store.
type Links struct{ s *Store }

// FindByID returns a link by identifier.
func (l *Links) FindByID(ctx context.Context, id string) (*models.StudentTeacherLink, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	link, ok := l.s.links[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &link, nil
}

// DecidePending sets status only while the link is pending.
func (l *Links) DecidePending(ctx context.Context, id string, status models.LinkStatus) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	link, ok := l.s.links[id]
	if !ok || link.Status != models.LinkStatusPending {
		return false, nil
	}
	link.Status = status
	link.UpdatedAt = l.s.now()
	l.s.links[id] = link
	return true, nil
}

// ListPending returns the teacher's pending requests with student details.
func (l *Links) ListPending(ctx context.Context, teacherID string) ([]models.PendingStudent, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	var out []models.PendingStudent
	for _, link := range l.s.links {
		if link.TeacherID != teacherID || link.Status != models.LinkStatusPending {
			continue
		}
		user := l.s.users[link.StudentID]
		out = append(out, models.PendingStudent{
			LinkID:      link.ID,
			ID:          user.ID,
			Name:        user.Name,
			Email:       user.Email,
			RollNumber:  user.RollNumber,
			RequestDate: link.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RequestDate.Before(out[j].RequestDate) })
	return out, nil
}

// ListApprovedStudents returns each approved student of the teacher once.
func (l *Links) ListApprovedStudents(ctx context.Context, teacherID string) ([]models.RosterStudent, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	seen := map[string]bool{}
	var out []models.RosterStudent
	for _, link := range l.s.links {
		if link.TeacherID != teacherID || link.Status != models.LinkStatusApproved || seen[link.StudentID] {
			continue
		}
		seen[link.StudentID] = true
		user := l.s.users[link.StudentID]
		out = append(out, models.RosterStudent{ID: user.ID, Name: user.Name, Email: user.Email, RollNumber: user.RollNumber})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ApprovedStudentIDs returns the subset of ids approved for the teacher.
func (l *Links) ApprovedStudentIDs(ctx context.Context, teacherID string, studentIDs []string) (map[string]bool, error) {
	want := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		want[id] = true
	}
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	out := map[string]bool{}
	for _, link := range l.s.links {
		if link.TeacherID == teacherID && link.Status == models.LinkStatusApproved && want[link.StudentID] {
			out[link.StudentID] = true
		}
	}
	return out, nil
}

// Stats computes dashboard counters over the in-memory data.
type Stats struct{ s *Store }

// TeacherStats computes the dashboard counters for a teacher.
func (st *Stats) TeacherStats(ctx context.Context, teacherID string) (*dto.DashboardStats, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()
	stats := &dto.DashboardStats{}
	students := map[string]bool{}
	for _, link := range st.s.links {
		if link.TeacherID != teacherID {
			continue
		}
		switch link.Status {
		case models.LinkStatusApproved:
			students[link.StudentID] = true
		case models.LinkStatusPending:
			stats.PendingApprovals++
		}
	}
	stats.TotalStudents = len(students)
	for _, test := range st.s.tests {
		if test.CreatedByTeacherID == teacherID {
			stats.TestsCreated++
		}
	}
	for _, a := range st.s.assignments {
		if a.AssignedByTeacherID == teacherID {
			stats.TestsAssigned++
		}
	}
	return stats, nil
}
