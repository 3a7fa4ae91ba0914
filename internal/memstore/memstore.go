// Package memstore provides in-memory implementations of the platform stores
// used by the panelist service. It backs tests and DB_DRIVER=memory runs and
// follows the same contracts as the SurrealDB repositories: Get methods
// return (nil, nil) for missing records and mutations on missing records
// return database.ErrNotFound.
package memstore

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/concordance/api/internal/model"
)

// Store holds every table in memory. The typed views returned by Users,
// Enrollments, Roles, Panelists, Concordances and Settings share its state.
type Store struct {
	mu sync.RWMutex

	seq          map[string]int
	users        map[string]*model.User
	courses      map[string]*model.Course
	concordances map[string]*model.Concordance
	panelists    map[string]*model.Panelist
	roles        map[string]*model.Role
	assignments  map[string]*model.RoleAssignment
	enrollments  map[string]*model.Enrollment
	settings     map[string]string

	now func() time.Time
}

// New creates an empty store seeded with the standard roles
func New() *Store {
	s := &Store{
		seq:          make(map[string]int),
		users:        make(map[string]*model.User),
		courses:      make(map[string]*model.Course),
		concordances: make(map[string]*model.Concordance),
		panelists:    make(map[string]*model.Panelist),
		roles:        make(map[string]*model.Role),
		assignments:  make(map[string]*model.RoleAssignment),
		enrollments:  make(map[string]*model.Enrollment),
		settings:     make(map[string]string),
		now:          time.Now,
	}
	for _, r := range StandardRoles() {
		role := r
		s.roles[role.ID] = &role
	}
	return s
}

// StandardRoles returns the roles every platform starts with. Their IDs
// match the records created by the SurrealDB migrations.
func StandardRoles() []model.Role {
	return []model.Role{
		{ID: "role:manager", Shortname: model.RoleManager, Name: "Manager", Archetype: model.RoleManager},
		{ID: "role:coursecreator", Shortname: model.RoleCourseCreator, Name: "Course creator", Archetype: model.RoleCourseCreator},
		{ID: "role:editingteacher", Shortname: model.RoleEditingTeacher, Name: "Teacher", Archetype: model.RoleEditingTeacher},
		{ID: "role:teacher", Shortname: model.RoleTeacher, Name: "Non-editing teacher", Archetype: model.RoleTeacher},
		{ID: "role:student", Shortname: model.RoleStudent, Name: "Student", Archetype: model.RoleStudent},
		{ID: "role:guest", Shortname: model.RoleGuest, Name: "Guest", Archetype: model.RoleGuest},
		{ID: "role:user", Shortname: model.RoleUser, Name: "Authenticated user", Archetype: model.RoleUser},
	}
}

// nextID returns the next sequential record ID for a table. Callers hold mu.
func (s *Store) nextID(table string) string {
	for {
		s.seq[table]++
		id := fmt.Sprintf("%s:%d", table, s.seq[table])
		if !s.exists(table, id) {
			return id
		}
	}
}

func (s *Store) exists(table, id string) bool {
	switch table {
	case "user":
		_, ok := s.users[id]
		return ok
	case "course":
		_, ok := s.courses[id]
		return ok
	case "concordance":
		_, ok := s.concordances[id]
		return ok
	case "panelist":
		_, ok := s.panelists[id]
		return ok
	case "role_assignment":
		_, ok := s.assignments[id]
		return ok
	case "enrollment":
		_, ok := s.enrollments[id]
		return ok
	}
	return false
}

// CreateCourse stores a course, assigning an ID when empty
func (s *Store) CreateCourse(course *model.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if course.ID == "" {
		course.ID = s.nextID("course")
	}
	course.CreatedOn = s.now()
	c := *course
	s.courses[c.ID] = &c
}

// CreateConcordance stores a concordance, assigning an ID when empty
func (s *Store) CreateConcordance(concordance *model.Concordance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if concordance.ID == "" {
		concordance.ID = s.nextID("concordance")
	}
	concordance.CreatedOn = s.now()
	c := *concordance
	s.concordances[c.ID] = &c
}

// Users returns the user store view
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

// Enrollments returns the enrollment store view
func (s *Store) Enrollments() *EnrollmentStore { return &EnrollmentStore{s: s} }

// Roles returns the role store view
func (s *Store) Roles() *RoleStore { return &RoleStore{s: s} }

// Panelists returns the panelist store view
func (s *Store) Panelists() *PanelistStore { return &PanelistStore{s: s} }

// Concordances returns the concordance store view
func (s *Store) Concordances() *ConcordanceStore { return &ConcordanceStore{s: s} }

// Settings returns the plugin settings view
func (s *Store) Settings() *SettingsStore { return &SettingsStore{s: s} }

func sortByCreated[T any](items []*T, created func(*T) time.Time, id func(*T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if ci.Equal(cj) {
			return lessID(id(items[i]), id(items[j]))
		}
		return ci.Before(cj)
	})
}

// lessID orders numeric record keys numerically and everything else lexically
func lessID(a, b string) bool {
	ka, errA := strconv.Atoi(model.RecordKey(a))
	kb, errB := strconv.Atoi(model.RecordKey(b))
	if errA == nil && errB == nil {
		return ka < kb
	}
	return a < b
}
