package devserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/langassess/langassess/internal/assessment"
	"github.com/langassess/langassess/internal/rbac"
)

var (
	errNotFound = errors.New("not found")
	errExists   = errors.New("already exists")
)

type user struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Role         rbac.Role
	Verified     bool
	ResetToken   string
}

type storedQuestion struct {
	assessment.Question
	created time.Time
}

type questionFilter struct {
	Competency assessment.Competency
	Levels     []assessment.Level
	Offset     int
	Limit      int
}

type sessionFilter struct {
	Status assessment.Status
	Offset int
	Limit  int
}

// memoryStore keeps users, the question bank and sessions for one process.
type memoryStore struct {
	mu        sync.RWMutex
	users     map[string]*user  // by id
	byEmail   map[string]string // lower-cased email -> id
	questions map[string]storedQuestion
	sessions  map[string]assessment.Session
	byUser    map[string]string // user id -> session id
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:     map[string]*user{},
		byEmail:   map[string]string{},
		questions: map[string]storedQuestion{},
		sessions:  map[string]assessment.Session{},
		byUser:    map[string]string{},
	}
}

// ---- users ----

func (m *memoryStore) addUser(u user) (user, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := m.byEmail[key]; ok {
		return user{}, errExists
	}
	u.ID = uuid.NewString()
	m.users[u.ID] = &u
	m.byEmail[key] = u.ID
	return u, nil
}

func (m *memoryStore) userByEmail(email string) (user, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return user{}, errNotFound
	}
	return *m.users[id], nil
}

func (m *memoryStore) userByID(id string) (user, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return user{}, errNotFound
	}
	return *u, nil
}

// updateUser applies fn to the stored user under the write lock.
func (m *memoryStore) updateUser(id string, fn func(*user) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return errNotFound
	}
	return fn(u)
}

// ---- questions ----

func (m *memoryStore) putQuestion(q assessment.Question) assessment.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	created := time.Now()
	if old, ok := m.questions[q.ID]; ok {
		created = old.created
	}
	m.questions[q.ID] = storedQuestion{Question: q, created: created}
	return q
}

func (m *memoryStore) question(id string) (assessment.Question, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	return q.Question, ok
}

func (m *memoryStore) deleteQuestion(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return errNotFound
	}
	delete(m.questions, id)
	return nil
}

// listQuestions returns one page in creation order plus the filtered total.
func (m *memoryStore) listQuestions(f questionFilter) ([]assessment.Question, int) {
	m.mu.RLock()
	all := make([]storedQuestion, 0, len(m.questions))
	for _, q := range m.questions {
		if f.Competency != "" && q.Competency != f.Competency {
			continue
		}
		if len(f.Levels) > 0 && !containsLevel(f.Levels, q.Level) {
			continue
		}
		all = append(all, q)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].created.Equal(all[j].created) {
			return all[i].ID < all[j].ID
		}
		return all[i].created.Before(all[j].created)
	})
	out := make([]assessment.Question, 0, f.Limit)
	for i := f.Offset; i < len(all) && len(out) < f.Limit; i++ {
		out = append(out, all[i].Question)
	}
	return out, len(all)
}

func containsLevel(ls []assessment.Level, l assessment.Level) bool {
	for _, x := range ls {
		if x == l {
			return true
		}
	}
	return false
}

// ---- sessions ----

func (m *memoryStore) createSession(u user) (assessment.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[u.ID]; ok {
		return assessment.Session{}, errExists
	}
	s := assessment.Session{
		ID:          uuid.NewString(),
		User:        assessment.SessionUser{ID: u.ID, Name: u.Name, Email: u.Email},
		CurrentStep: 1,
		Status:      assessment.StatusInProgress,
	}
	m.sessions[s.ID] = s
	m.byUser[u.ID] = s.ID
	return s, nil
}

func (m *memoryStore) sessionOf(userID string) (assessment.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byUser[userID]
	if !ok {
		return assessment.Session{}, false
	}
	return m.sessions[id], true
}

func (m *memoryStore) session(id string) (assessment.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// updateSession applies fn to a copy of the session and stores it if fn
// succeeds. fn runs under the write lock and must not call back into m.
func (m *memoryStore) updateSession(id string, fn func(*assessment.Session) error) (assessment.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return assessment.Session{}, errNotFound
	}
	s.Answers = append([]assessment.Answer(nil), s.Answers...)
	s.Results = append([]assessment.Result(nil), s.Results...)
	s.HighestCertifiedLevels = append([]assessment.Level(nil), s.HighestCertifiedLevels...)
	if err := fn(&s); err != nil {
		return assessment.Session{}, err
	}
	m.sessions[id] = s
	return s, nil
}

func (m *memoryStore) listSessions(f sessionFilter) ([]assessment.Session, int) {
	m.mu.RLock()
	all := make([]assessment.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		all = append(all, s)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	out := make([]assessment.Session, 0, f.Limit)
	for i := f.Offset; i < len(all) && len(out) < f.Limit; i++ {
		out = append(out, all[i])
	}
	return out, len(all)
}
