// Package memory is an in-process implementation of every repository port.
// It backs the test suites and the server when no DATABASE_URL is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/models/docsystem"
	"roundreview/internal/domain/repositories"
	docsysRepo "roundreview/internal/domain/repositories/docsystem"
)

type objectRow struct {
	object  docsystem.Object
	deleted bool
}

// Store holds all tables behind a single lock.
type Store struct {
	mu sync.RWMutex

	users    map[string]*models.User
	projects map[string]*docsystem.Project
	// project -> user -> stored role name
	members     map[string]map[string]string
	objects     map[string]*objectRow
	reviews     map[string]*docsystem.Review
	props       map[models.SystemPropertyKey]string
	audit       []models.AuditLogEntry
	nextAuditID int64

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		projects: make(map[string]*docsystem.Project),
		members:  make(map[string]map[string]string),
		objects:  make(map[string]*objectRow),
		reviews:  make(map[string]*docsystem.Review),
		props:    make(map[models.SystemPropertyKey]string),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() repositories.UserRepository { return &userRepo{s} }

// SystemProperties returns the system property repository view of the store.
func (s *Store) SystemProperties() repositories.SystemPropertyRepository { return &propertyRepo{s} }

// AuditLogs returns the audit log repository view of the store.
func (s *Store) AuditLogs() repositories.AuditLogRepository { return &auditRepo{s} }

// Projects returns the project repository view of the store.
func (s *Store) Projects() docsysRepo.ProjectRepository { return &projectRepo{s} }

// Memberships returns the membership repository view of the store.
func (s *Store) Memberships() docsysRepo.MembershipRepository { return &membershipRepo{s} }

// Objects returns the object repository view of the store.
func (s *Store) Objects() docsysRepo.ObjectRepository { return &objectRepo{s} }

// Reviews returns the review repository view of the store.
func (s *Store) Reviews() docsysRepo.ReviewRepository { return &reviewRepo{s} }

// TxManager returns a transaction manager that rolls back system property
// writes when fn fails.
func (s *Store) TxManager() repositories.TransactionManager { return &txManager{s} }

// PutUser inserts or replaces a user, assigning an ID when empty.
func (s *Store) PutUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = &u
	return copyUser(&u)
}

// PutRawRole writes a membership row verbatim, including unknown role names.
func (s *Store) PutRawRole(projectID, userID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.members[projectID] == nil {
		s.members[projectID] = make(map[string]string)
	}
	s.members[projectID][userID] = role
}

type txManager struct{ s *Store }

func (m *txManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.s.mu.RLock()
	snapshot := make(map[models.SystemPropertyKey]string, len(m.s.props))
	for k, v := range m.s.props {
		snapshot[k] = v
	}
	m.s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		m.s.mu.Lock()
		m.s.props = snapshot
		m.s.mu.Unlock()
		return err
	}
	return nil
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func strPtr(s string) *string {
	return &s
}
