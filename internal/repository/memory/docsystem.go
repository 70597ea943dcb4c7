package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	"roundreview/internal/domain/models/docsystem"
	docsysRepo "roundreview/internal/domain/repositories/docsystem"
)

type projectRepo struct{ s *Store }

func (r *projectRepo) Create(ctx context.Context, project *docsystem.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := r.s.now()
	project.CreatedAt, project.UpdatedAt = now, now
	p := *project
	r.s.projects[p.ID] = &p
	return nil
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*docsystem.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	c := *p
	return &c, nil
}

func (r *projectRepo) ListForUser(ctx context.Context, userID string) ([]docsystem.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []docsystem.Project{}
	for id, p := range r.s.projects {
		if p.Deleted {
			continue
		}
		if !models.ParseRole(r.s.members[id][userID]).IsMember() {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *projectRepo) UpdateTitle(ctx context.Context, id, title string) (*docsystem.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok || p.Deleted {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	p.Title = title
	p.UpdatedAt = r.s.now()
	c := *p
	return &c, nil
}

func (r *projectRepo) SoftDelete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok || p.Deleted {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	p.Deleted = true
	p.UpdatedAt = r.s.now()
	return nil
}

type membershipRepo struct{ s *Store }

// liveRole reads a role with the project and user liveness applied. Callers
// hold the lock.
func (r *membershipRepo) liveRole(projectID, userID string) models.Role {
	p, ok := r.s.projects[projectID]
	if !ok || p.Deleted {
		return models.NoRole
	}
	u, ok := r.s.users[userID]
	if !ok || u.Deleted {
		return models.NoRole
	}
	return models.ParseRole(r.s.members[projectID][userID])
}

func (r *membershipRepo) GetProjectRole(ctx context.Context, projectID, userID string) (models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.liveRole(projectID, userID), nil
}

func (r *membershipRepo) GetMembership(ctx context.Context, projectID, userID string) (models.Role, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	raw, ok := r.s.members[projectID][userID]
	if !ok {
		return models.NoRole, false, nil
	}
	return models.ParseRole(raw), true, nil
}

func (r *membershipRepo) CountOwners(ctx context.Context, projectID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for userID, raw := range r.s.members[projectID] {
		if models.ParseRole(raw) != models.Owner {
			continue
		}
		if u, ok := r.s.users[userID]; ok && !u.Deleted {
			n++
		}
	}
	return n, nil
}

func (r *membershipRepo) AddMember(ctx context.Context, projectID, userID string, role models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[projectID][userID]; ok {
		return &domain.ConflictError{
			Message:      "user is already a member of this project",
			ResourceType: "membership",
			ResourceID:   userID,
		}
	}
	if r.s.members[projectID] == nil {
		r.s.members[projectID] = make(map[string]string)
	}
	r.s.members[projectID][userID] = role.String()
	return nil
}

func (r *membershipRepo) RemoveMember(ctx context.Context, projectID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.members[projectID][userID]; !ok {
		return fmt.Errorf("membership %s/%s: %w", projectID, userID, domain.ErrNotFound)
	}
	delete(r.s.members[projectID], userID)
	return nil
}

func (r *membershipRepo) ListMembers(ctx context.Context, projectID string) ([]docsystem.ProjectMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []docsystem.ProjectMember{}
	for userID, raw := range r.s.members[projectID] {
		u, ok := r.s.users[userID]
		if !ok || u.Deleted {
			continue
		}
		out = append(out, docsystem.ProjectMember{
			ProjectID: projectID,
			UserID:    userID,
			Name:      u.Name,
			Role:      models.ParseRole(raw),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *membershipRepo) ListWebhookRecipients(ctx context.Context, projectID string) ([]models.WebhookRecipient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.WebhookRecipient{}
	for userID, raw := range r.s.members[projectID] {
		u, ok := r.s.users[userID]
		if !ok || u.Deleted {
			continue
		}
		rcpt := models.WebhookRecipient{
			UserID:   userID,
			Role:     models.ParseRole(raw),
			IsSystem: u.IsSystem,
		}
		if u.WebhookURL != nil {
			rcpt.WebhookURL = *u.WebhookURL
		}
		out = append(out, rcpt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type objectRepo struct{ s *Store }

func (r *objectRepo) Create(ctx context.Context, object *docsystem.Object) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if object.ID == "" {
		object.ID = uuid.NewString()
	}
	now := r.s.now()
	object.UploadDate, object.UpdateDate = now, now
	row := &objectRow{object: *object}
	row.object.Raw = append([]byte(nil), object.Raw...)
	r.s.objects[object.ID] = row
	return nil
}

func (r *objectRepo) GetByID(ctx context.Context, id string) (*docsystem.Object, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.objects[id]
	if !ok || row.deleted {
		return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
	}
	o := row.object
	o.Raw = nil
	return &o, nil
}

func (r *objectRepo) GetOwnership(ctx context.Context, id string) (*docsystem.ObjectOwnership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
	}
	p := r.s.projects[row.object.ProjectID]
	return &docsystem.ObjectOwnership{
		ObjectID:       id,
		OwnerID:        row.object.OwnerID,
		ProjectID:      row.object.ProjectID,
		Deleted:        row.deleted,
		ProjectDeleted: p == nil || p.Deleted,
	}, nil
}

func (r *objectRepo) ListByProject(ctx context.Context, projectID string) ([]docsystem.Object, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []docsystem.Object{}
	for _, row := range r.s.objects {
		if row.deleted || row.object.ProjectID != projectID {
			continue
		}
		o := row.object
		o.Raw = nil
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

func (r *objectRepo) Update(ctx context.Context, id string, update docsysRepo.ObjectUpdate) (*docsystem.Object, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.objects[id]
	if !ok || row.deleted {
		return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
	}

	o := &row.object
	for field, value := range update {
		switch field {
		case docsystem.FieldName:
			o.Name = value
		case docsystem.FieldDescription:
			o.Description = value
		case docsystem.FieldComments:
			o.Comments = strPtr(value)
		case docsystem.FieldVersion:
			o.Version = value
		case docsystem.FieldStatus:
			o.Status = docsystem.ParseStatus(value)
		case docsystem.FieldPath:
			o.Path = value
		default:
			return nil, fmt.Errorf("unknown object field %q: %w", field, domain.ErrValidation)
		}
	}
	o.UpdateDate = r.s.now()

	c := *o
	c.Raw = nil
	return &c, nil
}

func (r *objectRepo) SoftDelete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.objects[id]
	if !ok || row.deleted {
		return fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
	}
	row.deleted = true
	row.object.UpdateDate = r.s.now()
	return nil
}

func (r *objectRepo) LoadRaw(ctx context.Context, id string) ([]byte, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.objects[id]
	if !ok || row.deleted {
		return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
	}
	return append([]byte(nil), row.object.Raw...), nil
}

type reviewRepo struct{ s *Store }

func (r *reviewRepo) Create(ctx context.Context, review *docsystem.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.reviews {
		if existing.ObjectID == review.ObjectID && existing.UserID == review.UserID {
			return &domain.ConflictError{
				Message:      "review already exists for this object",
				ResourceType: "review",
				ResourceID:   existing.ID,
			}
		}
	}
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.CreatedAt = r.s.now()
	c := *review
	r.s.reviews[c.ID] = &c
	return nil
}

func (r *reviewRepo) GetByID(ctx context.Context, id string) (*docsystem.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
	}
	c := *rv
	return &c, nil
}

func (r *reviewRepo) Exists(ctx context.Context, objectID, userID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rv := range r.s.reviews {
		if rv.ObjectID == objectID && rv.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *reviewRepo) ListByObject(ctx context.Context, objectID string) ([]docsystem.Review, error) {
	return r.list(func(rv *docsystem.Review) bool { return rv.ObjectID == objectID }), nil
}

func (r *reviewRepo) ListByUser(ctx context.Context, userID string) ([]docsystem.Review, error) {
	return r.list(func(rv *docsystem.Review) bool { return rv.UserID == userID }), nil
}

func (r *reviewRepo) list(match func(*docsystem.Review) bool) []docsystem.Review {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []docsystem.Review{}
	for _, rv := range r.s.reviews {
		if match(rv) {
			out = append(out, *rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *reviewRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[id]; !ok {
		return fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.reviews, id)
	return nil
}
