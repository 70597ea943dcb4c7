package docsystem

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roundreview/internal/capabilities"
	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	docsysModels "roundreview/internal/domain/models/docsystem"
	docsysSvc "roundreview/internal/domain/services/docsystem"
	"roundreview/internal/repository/memory"
	"roundreview/internal/service/audit"
	"roundreview/internal/service/policy"
	"roundreview/internal/service/sysprop"
	"roundreview/internal/service/webhook"
)

var pdf = []byte("%PDF-1.7\n%test\n")

type enqueueCall struct {
	projectID  string
	objectID   string
	fields     map[string]string
	recipients []models.WebhookRecipient
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []enqueueCall
}

func (n *fakeNotifier) Enqueue(ctx context.Context, projectID, objectID string, updatedFields map[string]string, recipients []models.WebhookRecipient) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, enqueueCall{projectID, objectID, updatedFields, recipients})
}

type fixture struct {
	store    *memory.Store
	props    *sysprop.Store
	audit    *audit.Log
	projects docsysSvc.ProjectService
	objects  docsysSvc.ObjectService
	reviews  docsysSvc.ReviewService
	notifier *fakeNotifier

	evaluator *policy.Evaluator
	facts     *policy.FactLoader
	logger    *slog.Logger

	system models.Actor
	admin  models.Actor
	u1     models.Actor
	u2     models.Actor
	u3     models.Actor
	u4     models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	caps, err := capabilities.NewRegistry()
	require.NoError(t, err)
	props := sysprop.NewStore(store.SystemProperties(), store.TxManager(), 0, 10, logger)
	require.NoError(t, props.Seed(context.Background()))

	evaluator := policy.NewEvaluator(caps)
	facts := policy.NewFactLoader(store.Projects(), store.Memberships(), store.Objects(), store.Reviews(), store.Users(), props)
	auditLog := audit.NewLog(store.AuditLogs(), logger)
	notifier := &fakeNotifier{}

	f := &fixture{
		store:     store,
		props:     props,
		audit:     auditLog,
		notifier:  notifier,
		evaluator: evaluator,
		facts:     facts,
		logger:    logger,
		projects:  NewProjectService(store.Projects(), store.Memberships(), store.TxManager(), evaluator, facts, auditLog, logger),
		objects:   NewObjectService(store.Objects(), store.Memberships(), evaluator, facts, auditLog, notifier, logger),
		reviews:   NewReviewService(store.Reviews(), evaluator, facts, auditLog, logger),
	}

	hook := "https://hooks.example.com/"
	f.system = store.PutUser(models.User{Name: "system", IsSystem: true}).Actor()
	f.admin = store.PutUser(models.User{Name: "admin", IsAdmin: true}).Actor()
	f.u1 = store.PutUser(models.User{Name: "u1", WebhookURL: strRef(hook + "u1")}).Actor()
	f.u2 = store.PutUser(models.User{Name: "u2", WebhookURL: strRef(hook + "u2")}).Actor()
	f.u3 = store.PutUser(models.User{Name: "u3", WebhookURL: strRef(hook + "u3")}).Actor()
	f.u4 = store.PutUser(models.User{Name: "u4"}).Actor()
	return f
}

func strRef(s string) *string { return &s }

// setupProject creates a project owned by u1 with u2 as Reviewer and u3 as
// Member, plus one object uploaded by u3.
func (f *fixture) setupProject(t *testing.T) (*docsysModels.Project, *docsysModels.Object) {
	t.Helper()
	ctx := context.Background()

	p, err := f.projects.CreateProject(ctx, f.u1, &docsysSvc.CreateProjectRequest{Title: "Specs"})
	require.NoError(t, err)
	require.NoError(t, f.projects.JoinProject(ctx, f.u1, p.ID, &docsysSvc.JoinProjectRequest{Username: "u2", Role: "Reviewer"}))
	require.NoError(t, f.projects.JoinProject(ctx, f.u1, p.ID, &docsysSvc.JoinProjectRequest{Username: "u3", Role: "Member"}))

	o, err := f.objects.CreateObject(ctx, f.u3, &docsysSvc.CreateObjectRequest{
		ProjectID:   p.ID,
		Name:        "design.pdf",
		ContentType: "application/pdf",
		Raw:         pdf,
	})
	require.NoError(t, err)
	return p, o
}

func (f *fixture) auditActions(t *testing.T) []string {
	t.Helper()
	entries, err := f.audit.List(context.Background(), models.AuditLogFilter{})
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var httpErr domain.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, code, httpErr.StatusCode())
}

func TestStatusChange_RoleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, o := f.setupProject(t)

	_, err := f.objects.UpdateObject(ctx, f.u3, o.ID, map[string]any{"status": "Approved"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.notifier.calls)

	updated, err := f.objects.UpdateObject(ctx, f.u2, o.ID, map[string]any{"status": "Approved"})
	require.NoError(t, err)
	assert.Equal(t, docsysModels.StatusApproved, updated.Status)

	require.Len(t, f.notifier.calls, 1)
	call := f.notifier.calls[0]
	assert.Equal(t, p.ID, call.projectID)
	assert.Equal(t, o.ID, call.objectID)
	assert.Equal(t, map[string]string{"status": "Approved"}, call.fields)
	assert.Len(t, call.recipients, 3)
}

func TestStatusChange_DispatcherSchedulesOwnersAndReviewers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dispatcher := webhook.NewDispatcher(webhook.DefaultConfig(), nil, f.props, f.system.ID, f.logger)
	objects := NewObjectService(f.store.Objects(), f.store.Memberships(), f.evaluator, f.facts, f.audit, dispatcher, f.logger)

	p, err := f.projects.CreateProject(ctx, f.u1, &docsysSvc.CreateProjectRequest{Title: "Specs"})
	require.NoError(t, err)
	require.NoError(t, f.projects.JoinProject(ctx, f.u1, p.ID, &docsysSvc.JoinProjectRequest{Username: "u2", Role: "Reviewer"}))
	require.NoError(t, f.projects.JoinProject(ctx, f.u1, p.ID, &docsysSvc.JoinProjectRequest{Username: "u3", Role: "Member"}))
	require.NoError(t, f.store.Memberships().AddMember(ctx, p.ID, f.system.ID, models.Owner))

	o, err := objects.CreateObject(ctx, f.u1, &docsysSvc.CreateObjectRequest{
		ProjectID: p.ID, Name: "a.pdf", ContentType: "application/pdf", Raw: pdf,
	})
	require.NoError(t, err)

	_, err = objects.UpdateObject(ctx, f.u2, o.ID, map[string]any{"status": "Approved"})
	require.NoError(t, err)

	_, ok := dispatcher.Scheduled(webhook.JobID(o.ID, f.u1.ID))
	assert.True(t, ok, "owner notified")
	_, ok = dispatcher.Scheduled(webhook.JobID(o.ID, f.u2.ID))
	assert.True(t, ok, "acting reviewer notified")
	_, ok = dispatcher.Scheduled(webhook.JobID(o.ID, f.u3.ID))
	assert.False(t, ok, "member never notified")
	_, ok = dispatcher.Scheduled(webhook.JobID(o.ID, f.system.ID))
	assert.False(t, ok, "system user never notified")
	assert.Equal(t, 2, dispatcher.Pending())
}

func TestUpdateObject_NonStatusFieldsDoNotNotify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, o := f.setupProject(t)

	updated, err := f.objects.UpdateObject(ctx, f.u3, o.ID, map[string]any{"name": "renamed.pdf", "version": "2"})
	require.NoError(t, err)
	assert.Equal(t, "renamed.pdf", updated.Name)
	assert.Equal(t, "2", updated.Version)
	assert.Empty(t, f.notifier.calls)
}

func TestUpdateObject_DeniedRequestChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, o := f.setupProject(t)

	_, err := f.objects.UpdateObject(ctx, f.u3, o.ID, map[string]any{"name": "x.pdf", "comments": []string{"hi"}})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.objects.GetObject(ctx, f.u3, o.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "design.pdf", got.Name)
	assert.Nil(t, got.Comments)
}

func TestUpdateObject_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, o := f.setupProject(t)

	_, err := f.objects.UpdateObject(ctx, f.u1, o.ID, map[string]any{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.objects.UpdateObject(ctx, f.u1, o.ID, map[string]any{"owner_id": "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.objects.UpdateObject(ctx, f.u1, o.ID, map[string]any{"status": "Done"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.objects.UpdateObject(ctx, f.u1, o.ID, map[string]any{"path": "relative"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.objects.UpdateObject(ctx, f.u1, o.ID, map[string]any{"name": 42})
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err := f.objects.UpdateObject(ctx, f.u1, o.ID, map[string]any{"comments": map[string]any{"page": 2}})
	require.NoError(t, err)
	require.NotNil(t, updated.Comments)
	assert.JSONEq(t, `{"page":2}`, *updated.Comments)
}

func TestCreateObject_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.setupProject(t)

	base := func() *docsysSvc.CreateObjectRequest {
		return &docsysSvc.CreateObjectRequest{ProjectID: p.ID, Name: "a.pdf", ContentType: "application/pdf", Raw: pdf}
	}

	req := base()
	req.ContentType = "text/plain"
	_, err := f.objects.CreateObject(ctx, f.u1, req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	req = base()
	req.Raw = []byte("not a pdf")
	_, err = f.objects.CreateObject(ctx, f.u1, req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	req = base()
	req.Name = ""
	_, err = f.objects.CreateObject(ctx, f.u1, req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	req = base()
	req.Status = "Done"
	_, err = f.objects.CreateObject(ctx, f.u1, req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	o, err := f.objects.CreateObject(ctx, f.u1, base())
	require.NoError(t, err)
	assert.Equal(t, "/", o.Path)
	assert.Equal(t, docsysModels.StatusNoReview, o.Status)
	assert.Equal(t, f.u1.ID, o.OwnerID)

	_, err = f.objects.CreateObject(ctx, f.u4, base())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateObject_UploadCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.setupProject(t)
	require.NoError(t, f.props.Set(ctx, map[models.SystemPropertyKey]string{models.PropObjectMaxUploadSizeMB: "1"}))

	big := append([]byte("%PDF"), make([]byte, 1024*1024)...)
	_, err := f.objects.CreateObject(ctx, f.u1, &docsysSvc.CreateObjectRequest{
		ProjectID: p.ID, Name: "big.pdf", ContentType: "application/pdf", Raw: big,
	})
	assertStatus(t, err, 400)
}

func TestGetObject_WithRaw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, o := f.setupProject(t)

	got, err := f.objects.GetObject(ctx, f.u2, o.ID, false)
	require.NoError(t, err)
	assert.Nil(t, got.Raw)

	got, err = f.objects.GetObject(ctx, f.u2, o.ID, true)
	require.NoError(t, err)
	assert.Equal(t, pdf, got.Raw)

	_, err = f.objects.GetObject(ctx, f.u4, o.ID, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteObject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, o := f.setupProject(t)

	assert.ErrorIs(t, f.objects.DeleteObject(ctx, f.u2, o.ID), domain.ErrForbidden)

	require.NoError(t, f.props.Set(ctx, map[models.SystemPropertyKey]string{models.PropObjectDeleteDisabled: "TRUE"}))
	assert.ErrorIs(t, f.objects.DeleteObject(ctx, f.u3, o.ID), domain.ErrForbidden)

	require.NoError(t, f.props.Set(ctx, map[models.SystemPropertyKey]string{models.PropObjectDeleteDisabled: "FALSE"}))
	require.NoError(t, f.objects.DeleteObject(ctx, f.u3, o.ID))

	_, err := f.objects.GetObject(ctx, f.u1, o.ID, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.objects.DeleteObject(ctx, f.u1, o.ID), domain.ErrNotFound)
}

func TestDeletedProjectHidesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, o := f.setupProject(t)

	assert.ErrorIs(t, f.projects.DeleteProject(ctx, f.u2, p.ID), domain.ErrForbidden)
	require.NoError(t, f.projects.DeleteProject(ctx, f.u1, p.ID))

	_, err := f.projects.GetProject(ctx, f.u1, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.objects.GetObject(ctx, f.u1, o.ID, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.objects.UpdateObject(ctx, f.u1, o.ID, map[string]any{"name": "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.objects.ListObjects(ctx, f.admin, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.projects.GetProject(ctx, f.admin, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)

	projects, err := f.projects.ListProjects(ctx, f.u1)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestCreateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.projects.CreateProject(ctx, f.u1, &docsysSvc.CreateProjectRequest{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	p, err := f.projects.CreateProject(ctx, f.u1, &docsysSvc.CreateProjectRequest{Title: " Specs "})
	require.NoError(t, err)
	assert.Equal(t, "Specs", p.Title)

	members, err := f.projects.ListMembers(ctx, f.u1, p.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.Owner, members[0].Role)

	assert.Equal(t, []string{
		"project user add (project_id=" + p.ID + ", user_id=" + f.u1.ID + ", role=Owner)",
		"project add (project_id=" + p.ID + ")",
	}, f.auditActions(t))
}

func TestCreateProject_Disabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.props.Set(ctx, map[models.SystemPropertyKey]string{models.PropProjectCreateDisabled: "TRUE"}))

	_, err := f.projects.CreateProject(ctx, f.u1, &docsysSvc.CreateProjectRequest{Title: "Specs"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.projects.CreateProject(ctx, f.admin, &docsysSvc.CreateProjectRequest{Title: "Specs"})
	assert.NoError(t, err)
}

func TestRenameProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.setupProject(t)

	_, err := f.projects.RenameProject(ctx, f.u2, p.ID, &docsysSvc.UpdateProjectRequest{Title: "New"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.projects.RenameProject(ctx, f.u1, p.ID, &docsysSvc.UpdateProjectRequest{Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Contains(t, f.auditActions(t), "project update (project_id="+p.ID+", keys=title)")
}

func TestJoinAndUnjoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.setupProject(t)

	join := func(actor models.Actor, name, role string) error {
		return f.projects.JoinProject(ctx, actor, p.ID, &docsysSvc.JoinProjectRequest{Username: name, Role: role})
	}
	unjoin := func(actor models.Actor, name string) error {
		return f.projects.UnjoinProject(ctx, actor, p.ID, &docsysSvc.UnjoinProjectRequest{Username: name})
	}

	assert.ErrorIs(t, join(f.u2, "u4", "Member"), domain.ErrForbidden)
	assert.ErrorIs(t, join(f.u1, "nobody", "Member"), domain.ErrNotFound)
	assert.ErrorIs(t, join(f.u1, "system", "Member"), domain.ErrValidation)
	assert.ErrorIs(t, join(f.u1, "u4", "Admin"), domain.ErrValidation)
	assert.ErrorIs(t, join(f.u1, "u3", "Owner"), domain.ErrConflict)

	require.NoError(t, join(f.u1, "u4", "Member"))

	assert.ErrorIs(t, unjoin(f.u3, "u4"), domain.ErrForbidden)
	require.NoError(t, unjoin(f.u4, "u4"))
	assert.ErrorIs(t, unjoin(f.u1, "u4"), domain.ErrNotFound)

	assert.ErrorIs(t, unjoin(f.u1, "u1"), domain.ErrForbidden)
	require.NoError(t, join(f.u1, "u4", "Owner"))
	require.NoError(t, unjoin(f.u4, "u1"))

	members, err := f.projects.ListMembers(ctx, f.u4, p.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"u2", "u3", "u4"}, names)

	// a soft-deleted Owner does not count towards the last-owner rule
	require.NoError(t, join(f.u4, "u1", "Owner"))
	require.NoError(t, f.store.Users().SetDeleted(ctx, f.u1.ID, true))
	assert.ErrorIs(t, unjoin(f.u4, "u4"), domain.ErrForbidden)
	role, err := f.store.Memberships().GetProjectRole(ctx, p.ID, f.u4.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Owner, role)
}

func TestDeletedActorIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, o := f.setupProject(t)

	ghost := f.u1
	ghost.IsDeleted = true
	_, err := f.projects.GetProject(ctx, ghost, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.objects.GetObject(ctx, ghost, o.ID, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, o := f.setupProject(t)

	req := &docsysSvc.CreateReviewRequest{Name: "lint", Value: "ok", URL: strRef("https://ci.example.com/1")}

	_, err := f.reviews.CreateReview(ctx, f.u3, p.ID, o.ID, req)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.reviews.CreateReview(ctx, f.u2, "other-project", o.ID, req)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.reviews.CreateReview(ctx, f.u2, p.ID, o.ID, &docsysSvc.CreateReviewRequest{Name: "lint"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	long := "this review name is far longer than thirty-two characters"
	_, err = f.reviews.CreateReview(ctx, f.u2, p.ID, o.ID, &docsysSvc.CreateReviewRequest{Name: long, Value: "v"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	rv, err := f.reviews.CreateReview(ctx, f.u2, p.ID, o.ID, req)
	require.NoError(t, err)
	assert.Equal(t, f.u2.ID, rv.UserID)

	_, err = f.reviews.CreateReview(ctx, f.u2, p.ID, o.ID, req)
	assert.ErrorIs(t, err, domain.ErrConflict)

	list, err := f.reviews.ListReviews(ctx, f.u3, p.ID, o.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	own, err := f.reviews.ListOwnReviews(ctx, f.u2, false)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Empty(t, own[0].Value)

	own, err = f.reviews.ListOwnReviews(ctx, f.u2, true)
	require.NoError(t, err)
	assert.Equal(t, "ok", own[0].Value)

	assert.ErrorIs(t, f.reviews.DeleteReview(ctx, f.u3, rv.ID), domain.ErrForbidden)
	require.NoError(t, f.reviews.DeleteReview(ctx, f.u1, rv.ID))
	assert.ErrorIs(t, f.reviews.DeleteReview(ctx, f.u1, rv.ID), domain.ErrNotFound)

	assert.Contains(t, f.auditActions(t), "object review delete (review_id="+rv.ID+")")
}
