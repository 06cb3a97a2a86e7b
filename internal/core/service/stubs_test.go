package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

// In-memory fakes shared by the service tests in this package.

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	copy := cloneUser(user)
	if copy.ID == "" {
		r.nextID++
		copy.ID = fmt.Sprintf("user-%d", r.nextID)
	}
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (r *stubUserRepo) List(_ context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	var out []*domain.User
	for _, u := range r.users {
		if filter.OrgID != "" && u.OrgID != filter.OrgID {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(u.Email, filter.Search) && !strings.Contains(u.Name, filter.Search) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	return out, int64(len(out)), nil
}

type stubRefreshRepo struct {
	records map[string]*ports.RefreshTokenRecord
}

func newStubRefreshRepo() *stubRefreshRepo {
	return &stubRefreshRepo{records: make(map[string]*ports.RefreshTokenRecord)}
}

func (r *stubRefreshRepo) Save(_ context.Context, rec *ports.RefreshTokenRecord) error {
	copy := *rec
	r.records[rec.TokenHash] = &copy
	return nil
}

func (r *stubRefreshRepo) Find(_ context.Context, tokenHash string) (*ports.RefreshTokenRecord, error) {
	if rec, ok := r.records[tokenHash]; ok {
		copy := *rec
		return &copy, nil
	}
	return nil, domain.ErrInvalidToken
}

func (r *stubRefreshRepo) Revoke(_ context.Context, tokenHash string) error {
	if rec, ok := r.records[tokenHash]; ok {
		rec.Revoked = true
	}
	return nil
}

func (r *stubRefreshRepo) RevokeAllForUser(_ context.Context, userID string) error {
	for _, rec := range r.records {
		if rec.UserID == userID {
			rec.Revoked = true
		}
	}
	return nil
}

type stubAppRepo struct {
	apps   map[string]*domain.ExpertApplication
	nextID int
}

func newStubAppRepo() *stubAppRepo {
	return &stubAppRepo{apps: make(map[string]*domain.ExpertApplication)}
}

func cloneApp(a *domain.ExpertApplication) *domain.ExpertApplication {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAppRepo) Create(_ context.Context, app *domain.ExpertApplication) (*domain.ExpertApplication, error) {
	copy := cloneApp(app)
	if copy.ID == "" {
		r.nextID++
		copy.ID = fmt.Sprintf("app-%d", r.nextID)
	}
	r.apps[copy.ID] = cloneApp(copy)
	return cloneApp(copy), nil
}

func (r *stubAppRepo) FindByUser(_ context.Context, userID string) (*domain.ExpertApplication, error) {
	for _, a := range r.apps {
		if a.UserID == userID {
			return cloneApp(a), nil
		}
	}
	return nil, domain.ErrApplicationNotFound
}

func (r *stubAppRepo) FindByID(_ context.Context, id string) (*domain.ExpertApplication, error) {
	if a, ok := r.apps[id]; ok {
		return cloneApp(a), nil
	}
	return nil, domain.ErrApplicationNotFound
}

func (r *stubAppRepo) UpdateProfile(_ context.Context, id string, profile domain.ApplicationProfile) error {
	a, ok := r.apps[id]
	if !ok {
		return domain.ErrApplicationNotFound
	}
	a.Profile = profile
	return nil
}

func (r *stubAppRepo) List(_ context.Context, filter ports.ListApplicationsFilter) ([]*domain.ExpertApplication, int64, error) {
	var out []*domain.ExpertApplication
	for _, a := range r.apps {
		if filter.OrgID != "" && a.OrgID != filter.OrgID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, cloneApp(a))
	}
	return out, int64(len(out)), nil
}

func (r *stubAppRepo) UpdateIfStatus(_ context.Context, id string, expected, next domain.ApplicationStatus, update ports.ApplicationUpdate) (bool, error) {
	a, ok := r.apps[id]
	if !ok {
		return false, domain.ErrApplicationNotFound
	}
	if a.Status != expected {
		return false, nil
	}
	a.Status = next
	if update.ReviewerID != "" {
		a.ReviewerID = update.ReviewerID
	}
	if update.RejectionReason != "" {
		a.RejectionReason = update.RejectionReason
	}
	if !update.ReviewedAt.IsZero() {
		a.ReviewedAt = update.ReviewedAt
	}
	if !update.SubmittedAt.IsZero() {
		a.SubmittedAt = update.SubmittedAt
	}
	return true, nil
}

type stubAuditRepo struct {
	entries []*domain.AuditEntry
}

func (r *stubAuditRepo) Insert(_ context.Context, entry *domain.AuditEntry) error {
	copy := *entry
	r.entries = append(r.entries, &copy)
	return nil
}

func (r *stubAuditRepo) ListByEntity(_ context.Context, entityKind, entityID string) ([]*domain.AuditEntry, error) {
	var out []*domain.AuditEntry
	for _, e := range r.entries {
		if e.EntityKind == entityKind && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubAuditRepo) hasAction(action string) bool {
	for _, e := range r.entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

type stubNotifier struct {
	sent []domain.Notification
}

func (n *stubNotifier) Notify(note domain.Notification) {
	n.sent = append(n.sent, note)
}

type stubOAuth struct {
	profile *ports.OAuthProfile
	err     error
}

func (o *stubOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/consent?state=" + state
}

func (o *stubOAuth) Exchange(_ context.Context, _ string) (*ports.OAuthProfile, error) {
	return o.profile, o.err
}

type stubTicketRepo struct {
	tickets map[string]*domain.Ticket
	nextID  int
}

func newStubTicketRepo() *stubTicketRepo {
	return &stubTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Response != nil {
		resp := *t.Response
		clone.Response = &resp
	}
	return &clone
}

func (r *stubTicketRepo) Create(_ context.Context, t *domain.Ticket) (*domain.Ticket, error) {
	copy := cloneTicket(t)
	if copy.ID == "" {
		r.nextID++
		copy.ID = fmt.Sprintf("ticket-%d", r.nextID)
	}
	r.tickets[copy.ID] = cloneTicket(copy)
	return cloneTicket(copy), nil
}

func (r *stubTicketRepo) FindByID(_ context.Context, id string) (*domain.Ticket, error) {
	if t, ok := r.tickets[id]; ok {
		return cloneTicket(t), nil
	}
	return nil, domain.ErrTicketNotFound
}

func (r *stubTicketRepo) List(_ context.Context, filter ports.ListTicketsFilter) ([]*domain.Ticket, int64, error) {
	var out []*domain.Ticket
	for _, t := range r.tickets {
		if filter.OrgID != "" && t.OrgID != filter.OrgID {
			continue
		}
		if filter.RaisedBy != "" && t.RaisedBy != filter.RaisedBy {
			continue
		}
		if filter.AssigneeID != "" && t.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, cloneTicket(t))
	}
	return out, int64(len(out)), nil
}

func (r *stubTicketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) error {
	t, ok := r.tickets[id]
	if !ok {
		return domain.ErrTicketNotFound
	}
	t.Status = status
	return nil
}

func (r *stubTicketRepo) SetAssignee(_ context.Context, id, assigneeID string) error {
	t, ok := r.tickets[id]
	if !ok {
		return domain.ErrTicketNotFound
	}
	t.AssigneeID = assigneeID
	return nil
}

func (r *stubTicketRepo) SetResponseIfUnanswered(_ context.Context, id string, resp domain.TicketResponse) (bool, error) {
	t, ok := r.tickets[id]
	if !ok {
		return false, domain.ErrTicketNotFound
	}
	if t.Response != nil {
		return false, nil
	}
	copy := resp
	t.Response = &copy
	return true, nil
}

func (r *stubTicketRepo) UpdateResponse(_ context.Context, id string, resp domain.TicketResponse) error {
	t, ok := r.tickets[id]
	if !ok {
		return domain.ErrTicketNotFound
	}
	copy := resp
	t.Response = &copy
	return nil
}

type stubTaskRepo struct {
	tasks  map[string]*domain.Task
	nextID int
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	copy := *t
	if copy.ID == "" {
		r.nextID++
		copy.ID = fmt.Sprintf("task-%d", r.nextID)
	}
	stored := copy
	r.tasks[copy.ID] = &stored
	return &copy, nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	if t, ok := r.tasks[id]; ok {
		copy := *t
		return &copy, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (r *stubTaskRepo) List(_ context.Context, filter ports.ListTasksFilter) ([]*domain.Task, int64, error) {
	var out []*domain.Task
	for _, t := range r.tasks {
		if filter.OrgID != "" && t.OrgID != filter.OrgID {
			continue
		}
		if filter.CreatedBy != "" && t.CreatedBy != filter.CreatedBy {
			continue
		}
		copy := *t
		out = append(out, &copy)
	}
	return out, int64(len(out)), nil
}

func (r *stubTaskRepo) Update(_ context.Context, id string, patch ports.TaskPatch) error {
	t, ok := r.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Domain != nil {
		t.Domain = *patch.Domain
	}
	if patch.Deadline != nil {
		t.Deadline = *patch.Deadline
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	return nil
}

type stubExpertTaskRepo struct {
	rows   map[string]*domain.ExpertTask
	nextID int
}

func newStubExpertTaskRepo() *stubExpertTaskRepo {
	return &stubExpertTaskRepo{rows: make(map[string]*domain.ExpertTask)}
}

func (r *stubExpertTaskRepo) Create(_ context.Context, et *domain.ExpertTask) error {
	for _, row := range r.rows {
		if row.TaskID == et.TaskID && row.ExpertID == et.ExpertID {
			return domain.ErrAlreadyAssigned
		}
	}
	r.nextID++
	et.ID = fmt.Sprintf("row-%d", r.nextID)
	copy := *et
	r.rows[et.ID] = &copy
	return nil
}

func (r *stubExpertTaskRepo) FindByTaskAndExpert(_ context.Context, taskID, expertID string) (*domain.ExpertTask, error) {
	for _, row := range r.rows {
		if row.TaskID == taskID && row.ExpertID == expertID {
			copy := *row
			return &copy, nil
		}
	}
	return nil, domain.ErrAssignmentNotFound
}

func (r *stubExpertTaskRepo) ListByTask(_ context.Context, taskID string) ([]*domain.ExpertTask, error) {
	var out []*domain.ExpertTask
	for _, row := range r.rows {
		if row.TaskID == taskID {
			copy := *row
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *stubExpertTaskRepo) ListByExpert(_ context.Context, expertID string) ([]*domain.ExpertTask, error) {
	var out []*domain.ExpertTask
	for _, row := range r.rows {
		if row.ExpertID == expertID {
			copy := *row
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *stubExpertTaskRepo) UpdateIfStatus(_ context.Context, id string, expected, next domain.AssignmentStatus, respondedAt time.Time) (bool, error) {
	row, ok := r.rows[id]
	if !ok {
		return false, domain.ErrAssignmentNotFound
	}
	if row.Status != expected {
		return false, nil
	}
	row.Status = next
	row.RespondedAt = respondedAt
	return true, nil
}

type stubConfigRepo struct {
	entries map[string]domain.ConfigEntry
}

func newStubConfigRepo() *stubConfigRepo {
	return &stubConfigRepo{entries: make(map[string]domain.ConfigEntry)}
}

func (r *stubConfigRepo) Upsert(_ context.Context, entry domain.ConfigEntry) error {
	r.entries[entry.Key] = entry
	return nil
}

func (r *stubConfigRepo) Get(_ context.Context, key string) (*domain.ConfigEntry, error) {
	if e, ok := r.entries[key]; ok {
		copy := e
		return &copy, nil
	}
	return nil, domain.ErrConfigNotFound
}

func (r *stubConfigRepo) All(_ context.Context) ([]domain.ConfigEntry, error) {
	out := make([]domain.ConfigEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out, nil
}

type stubConfigCache struct {
	live    map[string]string
	version int64
}

func (c *stubConfigCache) GetLive(_ context.Context) (map[string]string, error) {
	if c.live == nil {
		return nil, nil
	}
	out := make(map[string]string, len(c.live))
	for k, v := range c.live {
		out[k] = v
	}
	return out, nil
}

func (c *stubConfigCache) SetLive(_ context.Context, values map[string]string) error {
	c.live = make(map[string]string, len(values))
	for k, v := range values {
		c.live[k] = v
	}
	return nil
}

func (c *stubConfigCache) BumpVersion(_ context.Context) (int64, error) {
	c.version++
	return c.version, nil
}

func (c *stubConfigCache) Version(_ context.Context) (int64, error) {
	return c.version, nil
}
