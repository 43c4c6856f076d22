package serviceimpl

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"taskflow/domain/models"
	"taskflow/domain/ports"
	"taskflow/domain/repositories"

	"github.com/google/uuid"
)

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[uuid.UUID]models.User{}}
}

func (r *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateKey
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memoryUserRepo) GetActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) Update(ctx context.Context, id uuid.UUID, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrNotFound
	}
	r.users[id] = *user
	return nil
}

func (r *memoryUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.LastLoginAt = &at
	r.users[id] = u
	return nil
}

func (r *memoryUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		u := u
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, offset, limit), nil
}

func (r *memoryUserRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type memoryTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]models.Task
}

func newMemoryTaskRepo() *memoryTaskRepo {
	return &memoryTaskRepo{tasks: map[uuid.UUID]models.Task{}}
}

func (r *memoryTaskRepo) Create(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = *task
	return nil
}

func (r *memoryTaskRepo) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.CreatedBy != ownerID {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (r *memoryTaskRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter repositories.TaskFilter) ([]*models.Task, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	search := strings.ToLower(filter.Search)
	matched := []*models.Task{}
	for _, t := range r.tasks {
		t := t
		if t.CreatedBy != ownerID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		matched = append(matched, &t)
	}
	sort.Slice(matched, func(i, j int) bool {
		if filter.SortDesc {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Offset, filter.Limit), int64(len(matched)), nil
}

func (r *memoryTaskRepo) Update(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[task.ID]
	if !ok || existing.CreatedBy != task.CreatedBy {
		return repositories.ErrNotFound
	}
	r.tasks[task.ID] = *task
	return nil
}

func (r *memoryTaskRepo) DeleteForOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.CreatedBy != ownerID {
		return repositories.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *memoryTaskRepo) ListDueForReminder(ctx context.Context, dueBefore time.Time, limit int) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	due := []*models.Task{}
	for _, t := range r.tasks {
		t := t
		if t.IsCompleted || t.DueDate == nil || t.ReminderSentAt != nil || t.DueDate.After(dueBefore) {
			continue
		}
		due = append(due, &t)
	}
	return paginate(due, 0, limit), nil
}

func (r *memoryTaskRepo) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.ReminderSentAt = &at
	r.tasks[id] = t
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.TaskEvent
	err    error
}

func (p *recordingPublisher) PublishTaskEvent(ctx context.Context, event *ports.TaskEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return p.err
}

func (p *recordingPublisher) types() []ports.TaskEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.TaskEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type memoryStorage struct {
	files map[string][]byte
	fail  bool
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: map[string][]byte{}}
}

func (s *memoryStorage) UploadFile(ctx context.Context, file io.Reader, size int64, path string, contentType string) (string, error) {
	if s.fail {
		return "", errors.New("storage unavailable")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	s.files[path] = data
	return s.GetFileURL(path), nil
}

func (s *memoryStorage) DeleteFile(ctx context.Context, path string) error {
	delete(s.files, path)
	return nil
}

func (s *memoryStorage) GetFileURL(path string) string {
	return "http://files.test/" + path
}

func (s *memoryStorage) GetProviderName() string {
	return "memory"
}
