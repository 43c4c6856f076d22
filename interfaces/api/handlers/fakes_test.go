package handlers_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskflow/domain/models"
	"taskflow/domain/ports"
	"taskflow/domain/repositories"
)

type userStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newUserStore() *userStore {
	return &userStore{users: map[uuid.UUID]models.User{}}
}

func (r *userStore) Create(_ context.Context, user *models.User) error {
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

func (r *userStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *userStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
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

func (r *userStore) GetActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (r *userStore) Update(_ context.Context, id uuid.UUID, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repositories.ErrNotFound
	}
	r.users[id] = *user
	return nil
}

func (r *userStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
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

func (r *userStore) List(_ context.Context, offset, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		u := u
		all = append(all, &u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	if offset >= len(all) {
		return []*models.User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *userStore) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *userStore) promote(email string) { r.setRole(email, models.RoleAdmin) }

func (r *userStore) demote(email string) { r.setRole(email, models.RoleUser) }

func (r *userStore) setRole(email, role string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Email == email {
			u.Role = role
			r.users[id] = u
		}
	}
}

type taskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]models.Task
}

func newTaskStore() *taskStore {
	return &taskStore{tasks: map[uuid.UUID]models.Task{}}
}

func (r *taskStore) Create(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = *task
	return nil
}

func (r *taskStore) GetByIDForOwner(_ context.Context, id, ownerID uuid.UUID) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.CreatedBy != ownerID {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (r *taskStore) ListByOwner(_ context.Context, ownerID uuid.UUID, filter repositories.TaskFilter) ([]*models.Task, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := []*models.Task{}
	for _, t := range r.tasks {
		t := t
		if t.CreatedBy != ownerID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, &t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Title < matched[j].Title })
	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []*models.Task{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], total, nil
}

func (r *taskStore) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[task.ID]
	if !ok || existing.CreatedBy != task.CreatedBy {
		return repositories.ErrNotFound
	}
	r.tasks[task.ID] = *task
	return nil
}

func (r *taskStore) DeleteForOwner(_ context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.CreatedBy != ownerID {
		return repositories.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *taskStore) ListDueForReminder(context.Context, time.Time, int) ([]*models.Task, error) {
	return nil, nil
}

func (r *taskStore) MarkReminderSent(context.Context, uuid.UUID, time.Time) error {
	return nil
}

type discardPublisher struct{}

func (discardPublisher) PublishTaskEvent(context.Context, *ports.TaskEvent) error { return nil }

type fileStore struct {
	mu    sync.Mutex
	files map[string]int
}

func (s *fileStore) UploadFile(_ context.Context, file io.Reader, _ int64, path string, _ string) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = len(data)
	return s.GetFileURL(path), nil
}

func (s *fileStore) DeleteFile(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

func (s *fileStore) GetFileURL(path string) string { return "http://files.test/" + path }

func (s *fileStore) GetProviderName() string { return "memory" }
