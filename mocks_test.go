package staff_test

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	staff "github.com/dundermifflin/staff-api"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUsers implements staff.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Get(ctx context.Context, id uuid.UUID) (*staff.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*staff.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*staff.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*staff.User)
	return user, args.Error(1)
}

func (m *MockUsers) List(ctx context.Context) ([]*staff.User, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]*staff.User)
	return records, args.Error(1)
}

func (m *MockUsers) Register(ctx context.Context, user *staff.User) (*staff.User, error) {
	args := m.Called(ctx, user)
	record, _ := args.Get(0).(*staff.User)
	return record, args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *staff.User) (*staff.User, error) {
	args := m.Called(ctx, tx, user)
	record, _ := args.Get(0).(*staff.User)
	return record, args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, user *staff.User) (*staff.User, error) {
	args := m.Called(ctx, user)
	record, _ := args.Get(0).(*staff.User)
	return record, args.Error(1)
}

func (m *MockUsers) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// memoryUsers is an in-memory staff.Users used by the HTTP tests, where
// expectation-style mocks would drown the scenarios in setup noise.
type memoryUsers struct {
	mu      sync.Mutex
	records map[uuid.UUID]*staff.User
}

func newMemoryUsers(seed ...*staff.User) *memoryUsers {
	s := &memoryUsers{records: map[uuid.UUID]*staff.User{}}
	for _, user := range seed {
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		s.records[user.ID] = user
	}
	return s
}

func (s *memoryUsers) Get(ctx context.Context, id uuid.UUID) (*staff.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.records[id]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	clone := *user
	return &clone, nil
}

func (s *memoryUsers) GetByEmail(ctx context.Context, email string) (*staff.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.records {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (s *memoryUsers) List(ctx context.Context) ([]*staff.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]*staff.User, 0, len(s.records))
	for _, user := range s.records {
		clone := *user
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Email < records[j].Email
	})
	return records, nil
}

func (s *memoryUsers) Register(ctx context.Context, user *staff.User) (*staff.User, error) {
	return s.RegisterTx(ctx, nil, user)
}

func (s *memoryUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *staff.User) (*staff.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, staff.ErrEmailTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	clone := *user
	s.records[user.ID] = &clone
	return user, nil
}

func (s *memoryUsers) Update(ctx context.Context, user *staff.User) (*staff.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[user.ID]; !ok {
		return nil, repository.NewRecordNotFound()
	}
	clone := *user
	s.records[user.ID] = &clone
	return user, nil
}

func (s *memoryUsers) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return repository.NewRecordNotFound()
	}
	delete(s.records, id)
	return nil
}

// fakeRepoManager wires memoryUsers behind the RepositoryManager
// contract; transactions run the callback against a zero transaction.
type fakeRepoManager struct {
	users staff.Users
}

func (f fakeRepoManager) Users() staff.Users { return f.users }

func (f fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (f fakeRepoManager) Validate() error { return nil }

func (f fakeRepoManager) MustValidate() {}

// fakeAvatars resolves keys to deterministic URLs.
type fakeAvatars struct {
	presignErr error
	purged     []string
}

func (f *fakeAvatars) ResolveURL(ctx context.Context, key string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeAvatars) PresignUpload(ctx context.Context, filename, contentType string) (string, string, error) {
	if f.presignErr != nil {
		return "", "", f.presignErr
	}
	key := "avatars/test/" + filename
	return key, "https://uploads.example.com/" + key, nil
}

func (f *fakeAvatars) Purge(ctx context.Context, key string) error {
	f.purged = append(f.purged, key)
	return nil
}
