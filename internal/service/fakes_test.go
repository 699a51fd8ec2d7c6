package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/staffrep-bot/internal/domain"
	"github.com/spec-kit/staffrep-bot/internal/rolecache"
)

// staticProvider serves a fixed member/role layout to the role cache.
type staticProvider struct {
	members []*discordgo.Member
	roles   map[string]*discordgo.Role
}

func (p *staticProvider) FetchAllMembers(context.Context, string) ([]*discordgo.Member, error) {
	return p.members, nil
}

func (p *staticProvider) ResolveRole(_ context.Context, _ string, roleID string) (*discordgo.Role, error) {
	role, ok := p.roles[roleID]
	if !ok {
		return nil, errors.New("role not found")
	}
	return role, nil
}

// newStaffCache builds an initialized cache over the standard test hierarchy
// (Moderator rank 1 / Senior Moderator rank 2 / Admin rank 3) with the given
// user -> role ids layout.
func newStaffCache(t *testing.T, membership map[string][]string) *rolecache.Cache {
	t.Helper()

	hierarchy := []domain.StaffRole{
		{ID: "100", Name: "Moderator", Rank: 1},
		{ID: "200", Name: "Senior Moderator", Rank: 2},
		{ID: "300", Name: "Admin", Rank: 3},
	}
	provider := &staticProvider{
		roles: map[string]*discordgo.Role{
			"100": {ID: "100", Name: "Moderator"},
			"200": {ID: "200", Name: "Senior Moderator"},
			"300": {ID: "300", Name: "Admin"},
		},
	}
	for userID, roleIDs := range membership {
		provider.members = append(provider.members, &discordgo.Member{
			User:  &discordgo.User{ID: userID, Username: "user-" + userID},
			Roles: roleIDs,
		})
	}

	cache := rolecache.New(hierarchy, provider, rolecache.Options{}, zap.NewNop())
	cache.Initialize(context.Background(), "guild-1", false)
	return cache
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.StaffUser
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.StaffUser)}
}

func (r *fakeUserRepo) GetOrCreate(_ context.Context, id, username string) (*domain.StaffUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.Username = username
		clone := *user
		return &clone, nil
	}
	user := &domain.StaffUser{
		ID:        id,
		Username:  username,
		LOAStatus: domain.LOAStatusNone,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.users[id] = user
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.StaffUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) AddPoints(_ context.Context, id string, delta int) (*domain.StaffUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Points += delta
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) SetLOAStatus(_ context.Context, id string, status domain.LOAStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.LOAStatus = status
	return nil
}

func (r *fakeUserRepo) TopByPoints(_ context.Context, limit int) ([]domain.StaffUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.StaffUser, 0, len(r.users))
	for _, user := range r.users {
		all = append(all, *user)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		return all[i].Username < all[j].Username
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.PointEntry
}

func (r *fakeHistoryRepo) Record(_ context.Context, entry *domain.PointEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = int64(len(r.entries) + 1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByUser(_ context.Context, userID string, limit int) ([]domain.PointEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PointEntry
	for i := len(r.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

type fakeLeaveRepo struct {
	mu   sync.Mutex
	reqs map[string]*domain.LeaveRequest
}

func newFakeLeaveRepo() *fakeLeaveRepo {
	return &fakeLeaveRepo{reqs: make(map[string]*domain.LeaveRequest)}
}

func (r *fakeLeaveRepo) Create(_ context.Context, req *domain.LeaveRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()
	clone := *req
	r.reqs[req.ID] = &clone
	return nil
}

func (r *fakeLeaveRepo) GetByID(_ context.Context, id string) (*domain.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *req
	return &clone, nil
}

func (r *fakeLeaveRepo) UpdateStatus(_ context.Context, id string, status domain.LeaveStatus, reviewerID string) (*domain.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	req.Status = status
	req.ReviewerID = &reviewerID
	req.UpdatedAt = time.Now()
	clone := *req
	return &clone, nil
}

func (r *fakeLeaveRepo) ListPending(_ context.Context) ([]domain.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LeaveRequest
	for _, req := range r.reqs {
		if req.Status == domain.LeaveStatusPending {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type sentMessage struct {
	channelID string
	messageID string
	content   string
}

type fakeMessenger struct {
	mu     sync.Mutex
	sent   []sentMessage
	edited []sentMessage
	nextID int
	err    error
}

func (m *fakeMessenger) SendChannelMessage(channelID, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.nextID++
	id := fmt.Sprintf("msg-%d", m.nextID)
	m.sent = append(m.sent, sentMessage{channelID: channelID, messageID: id, content: content})
	return id, nil
}

func (m *fakeMessenger) EditChannelMessage(channelID, messageID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.edited = append(m.edited, sentMessage{channelID: channelID, messageID: messageID, content: content})
	return nil
}
