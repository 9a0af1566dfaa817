package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

// ============================================================================
// In-memory реализации репозиториев для тестов обработчиков
// ============================================================================

type memStore struct {
	mu       sync.Mutex
	users    map[string]entity.User
	records  map[uint]entity.TestRecord
	images   []entity.ReportImage
	messages map[uint]entity.Message
	nextID   uint
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]entity.User{},
		records:  map[uint]entity.TestRecord{},
		messages: map[uint]entity.Message{},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

type memUserRepo struct{ s *memStore }

func (r memUserRepo) Upsert(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[user.ID]
	if ok && user.Nickname == "" {
		user.Nickname = existing.Nickname
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r memUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r memUserRepo) GetByIDs(ctx context.Context, ids []string) ([]entity.User, error) {
	var out []entity.User
	for _, id := range ids {
		if u, err := r.GetByID(ctx, id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r memUserRepo) UpdateNickname(ctx context.Context, id, nickname string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Nickname = nickname
	r.s.users[id] = u
	return nil
}

func (r memUserRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

type memRecordRepo struct{ s *memStore }

func (r memRecordRepo) SaveWithResults(ctx context.Context, user *entity.User, record *entity.TestRecord, results []entity.TestResult) error {
	if err := (memUserRepo{r.s}).Upsert(ctx, user); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	record.ID = r.s.id()
	r.s.records[record.ID] = *record
	return nil
}

func (r memRecordRepo) GetByID(ctx context.Context, id uint) (*entity.TestRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &rec, nil
}

func (r memRecordRepo) sorted(match func(entity.TestRecord) bool) []entity.TestRecord {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.TestRecord
	for _, rec := range r.s.records {
		if match(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memRecordRepo) GetLatest(ctx context.Context, userID string, testType entity.TestType) (*entity.TestRecord, error) {
	recs := r.sorted(func(rec entity.TestRecord) bool { return rec.UserID == userID && rec.TestType == testType })
	if len(recs) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &recs[0], nil
}

func page(recs []entity.TestRecord, limit, offset int) []entity.TestRecord {
	if offset >= len(recs) {
		return []entity.TestRecord{}
	}
	end := offset + limit
	if end > len(recs) {
		end = len(recs)
	}
	return recs[offset:end]
}

func (r memRecordRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]entity.TestRecord, int64, error) {
	recs := r.sorted(func(rec entity.TestRecord) bool { return rec.UserID == userID })
	return page(recs, limit, offset), int64(len(recs)), nil
}

func (r memRecordRepo) List(ctx context.Context, filter repository.RecordFilter, limit, offset int) ([]entity.TestRecord, int64, error) {
	recs, _ := r.ListAll(ctx, filter)
	return page(recs, limit, offset), int64(len(recs)), nil
}

func (r memRecordRepo) ListAll(ctx context.Context, filter repository.RecordFilter) ([]entity.TestRecord, error) {
	return r.sorted(func(rec entity.TestRecord) bool {
		return filter.TestType == "" || rec.TestType == filter.TestType
	}), nil
}

func (r memRecordRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.records[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.records, id)
	return nil
}

func (r memRecordRepo) CountByTestType(ctx context.Context) ([]repository.GroupCount, error) {
	return nil, nil
}

func (r memRecordRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, nil
}

func (r memRecordRepo) Newest(ctx context.Context) (*entity.TestRecord, error) {
	recs := r.sorted(func(entity.TestRecord) bool { return true })
	if len(recs) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &recs[0], nil
}

type memImageRepo struct{ s *memStore }

func (r memImageRepo) Create(ctx context.Context, image *entity.ReportImage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.images = append(r.s.images, *image)
	return nil
}

func (r memImageRepo) LatestForRecord(ctx context.Context, recordID uint) (*entity.ReportImage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.images) - 1; i >= 0; i-- {
		if r.s.images[i].RecordID == recordID {
			img := r.s.images[i]
			return &img, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

type memMessageRepo struct{ s *memStore }

func (r memMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	message.ID = r.s.id()
	r.s.messages[message.ID] = *message
	return nil
}

func (r memMessageRepo) GetByID(ctx context.Context, id uint) (*entity.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &m, nil
}

func (r memMessageRepo) List(ctx context.Context, limit, offset int) ([]entity.Message, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.Message, 0, len(r.s.messages))
	for _, m := range r.s.messages {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r memMessageRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.messages, id)
	return nil
}

type memReactionRepo struct {
	mu     sync.Mutex
	active map[string]entity.MessageReaction
}

func newMemReactionRepo() *memReactionRepo {
	return &memReactionRepo{active: map[string]entity.MessageReaction{}}
}

func (r *memReactionRepo) Toggle(ctx context.Context, reaction *entity.MessageReaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%d|%s|%s", reaction.MessageID, reaction.UserID, reaction.Emoji)
	if _, ok := r.active[key]; ok {
		delete(r.active, key)
		return false, nil
	}
	r.active[key] = *reaction
	return true, nil
}

func (r *memReactionRepo) CountsForMessages(ctx context.Context, messageIDs []uint) ([]entity.ReactionCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[uint]map[string]int64{}
	for _, re := range r.active {
		if counts[re.MessageID] == nil {
			counts[re.MessageID] = map[string]int64{}
		}
		counts[re.MessageID][re.Emoji]++
	}
	var out []entity.ReactionCount
	for _, id := range messageIDs {
		for emoji, n := range counts[id] {
			out = append(out, entity.ReactionCount{MessageID: id, Emoji: emoji, Count: n})
		}
	}
	return out, nil
}

type memAdminRepo struct {
	mu     sync.Mutex
	admins []entity.Admin
}

func (r *memAdminRepo) Create(ctx context.Context, admin *entity.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := admin.BeforeSave(nil); err != nil {
		return err
	}
	admin.ID = uint(len(r.admins) + 1)
	r.admins = append(r.admins, *admin)
	return nil
}

func (r *memAdminRepo) GetByID(ctx context.Context, id uint) (*entity.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memAdminRepo) GetByUsername(ctx context.Context, username string) (*entity.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Username == username {
			a := a
			return &a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memAdminRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.admins)), nil
}

type memInvalidTokenRepo struct {
	mu    sync.Mutex
	times map[uint]time.Time
}

func (r *memInvalidTokenRepo) AddInvalidToken(ctx context.Context, adminID uint, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times[adminID] = t
	return nil
}

func (r *memInvalidTokenRepo) IsTokenInvalid(ctx context.Context, adminID uint, issuedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.times[adminID]
	return ok && !issuedAt.After(inv), nil
}

func (r *memInvalidTokenRepo) CleanupOldInvalidTokens(ctx context.Context, cutoff time.Time) error {
	return nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *memCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return apperrors.ErrNotFound
	}
	return json.Unmarshal(data, dest)
}

func (c *memCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	_, exists := c.data[key]
	c.mu.Unlock()
	if exists {
		return false, nil
	}
	return true, c.SetJSON(ctx, key, value, expiration)
}

func (c *memCache) Ping(ctx context.Context) error {
	return nil
}
