package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/db"
	"github.com/stretchr/testify/require"
)

// memSessionStore 測試用 session store, failSet 可模擬寫入失敗
type memSessionStore struct {
	mu      sync.Mutex
	data    map[string]map[string][]byte
	failSet bool
	failDel bool
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{data: map[string]map[string][]byte{}}
}

func (m *memSessionStore) Get(_ context.Context, sessionID, field string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[sessionID][field]
	return v, ok, nil
}

func (m *memSessionStore) Set(_ context.Context, sessionID, field string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("session store unavailable")
	}
	if m.data[sessionID] == nil {
		m.data[sessionID] = map[string][]byte{}
	}
	m.data[sessionID][field] = append([]byte(nil), value...)
	return nil
}

func (m *memSessionStore) Delete(_ context.Context, sessionID, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel {
		return errors.New("session store unavailable")
	}
	delete(m.data[sessionID], field)
	return nil
}

// memBlobStore 記錄上傳與刪除的物件
type memBlobStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	deleted  []string
	failPut  bool
	putCount int
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: map[string][]byte{}}
}

func (m *memBlobStore) Put(_ context.Context, path string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCount++
	if m.failPut {
		return errors.New("blob store unavailable")
	}
	m.objects[path] = data
	return nil
}

func (m *memBlobStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	m.deleted = append(m.deleted, path)
	return nil
}

// recordingPublisher 記錄發出的 listing 事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ListingEvent
}

func (p *recordingPublisher) PublishListingEvent(_ context.Context, evt model.ListingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []model.ListingEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.ListingEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestStore(t *testing.T) *db.UnifiedDBImpl {
	conn, err := db.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := conn.DB()
		sqlDB.Close()
	})
	return db.NewUnifiedDB(conn)
}

func seedCategory(t *testing.T, store db.ICatalogRepository, name string) *model.Category {
	c := &model.Category{Name: name}
	require.NoError(t, store.CreateCategory(context.Background(), c))
	return c
}

func seedListing(t *testing.T, store db.ICatalogRepository, name string, price int64, categoryID, ownerID uint, status model.ListingStatus) *model.Listing {
	l := &model.Listing{
		Name:        name,
		Price:       price,
		Description: name + " description",
		CategoryID:  categoryID,
		OwnerID:     ownerID,
		Status:      status,
		Images:      []model.Image{{Path: "listings/" + name + ".jpg"}},
	}
	require.NoError(t, store.CreateListing(context.Background(), l))
	return l
}

func seedUser(t *testing.T, store db.IUserRepository, id uint, staff bool) *model.User {
	u := &model.User{ID: id, Username: "user" + string(rune('a'+id)), Email: "u@example.com", IsStaff: staff}
	require.NoError(t, store.UpsertUser(context.Background(), u))
	return u
}
