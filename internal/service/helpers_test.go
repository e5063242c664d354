package service

import (
	"cms-go/internal/model"
	"cms-go/pkg/events"
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Menu{},
		&model.Board{},
		&model.Post{},
		&model.Content{},
		&model.Template{},
		&model.TemplateVersion{},
		&model.Media{},
	))
	return db
}

// fakeMenuCache 是内存中的 MenuCache，按代保存菜单树并记录调用次数。
type fakeMenuCache struct {
	mu          sync.Mutex
	gen         int64
	trees       map[int64][]*model.Menu
	sets        int
	invalidates int
	// beforeSet 在回填前调用，用来模拟读写交错
	beforeSet func()
}

func (c *fakeMenuCache) Get(ctx context.Context) ([]*model.Menu, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tree, ok := c.trees[c.gen]
	return tree, c.gen, ok, nil
}

func (c *fakeMenuCache) Set(ctx context.Context, gen int64, tree []*model.Menu) error {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.trees == nil {
		c.trees = make(map[int64][]*model.Menu)
	}
	c.trees[gen] = tree
	c.sets++
	return nil
}

func (c *fakeMenuCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.trees, c.gen)
	c.gen++
	c.invalidates++
	return nil
}

// recordingPublisher 记录所有投递的索引事件。
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.IndexEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.IndexEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) recorded() []events.IndexEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.IndexEvent(nil), p.events...)
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }
