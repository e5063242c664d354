package repository

import (
	"cms-go/internal/model"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接都是独立的数据库
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

func uintPtr(v uint) *uint { return &v }

func TestMenuRepositorySiblingsAndMaxSortOrder(t *testing.T) {
	repo := NewMenuRepository(newTestDB(t))

	last, err := repo.MaxSortOrder(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, last)

	root := &model.Menu{Name: "root", Type: model.MenuTypeFolder, Visible: true, SortOrder: 1}
	require.NoError(t, repo.Create(root))
	for i, name := range []string{"b", "a"} {
		require.NoError(t, repo.Create(&model.Menu{
			Name: name, Type: model.MenuTypeFolder, Visible: true,
			ParentID: uintPtr(root.ID), SortOrder: 2 - i,
		}))
	}

	last, err = repo.MaxSortOrder(uintPtr(root.ID))
	require.NoError(t, err)
	assert.Equal(t, 2, last)

	siblings, err := repo.FindSiblings(uintPtr(root.ID))
	require.NoError(t, err)
	require.Len(t, siblings, 2)
	assert.Equal(t, "a", siblings[0].Name)
	assert.Equal(t, "b", siblings[1].Name)

	roots, err := repo.FindSiblings(nil)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	children, err := repo.CountChildren(root.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, children)
}

func TestMenuRepositoryCountByTarget(t *testing.T) {
	repo := NewMenuRepository(newTestDB(t))

	require.NoError(t, repo.Create(&model.Menu{Name: "board", Type: model.MenuTypeBoard, TargetID: uintPtr(7), Visible: true, SortOrder: 1}))
	require.NoError(t, repo.Create(&model.Menu{Name: "hidden board", Type: model.MenuTypeBoard, TargetID: uintPtr(7), Visible: false, SortOrder: 2}))
	require.NoError(t, repo.Create(&model.Menu{Name: "page", Type: model.MenuTypeContent, TargetID: uintPtr(7), Visible: true, SortOrder: 3}))

	boards, err := repo.CountByTarget(model.MenuTypeBoard, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 2, boards)

	pages, err := repo.CountByTarget(model.MenuTypeContent, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pages)

	none, err := repo.CountByTarget(model.MenuTypeBoard, 8)
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestMenuRepositoryFindVisibleAndUpdatePosition(t *testing.T) {
	repo := NewMenuRepository(newTestDB(t))

	shown := &model.Menu{Name: "shown", Type: model.MenuTypeFolder, Visible: true, SortOrder: 1}
	hidden := &model.Menu{Name: "hidden", Type: model.MenuTypeFolder, Visible: false, SortOrder: 2}
	require.NoError(t, repo.Create(shown))
	require.NoError(t, repo.Create(hidden))

	visible, err := repo.FindVisible()
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "shown", visible[0].Name)

	require.NoError(t, repo.UpdatePosition(hidden.ID, uintPtr(shown.ID), 1))
	got, err := repo.FindByID(hidden.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, shown.ID, *got.ParentID)
	assert.Equal(t, 1, got.SortOrder)

	require.NoError(t, repo.UpdatePosition(hidden.ID, nil, 5))
	got, err = repo.FindByID(hidden.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, 5, got.SortOrder)
}

func TestMenuRepositoryTransactionRollsBack(t *testing.T) {
	repo := NewMenuRepository(newTestDB(t))

	err := repo.Transaction(func(tx MenuRepository) error {
		if err := tx.Create(&model.Menu{Name: "temp", Type: model.MenuTypeFolder, Visible: true, SortOrder: 1}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	all, err := repo.FindAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTemplateRepositoryVersions(t *testing.T) {
	repo := NewTemplateRepository(newTestDB(t))

	tpl := &model.Template{Name: "home", Type: model.TemplateTypePage, Layout: model.Layout{}}
	require.NoError(t, repo.Create(tpl))

	latest, err := repo.MaxVersion(tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, latest)

	layout := model.Layout{{ID: "hero", X: 0, Y: 0, W: 12, H: 2, Widget: model.Widget{Type: "markdown"}}}
	for v := 1; v <= 2; v++ {
		require.NoError(t, repo.CreateVersion(&model.TemplateVersion{
			TemplateID: tpl.ID, Version: v, Layout: layout, ChangeType: model.ChangeTypeUpdate,
		}))
	}
	// (template_id, version) 唯一
	err = repo.CreateVersion(&model.TemplateVersion{TemplateID: tpl.ID, Version: 2, Layout: layout})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	latest, err = repo.MaxVersion(tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest)

	versions, err := repo.FindVersions(tpl.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, "hero", versions[1].Layout[0].ID)

	require.NoError(t, repo.Transaction(func(tx TemplateRepository) error {
		return tx.Delete(tpl.ID)
	}))
	versions, err = repo.FindVersions(tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestBoardRepositoryPostsAndViews(t *testing.T) {
	repo := NewBoardRepository(newTestDB(t))

	board := &model.Board{Name: "News", Slug: "news"}
	require.NoError(t, repo.Create(board))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreatePost(&model.Post{BoardID: board.ID, Title: "post"}))
	}

	posts, total, err := repo.FindPostsByBoard(board.ID, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, posts, 2)

	require.NoError(t, repo.IncrementViews(posts[0].ID))
	require.NoError(t, repo.IncrementViews(posts[0].ID))
	post, err := repo.FindPostByID(posts[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, post.Views)

	ids, err := repo.FindPostIDsByBoard(board.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	require.NoError(t, repo.Delete(board.ID))
	_, total, err = repo.FindPostsByBoard(board.ID, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUserRepositoryPaginationAndRoles(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	for _, u := range []model.User{
		{Username: "alice", Password: "x", Role: model.RoleAdmin},
		{Username: "bob", Password: "x", Role: model.RoleUser},
		{Username: "carol", Password: "x", Role: model.RoleUser},
	} {
		u := u
		require.NoError(t, repo.Create(&u))
	}

	users, total, err := repo.FindWithPagination(2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0].Username)

	admins, err := repo.CountByRole(model.RoleAdmin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, admins)

	_, err = repo.FindByUsername("nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
