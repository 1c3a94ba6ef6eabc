package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aurafolio/internal/db"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAdminTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:admin-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

type categoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func categoryBinder() Binder[db.Category] {
	return BindJSON(func(req *categoryRequest, item *db.Category) error {
		if strings.TrimSpace(req.Name) == "" {
			return Invalid("分类名称不能为空")
		}
		item.Name = strings.TrimSpace(req.Name)
		item.Slug = req.Slug
		item.Description = req.Description
		return nil
	})
}

func newCategoryRouter(gdb *gorm.DB, changes *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	res := NewResource(gdb, Config[db.Category]{
		Name:          "分类",
		Section:       "blog",
		SectionLabel:  "博客",
		Path:          "categories",
		SearchColumns: []string{"name", "description"},
		Order:         "name asc",
		OnChange: func(context.Context) {
			*changes++
		},
	})
	router := gin.New()
	Register(router.Group("/api/admin"), NewHandlers(res, categoryBinder()))
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCategoryCRUDThroughHandlers(t *testing.T) {
	gdb := setupAdminTestDB(t)
	changes := 0
	router := newCategoryRouter(gdb, &changes)

	w := doJSON(t, router, http.MethodPost, "/api/admin/blog/categories", categoryRequest{Name: "Distributed Systems"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Message string
		Item    db.Category
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Item.Slug != "distributed-systems" {
		t.Fatalf("expected generated slug, got %q", created.Item.Slug)
	}
	if created.Message != "分类「Distributed Systems」已创建" {
		t.Fatalf("unexpected message %q", created.Message)
	}

	w = doJSON(t, router, http.MethodPost, "/api/admin/blog/categories", categoryRequest{Name: "Other", Slug: "distributed-systems"})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "分类已存在") {
		t.Fatalf("expected duplicate rejection, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/admin/blog/categories", categoryRequest{Name: "  "})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "分类名称不能为空") {
		t.Fatalf("expected validation error, got %d: %s", w.Code, w.Body.String())
	}

	path := fmt.Sprintf("/api/admin/blog/categories/%d", created.Item.ID)
	w = doJSON(t, router, http.MethodPut, path, categoryRequest{Name: "Distributed Systems", Description: "consensus and queues"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, path, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "consensus and queues") {
		t.Fatalf("unexpected detail response %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodDelete, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d: %s", w.Code, w.Body.String())
	}
	var remaining int64
	gdb.Unscoped().Model(&db.Category{}).Count(&remaining)
	if remaining != 0 {
		t.Fatalf("expected hard delete, %d rows remain", remaining)
	}

	w = doJSON(t, router, http.MethodGet, path, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}

	if changes != 3 {
		t.Fatalf("expected 3 change notifications, got %d", changes)
	}
}

func TestListSearchIsCaseInsensitiveAcrossColumns(t *testing.T) {
	gdb := setupAdminTestDB(t)
	res := NewResource(gdb, Config[db.Category]{
		Name:          "分类",
		Path:          "categories",
		SearchColumns: []string{"name", "description"},
		Order:         "name asc",
		PerPage:       2,
	})

	ctx := context.Background()
	for _, c := range []db.Category{
		{Name: "Go", Description: "Backend services"},
		{Name: "Rust", Description: "systems programming"},
		{Name: "Kubernetes", Description: "Orchestration"},
		{Name: "Backend Patterns"},
	} {
		item := c
		if err := res.Create(ctx, &item, 0); err != nil {
			t.Fatalf("create %s: %v", c.Name, err)
		}
	}

	page, err := res.List(ctx, ListParams{Search: "BACKEND"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", page.Total)
	}

	page, err = res.List(ctx, ListParams{Page: 2})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if page.TotalPages != 2 || len(page.Items) != 2 || !page.HasPrev() || page.HasNext() {
		t.Fatalf("unexpected pagination %+v", page)
	}
	if page.Items[0].Name != "Kubernetes" {
		t.Fatalf("expected ordering by name, got %q", page.Items[0].Name)
	}
}

func TestListFiltersByStatusColumn(t *testing.T) {
	gdb := setupAdminTestDB(t)
	res := NewResource(gdb, Config[db.Post]{Name: "文章", Path: "posts", StatusColumn: "status"})

	ctx := context.Background()
	for _, p := range []db.Post{
		{Title: "One", Status: db.PostStatusPublished},
		{Title: "Two"},
		{Title: "Three", Status: db.PostStatusPublished},
	} {
		item := p
		if err := res.Create(ctx, &item, 1); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := res.List(ctx, ListParams{Status: db.PostStatusPublished})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 published posts, got %d", page.Total)
	}
}

func TestListCapsPerPage(t *testing.T) {
	gdb := setupAdminTestDB(t)
	res := NewResource(gdb, Config[db.Category]{Name: "分类", Path: "categories"})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		item := db.Category{Name: fmt.Sprintf("Category %d", i)}
		if err := res.Create(ctx, &item, 1); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := res.List(ctx, ListParams{PerPage: 1 << 40})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.PerPage != maxPerPage {
		t.Fatalf("expected per page capped at %d, got %d", maxPerPage, page.PerPage)
	}
	if len(page.Items) != 3 || page.TotalPages != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	changes := 0
	router := newCategoryRouter(gdb, &changes)
	rr := doJSON(t, router, http.MethodGet, "/api/admin/blog/categories?per_page=1099511627776", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for oversized per_page, got %d", rr.Code)
	}
}

func TestCreateAssignsAuthorOnlyWhenMissing(t *testing.T) {
	gdb := setupAdminTestDB(t)
	res := NewResource(gdb, Config[db.Post]{Name: "文章", Path: "posts"})
	ctx := context.Background()

	post := db.Post{Title: "Mine"}
	if err := res.Create(ctx, &post, 7); err != nil {
		t.Fatalf("create: %v", err)
	}
	if post.AuthorID != 7 {
		t.Fatalf("expected author 7, got %d", post.AuthorID)
	}

	other := db.Post{Title: "Theirs", AuthorID: 3}
	if err := res.Create(ctx, &other, 7); err != nil {
		t.Fatalf("create: %v", err)
	}
	if other.AuthorID != 3 {
		t.Fatalf("explicit author should be kept, got %d", other.AuthorID)
	}
}

func TestDeleteRemovesJoinRowsAndRunsHook(t *testing.T) {
	gdb := setupAdminTestDB(t)
	ctx := context.Background()

	tag := db.Tag{Name: "observability"}
	if err := gdb.Create(&tag).Error; err != nil {
		t.Fatalf("create tag: %v", err)
	}
	post := db.Post{Title: "Tracing", Tags: []db.Tag{tag}}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}

	hookRan := false
	res := NewResource(gdb, Config[db.Tag]{
		Name: "标签",
		Path: "tags",
		BeforeDelete: func(tx *gorm.DB, item *db.Tag) error {
			hookRan = item.ID == tag.ID
			return nil
		},
	})
	if _, err := res.Delete(ctx, tag.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	if !hookRan {
		t.Fatalf("expected before-delete hook to run")
	}

	var links int64
	gdb.Table("post_tags").Where("tag_id = ?", tag.ID).Count(&links)
	if links != 0 {
		t.Fatalf("expected join rows removed, %d remain", links)
	}
	var posts int64
	gdb.Model(&db.Post{}).Count(&posts)
	if posts != 1 {
		t.Fatalf("post should survive tag deletion")
	}

	if _, err := res.Delete(ctx, tag.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBreadcrumbs(t *testing.T) {
	res := NewResource[db.Category](nil, Config[db.Category]{
		Name:         "分类",
		Plural:       "分类",
		Section:      "blog",
		SectionLabel: "博客",
		Path:         "categories",
	})

	list := res.Breadcrumbs("", nil)
	if len(list) != 3 || list[2].URL != "" || list[1].URL != "/admin/blog" {
		t.Fatalf("unexpected list breadcrumbs %+v", list)
	}

	item := &db.Category{Name: "Go"}
	detail := res.Breadcrumbs("", item)
	if len(detail) != 4 || detail[3].Label != "Go" || detail[2].URL != "/admin/blog/categories" {
		t.Fatalf("unexpected detail breadcrumbs %+v", detail)
	}

	add := res.Breadcrumbs("新增", nil)
	if add[len(add)-1].Label != "新增" {
		t.Fatalf("unexpected add breadcrumbs %+v", add)
	}
}
