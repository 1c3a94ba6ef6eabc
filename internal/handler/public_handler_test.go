package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aurafolio/internal/db"
)

func (env *testEnv) get(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestShowPostDetailRecordsViewsPerVisitor(t *testing.T) {
	env := setupTestAPI(t)
	post := env.createPost(t, db.Post{Title: "Hello World", Content: "# Heading\n\nbody", Status: db.PostStatusPublished})

	rr := env.get(t, "/datalogs/"+post.Slug)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `id="heading"`) {
		t.Fatalf("expected rendered heading anchor in body")
	}
	visitor := findCookie(rr, visitorCookieName)
	if visitor == nil || visitor.Value == "" {
		t.Fatalf("expected visitor cookie to be issued")
	}

	// 同一访客再次访问只增加 PV
	rr = env.get(t, "/datalogs/"+post.Slug, visitor)
	if findCookie(rr, visitorCookieName) != nil {
		t.Fatalf("expected existing visitor cookie to be reused")
	}
	env.get(t, "/datalogs/"+post.Slug)

	var stats db.PostStatistic
	if err := env.db.Where("post_id = ?", post.ID).First(&stats).Error; err != nil {
		t.Fatalf("expected statistics row: %v", err)
	}
	if stats.PageViews != 3 || stats.UniqueVisitors != 2 {
		t.Fatalf("expected 3 PV / 2 UV, got %d / %d", stats.PageViews, stats.UniqueVisitors)
	}

	rr = env.do(t, http.MethodGet, fmt.Sprintf("/admin/api/analytics?days=1&posts=%d,abc", post.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected analytics 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	perPost, _ := body["posts"].(map[string]any)
	entry, _ := perPost[fmt.Sprint(post.ID)].(map[string]any)
	if entry["pageViews"] != float64(3) || entry["uniqueVisitors"] != float64(2) {
		t.Fatalf("unexpected per-post analytics %v", body["posts"])
	}
	trend, _ := body["trend"].([]any)
	if len(trend) != 1 {
		t.Fatalf("expected one day of trend, got %v", body["trend"])
	}
}

func TestShowPostDetailHidesDrafts(t *testing.T) {
	env := setupTestAPI(t)
	post := env.createPost(t, db.Post{Title: "Secret Draft", Content: "wip"})

	rr := env.get(t, "/datalogs/"+post.Slug)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for draft, got %d", rr.Code)
	}

	var count int64
	env.db.Model(&db.PostStatistic{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no statistics for draft, got %d", count)
	}
}

func TestShowDataLogsSearchMatchesTagName(t *testing.T) {
	env := setupTestAPI(t)
	tag := db.Tag{Name: "Observability"}
	env.db.Create(&tag)

	tagged := env.createPost(t, db.Post{Title: "Tracing Notes", Content: "spans", Status: db.PostStatusPublished})
	env.db.Model(&tagged).Association("Tags").Append(&tag)
	env.createPost(t, db.Post{Title: "Unrelated Entry", Content: "other", Status: db.PostStatusPublished})

	rr := env.get(t, "/datalogs?search=observ")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Tracing Notes") {
		t.Fatalf("expected tagged post in search results")
	}
	if strings.Contains(body, "Unrelated Entry") {
		t.Fatalf("expected unrelated post to be filtered out")
	}
}

func TestShowCategoryAndTagLookups(t *testing.T) {
	env := setupTestAPI(t)
	category := db.Category{Name: "Infra"}
	env.db.Create(&category)
	env.createPost(t, db.Post{Title: "Rack Layout", Content: "cables", Status: db.PostStatusPublished, CategoryID: &category.ID})

	rr := env.get(t, "/datalogs/category/"+category.Slug)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Rack Layout") {
		t.Fatalf("expected category listing, got %d", rr.Code)
	}

	if rr := env.get(t, "/datalogs/category/missing"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", rr.Code)
	}
	if rr := env.get(t, "/datalogs/tag/missing"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown tag, got %d", rr.Code)
	}
}

func TestShowArchiveRedirectsOutOfRange(t *testing.T) {
	env := setupTestAPI(t)

	cases := map[string]int{
		"/datalogs/archive":         http.StatusOK,
		"/datalogs/archive/2025":    http.StatusOK,
		"/datalogs/archive/2025/6":  http.StatusOK,
		"/datalogs/archive/2025/7":  http.StatusFound,
		"/datalogs/archive/2023":    http.StatusFound,
		"/datalogs/archive/2024/13": http.StatusFound,
		"/datalogs/archive/abc":     http.StatusFound,
	}
	for path, want := range cases {
		rr := env.get(t, path)
		if rr.Code != want {
			t.Fatalf("GET %s: expected %d, got %d", path, want, rr.Code)
		}
		if want == http.StatusFound && rr.Header().Get("Location") != archivePath {
			t.Fatalf("GET %s: unexpected redirect %q", path, rr.Header().Get("Location"))
		}
	}
}

func TestShowSystemDetail(t *testing.T) {
	env := setupTestAPI(t)
	module := db.SystemModule{Title: "Edge Gateway", Description: "## Overview\n\nrouting", Status: db.SystemStatusDeployed}
	if err := env.db.Create(&module).Error; err != nil {
		t.Fatalf("failed to create system: %v", err)
	}

	rr := env.get(t, "/systems/"+module.Slug)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Edge Gateway") {
		t.Fatalf("expected system title in page")
	}

	if rr := env.get(t, "/systems/unknown"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown system, got %d", rr.Code)
	}
}
