package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/wheelsdeals/tireshop/internal/config"
	"github.com/wheelsdeals/tireshop/internal/db"
	"github.com/wheelsdeals/tireshop/internal/models"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func mustSave(t *testing.T, gdb *gorm.DB, email, password, role string) *models.Staff {
	t.Helper()
	s, err := SaveStaff(context.Background(), gdb, StaffOpts{Email: email, Name: "Test", Password: password, Role: role})
	if err != nil {
		t.Fatalf("SaveStaff: %v", err)
	}
	return s
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		s    *Session
		want bool
	}{
		{nil, false},
		{&Session{Role: models.RoleStaff}, false},
		{&Session{Role: models.RoleAdmin}, true},
		{&Session{Role: "ADMIN"}, false},
	}
	for _, tt := range tests {
		if got := IsAdmin(tt.s); got != tt.want {
			t.Errorf("IsAdmin(%+v) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("err = %v, want ErrPasswordTooShort", err)
	}
	h1, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, _ := HashPassword("secret1")
	if h1 == h2 {
		t.Error("hashes should be salted")
	}
}

func TestSaveStaff_CreateAndUpdate(t *testing.T) {
	gdb := openTestDB(t)
	first := mustSave(t, gdb, "  Boss@Example.com ", "secret1", models.RoleAdmin)
	if first.Email != "boss@example.com" || first.Role != models.RoleAdmin || !first.Active {
		t.Errorf("created = %+v", first)
	}

	second := mustSave(t, gdb, "boss@example.com", "secret2", models.RoleStaff)
	if second.ID != first.ID {
		t.Errorf("update should keep ID: %s != %s", second.ID, first.ID)
	}
	if second.Role != models.RoleStaff {
		t.Errorf("role = %q", second.Role)
	}

	all, err := ListStaff(context.Background(), gdb)
	if err != nil {
		t.Fatalf("ListStaff: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("staff = %d, want 1", len(all))
	}
	if _, err := Authenticate(context.Background(), gdb, "boss@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password should no longer work")
	}
}

func TestSaveStaff_Validation(t *testing.T) {
	gdb := openTestDB(t)
	if _, err := SaveStaff(context.Background(), gdb, StaffOpts{Password: "secret1"}); err == nil {
		t.Error("expected error for missing email")
	}
	if _, err := SaveStaff(context.Background(), gdb, StaffOpts{Email: "a@b.c", Password: "secret1", Role: "owner"}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("err = %v, want ErrInvalidRole", err)
	}
	if _, err := SaveStaff(context.Background(), gdb, StaffOpts{Email: "a@b.c", Password: "x"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("err = %v, want ErrPasswordTooShort", err)
	}
}

func TestAuthenticate(t *testing.T) {
	gdb := openTestDB(t)
	mustSave(t, gdb, "boss@example.com", "secret1", models.RoleAdmin)

	staff, err := Authenticate(context.Background(), gdb, "BOSS@example.com", "secret1")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if staff.LastLoginAt == nil {
		t.Error("last login should be recorded")
	}

	for _, tc := range []struct{ email, pw string }{
		{"boss@example.com", "wrong-pass"},
		{"nobody@example.com", "secret1"},
	} {
		if _, err := Authenticate(context.Background(), gdb, tc.email, tc.pw); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q) err = %v, want ErrInvalidCredentials", tc.email, err)
		}
	}

	gdb.Model(&models.Staff{}).Where("email = ?", "boss@example.com").Update("active", false)
	if _, err := Authenticate(context.Background(), gdb, "boss@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("inactive staff err = %v, want ErrInvalidCredentials", err)
	}
}

// newRouter wires a login endpoint and an admin-only endpoint for cookie tests.
func newRouter(m *Manager, gdb *gorm.DB) *gin.Engine {
	r := gin.New()
	r.POST("/login/:email", func(c *gin.Context) {
		staff, err := Authenticate(c.Request.Context(), gdb, c.Param("email"), "secret1")
		if err != nil {
			c.Status(http.StatusUnauthorized)
			return
		}
		if err := m.Login(c.Writer, c.Request, staff); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.POST("/logout", func(c *gin.Context) {
		m.Logout(c.Writer, c.Request)
		c.Status(http.StatusNoContent)
	})
	admin := r.Group("/admin", m.RequireAdmin())
	admin.GET("/me", func(c *gin.Context) {
		sess, _ := FromContext(c)
		c.JSON(http.StatusOK, sess)
	})
	return r
}

func login(t *testing.T, r *gin.Engine, email string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login/"+email, nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("login %s: status %d", email, w.Code)
	}
	return w.Result().Cookies()
}

func get(r *gin.Engine, path, accept string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAdmin(t *testing.T) {
	gdb := openTestDB(t)
	mustSave(t, gdb, "boss@example.com", "secret1", models.RoleAdmin)
	mustSave(t, gdb, "tech@example.com", "secret1", models.RoleStaff)
	m := NewManager(NewCookieStore("test-secret-0123456789", false), gdb)
	r := newRouter(m, gdb)

	t.Run("no session json", func(t *testing.T) {
		w := get(r, "/admin/me", "application/json", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
	t.Run("no session browser", func(t *testing.T) {
		w := get(r, "/admin/me", "text/html,application/xhtml+xml", nil)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
			t.Errorf("status = %d location = %q", w.Code, w.Header().Get("Location"))
		}
	})
	t.Run("staff role", func(t *testing.T) {
		cookies := login(t, r, "tech@example.com")
		if w := get(r, "/admin/me", "", cookies); w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
		w := get(r, "/admin/me", "text/html", cookies)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
			t.Errorf("browser status = %d location = %q", w.Code, w.Header().Get("Location"))
		}
	})
	t.Run("admin", func(t *testing.T) {
		cookies := login(t, r, "boss@example.com")
		w := get(r, "/admin/me", "", cookies)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if body := w.Body.String(); !strings.Contains(body, `"email":"boss@example.com"`) || !strings.Contains(body, `"role":"admin"`) {
			t.Errorf("body = %s", body)
		}
	})
	t.Run("revoked admin", func(t *testing.T) {
		cookies := login(t, r, "boss@example.com")
		gdb.Model(&models.Staff{}).Where("email = ?", "boss@example.com").Update("role", models.RoleStaff)
		defer gdb.Model(&models.Staff{}).Where("email = ?", "boss@example.com").Update("role", models.RoleAdmin)
		if w := get(r, "/admin/me", "", cookies); w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403 after demotion", w.Code)
		}
	})
	t.Run("tampered cookie", func(t *testing.T) {
		cookies := login(t, r, "boss@example.com")
		cookies[0].Value = cookies[0].Value[:len(cookies[0].Value)-4] + "AAAA"
		if w := get(r, "/admin/me", "", cookies); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestLogout(t *testing.T) {
	gdb := openTestDB(t)
	mustSave(t, gdb, "boss@example.com", "secret1", models.RoleAdmin)
	m := NewManager(NewCookieStore("test-secret-0123456789", false), gdb)
	r := newRouter(m, gdb)

	cookies := login(t, r, "boss@example.com")
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	cleared := w.Result().Cookies()
	if len(cleared) == 0 || cleared[0].MaxAge >= 0 {
		t.Fatalf("logout should expire the cookie, got %+v", cleared)
	}
	if w := get(r, "/admin/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("status after logout = %d", w.Code)
	}
}
