package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/config"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/routes"
	"github.com/vnkhanh/prince-music-backend/services"
	"github.com/vnkhanh/prince-music-backend/store"
	"github.com/vnkhanh/prince-music-backend/utils"
	"github.com/vnkhanh/prince-music-backend/ws"
)

const strongPassword = "Tun3!Mix9q"

type fakeMailer struct {
	mu   sync.Mutex
	sent []services.Message
}

func (m *fakeMailer) Send(_ context.Context, msg services.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []services.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]services.Message(nil), m.sent...)
}

type fakeUploader struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (u *fakeUploader) Upload(_ context.Context, name, contentType string, r io.Reader, size int64) (*services.UploadedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.files[name] = data
	return &services.UploadedFile{
		URL:      "https://cdn.example.com/uploads/" + name,
		Filename: name,
		Size:     size,
		MimeType: contentType,
	}, nil
}

func (u *fakeUploader) Exists(_ context.Context, name string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.files[name]
	return ok, nil
}

const testServerKey = "SB-Mid-server-test"

type fakePayment struct {
	err error
}

func (p *fakePayment) VerifyNotification(orderID, statusCode, grossAmount, signature string) bool {
	return services.SignatureMatches(orderID, statusCode, grossAmount, testServerKey, signature)
}

func (p *fakePayment) CreateTransaction(_ context.Context, req services.PaymentRequest) (*services.PaymentSession, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &services.PaymentSession{Token: "snap-" + req.OrderID, RedirectURL: "https://pay.example.com/" + req.OrderID}, nil
}

type app struct {
	db     *gorm.DB
	svc    *services.Container
	mailer *fakeMailer
	files  *fakeUploader
	router *gin.Engine
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.RegisterValidators()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	tokens, err := services.NewTokenService(config.JWTConfig{
		Secret: "access-secret", Expire: time.Hour,
		RefreshSecret: "refresh-secret", RefreshExpire: 24 * time.Hour,
		Issuer: "prince-music-app", Audience: "prince-music-users",
	})
	require.NoError(t, err)

	a := &app{db: db, mailer: &fakeMailer{}, files: &fakeUploader{files: map[string][]byte{}}}
	a.svc = &services.Container{
		Config:   &config.Config{Env: "test", AppURL: "https://app.example.com"},
		DB:       db,
		Logger:   zap.NewNop(),
		Tokens:   tokens,
		Store:    store.NewMemoryStore(),
		Mailer:   a.mailer,
		Uploader: a.files,
		Hub:      ws.NewHub(),
	}
	a.router = routes.SetupRouter(gin.New(), a.svc, nil)
	t.Cleanup(a.svc.Wait)
	return a
}

type response struct {
	Code int
	Body map[string]interface{}
	Raw  *httptest.ResponseRecorder
}

// data returns the success envelope's data object.
func (r response) data() map[string]interface{} {
	d, _ := r.Body["data"].(map[string]interface{})
	return d
}

func (a *app) do(t *testing.T, method, path, token string, body interface{}) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := response{Code: w.Code, Raw: w}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out.Body), w.Body.String())
	}
	return out
}

// user creates an account directly and returns it with an access token.
func (a *app) user(t *testing.T, role models.UserRole, musicianID *uint) (*models.User, string) {
	t.Helper()
	hashed := "$2a$04$" + uuid.NewString()
	u := &models.User{
		Email:      uuid.NewString()[:8] + "@example.com",
		FirstName:  "Test",
		LastName:   "Player",
		Password:   hashed,
		Role:       role,
		IsActive:   true,
		MusicianID: musicianID,
	}
	require.NoError(t, a.db.Create(u).Error)
	tok, err := a.svc.Tokens.GenerateAccess(u.ID.String(), string(role))
	require.NoError(t, err)
	return u, tok
}

// musician creates a musician profile with a linked account.
func (a *app) musician(t *testing.T, id uint) (*models.Musician, *models.User, string) {
	t.Helper()
	u, tok := a.user(t, models.RoleMusician, &id)
	m := &models.Musician{
		MusicianID: id,
		UserID:     &u.ID,
		Profile:    models.Profile{Name: fmt.Sprintf("Musician %d", id), Mail: u.Email},
		IsActive:   true,
	}
	require.NoError(t, a.db.Create(m).Error)
	return m, u, tok
}

func (a *app) course(t *testing.T, m *models.Musician, title, category string, courseType models.CourseType, price float64) *models.Course {
	t.Helper()
	c := &models.Course{
		MusicianRef: m.ID,
		Title:       title,
		Description: "A course about " + title,
		CourseType:  courseType,
		Price:       price,
		Category:    category,
		IsActive:    true,
	}
	require.NoError(t, a.db.Create(c).Error)
	return c
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
