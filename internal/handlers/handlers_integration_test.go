package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"miromiro/internal/handlers"
	"miromiro/internal/identity"
	"miromiro/internal/mail"
	"miromiro/internal/middleware"
	"miromiro/internal/models"
	"miromiro/internal/repositories"
	"miromiro/internal/services"
	"miromiro/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingMailer collects dispatched messages instead of publishing them.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	fail bool
}

func (m *recordingMailer) Send(msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("mail transport down")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	recipients := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		recipients = append(recipients, msg.To)
	}
	return recipients
}

func (m *recordingMailer) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

type testEnv struct {
	db           *gorm.DB
	mailer       *recordingMailer
	waitlistRepo repositories.WaitlistRepository
	profileRepo  repositories.ProfileRepository
}

var dbCounter int64

// setupApp builds the full Fiber app over an in-memory SQLite database, a
// temp-dir object store, and a recording mailer.
func setupApp(t *testing.T) (*fiber.App, *testEnv) {
	t.Helper()

	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Profile{}, &models.WaitlistEntry{}))

	mailer := &recordingMailer{}

	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	userRepo := repositories.NewGORMUserRepository(db)
	profileRepo := repositories.NewGORMProfileRepository(db)
	waitlistRepo := repositories.NewGORMWaitlistRepository(db)

	provider := identity.NewLocalProvider(userRepo, mailer, jwtSecret)
	authService := services.NewAuthService(provider, waitlistRepo, profileRepo)
	profileService := services.NewProfileService(profileRepo, provider, store)
	waitlistService := services.NewWaitlistService(waitlistRepo, mailer, "ops@example.com")

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	sessionRequired := middleware.SessionRequired(provider)

	api := app.Group("/api")
	handlers.NewAuthHandler(authService, profileService).RegisterRoutes(api, sessionRequired)
	handlers.NewProfileHandler(profileService).RegisterRoutes(api, sessionRequired)
	handlers.NewWaitlistHandler(waitlistService).RegisterRoutes(api)
	handlers.NewSetupHandler(profileService).RegisterRoutes(api, sessionRequired)
	handlers.NewMailHandler(mailer, "john@doe.com").RegisterRoutes(api)

	return app, &testEnv{
		db:           db,
		mailer:       mailer,
		waitlistRepo: waitlistRepo,
		profileRepo:  profileRepo,
	}
}

// postJSON performs a JSON request against the app, optionally with a Bearer
// session token, and decodes the response body.
func postJSON(t *testing.T, app *fiber.App, path string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(http.MethodPost, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	resp.Body.Close()
	return resp, decoded
}

// signupAndLogin registers an account and returns its session token and id.
func signupAndLogin(t *testing.T, app *fiber.App, email, password string) (string, string) {
	t.Helper()

	resp, body := postJSON(t, app, "/api/auth/signup", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "signup failed: %v", body)
	userID := body["user"].(map[string]any)["id"].(string)

	resp, body = postJSON(t, app, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "login failed: %v", body)
	return body["token"].(string), userID
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func TestSignupWithWaitlistDiscount(t *testing.T) {
	app, env := setupApp(t)

	// Pre-register the email on the waitlist.
	require.NoError(t, env.waitlistRepo.Create(&models.WaitlistEntry{Email: "a@b.com"}))

	resp, body := postJSON(t, app, "/api/auth/signup", map[string]string{
		"email":    "a@b.com",
		"password": "longenough",
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "a@b.com", user["email"])
	assert.Equal(t, true, user["has_waitlist_discount"])
	assert.Equal(t, float64(20), user["discount_percentage"])

	// Confirmation email went out and the profile row was provisioned with
	// the discount flags.
	assert.Contains(t, env.mailer.sentTo(), "a@b.com")
	profile, err := env.profileRepo.GetByID(user["id"].(string))
	require.NoError(t, err)
	assert.True(t, profile.HasWaitlistDiscount)
	assert.Equal(t, 20, profile.DiscountPercentage)
	assert.Equal(t, "free", profile.Plan)
}

func TestSignupValidation(t *testing.T) {
	app, _ := setupApp(t)

	resp, body := postJSON(t, app, "/api/auth/signup", map[string]string{
		"email": "a@b.com",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email and password are required", body["statusMessage"])

	resp, body = postJSON(t, app, "/api/auth/signup", map[string]string{
		"email":    "a@b.com",
		"password": "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Password must be at least 8 characters", body["statusMessage"])

	resp, body = postJSON(t, app, "/api/auth/signup", map[string]string{
		"email":    "not-an-email",
		"password": "longenough",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid email address", body["statusMessage"])
}

func TestSignupDuplicateEmail(t *testing.T) {
	app, _ := setupApp(t)

	resp, _ := postJSON(t, app, "/api/auth/signup", map[string]string{
		"email":    "dup@b.com",
		"password": "longenough",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, app, "/api/auth/signup", map[string]string{
		"email":    "DUP@b.com",
		"password": "longenough",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["statusMessage"], "already registered")
}

func TestResendConfirmation(t *testing.T) {
	app, env := setupApp(t)

	resp, body := postJSON(t, app, "/api/auth/resend-confirmation", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email is required", body["statusMessage"])

	resp, body = postJSON(t, app, "/api/auth/resend-confirmation", map[string]string{
		"email": "ghost@b.com",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["statusMessage"], "user not found")

	_, _ = postJSON(t, app, "/api/auth/signup", map[string]string{
		"email":    "a@b.com",
		"password": "longenough",
	}, "")
	before := len(env.mailer.sentTo())

	resp, body = postJSON(t, app, "/api/auth/resend-confirmation", map[string]string{
		"email": " A@B.com ",
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Confirmation email resent successfully", body["message"])
	assert.Len(t, env.mailer.sentTo(), before+1)
}

func TestEnsureProfile(t *testing.T) {
	app, env := setupApp(t)

	// Without a session the endpoint is unreachable.
	resp, body := postJSON(t, app, "/api/auth/ensure-profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized - no user session", body["statusMessage"])

	token, userID := signupAndLogin(t, app, "a@b.com", "longenough")

	// Signup already provisioned the row, so the call is a no-op.
	resp, body = postJSON(t, app, "/api/auth/ensure-profile", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Profile already exists", body["message"])

	// Drop the row to exercise the creation path, then call twice: one
	// insert, same profile both times.
	require.NoError(t, env.db.Delete(&models.Profile{}, "id = ?", userID).Error)

	resp, body = postJSON(t, app, "/api/auth/ensure-profile", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Profile created successfully", body["message"])

	resp, body = postJSON(t, app, "/api/auth/ensure-profile", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Profile already exists", body["message"])

	var count int64
	require.NoError(t, env.db.Model(&models.Profile{}).Where("id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProfileUpdate(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := signupAndLogin(t, app, "a@b.com", "longenough")

	// No usable field is a 400.
	resp, body := postJSON(t, app, "/api/profile/update", map[string]string{}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "At least one field is required", body["statusMessage"])

	// Names are trimmed and full_name derived.
	resp, body = postJSON(t, app, "/api/profile/update", map[string]string{
		"first_name": " Ada ",
		"last_name":  " Lovelace ",
	}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	profile := body["profile"].(map[string]any)
	assert.Equal(t, "Ada", profile["first_name"])
	assert.Equal(t, "Lovelace", profile["last_name"])
	assert.Equal(t, "Ada Lovelace", profile["full_name"])
	firstStamp := profile["updated_at"].(string)

	// Supplying only one name reads the stored other half.
	resp, body = postJSON(t, app, "/api/profile/update", map[string]string{
		"last_name": "Byron",
	}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	profile = body["profile"].(map[string]any)
	assert.Equal(t, "Ada Byron", profile["full_name"])

	// Avatar-only update leaves the names untouched but stamps updated_at.
	resp, body = postJSON(t, app, "/api/profile/update", map[string]string{
		"avatar_url": "http://cdn/pic.png",
	}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	profile = body["profile"].(map[string]any)
	assert.Equal(t, "Ada", profile["first_name"])
	assert.Equal(t, "Byron", profile["last_name"])
	assert.Equal(t, "Ada Byron", profile["full_name"])
	assert.Equal(t, "http://cdn/pic.png", profile["avatar_url"])
	assert.NotEmpty(t, profile["updated_at"])
	assert.NotEqual(t, firstStamp, profile["updated_at"])

	// No session is a 401.
	resp, _ = postJSON(t, app, "/api/profile/update", map[string]string{"first_name": "X"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// multipartFile builds a multipart body holding a single file part with an
// explicit Content-Type.
func multipartFile(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func uploadAvatar(t *testing.T, app *fiber.App, token, filename, contentType string, data []byte) (*http.Response, map[string]any) {
	t.Helper()

	buf, formContentType := multipartFile(t, "file", filename, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/api/profile/upload-avatar", buf)
	req.Header.Set("Content-Type", formContentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	resp.Body.Close()
	return resp, decoded
}

func TestAvatarUpload(t *testing.T) {
	app, _ := setupApp(t)
	token, userID := signupAndLogin(t, app, "a@b.com", "longenough")

	// Provision the avatars bucket through the setup endpoint.
	resp, body := postJSON(t, app, "/api/setup/storage", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Storage bucket created successfully", body["message"])
	assert.Equal(t, "avatars", body["bucket"])

	// No session.
	resp, _ = uploadAvatar(t, app, "", "me.png", "image/png", []byte("png"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong MIME type.
	resp, body = uploadAvatar(t, app, token, "doc.pdf", "application/pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["statusMessage"], "Invalid file type")

	// Oversized file.
	resp, body = uploadAvatar(t, app, token, "big.jpg", "image/jpeg", bytes.Repeat([]byte{0xff}, 6*1024*1024))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["statusMessage"], "File too large")

	// Missing file.
	req := httptest.NewRequest(http.MethodPost, "/api/profile/upload-avatar", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rawResp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rawResp.StatusCode)
	rawResp.Body.Close()

	// Happy path.
	resp, body = uploadAvatar(t, app, token, "me.png", "image/png", []byte("png-bytes"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	avatarURL := body["avatar_url"].(string)
	assert.Contains(t, avatarURL, "/storage/avatars/"+userID+"/avatar-")
	assert.Contains(t, avatarURL, ".png")
	profile := body["profile"].(map[string]any)
	assert.Equal(t, avatarURL, profile["avatar_url"])

	// A second upload supersedes the first and stores a new URL.
	resp, body = uploadAvatar(t, app, token, "other.gif", "image/gif", []byte("gif-bytes"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	newURL := body["avatar_url"].(string)
	assert.NotEqual(t, avatarURL, newURL)
	assert.Contains(t, newURL, ".gif")
}

func TestStorageSetupIdempotent(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := signupAndLogin(t, app, "a@b.com", "longenough")

	resp, _ := postJSON(t, app, "/api/setup/storage", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := postJSON(t, app, "/api/setup/storage", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Storage bucket created successfully", body["message"])

	resp, body = postJSON(t, app, "/api/setup/storage", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Storage bucket already exists", body["message"])
}

func TestWaitlistFlow(t *testing.T) {
	app, env := setupApp(t)

	resp, body := postJSON(t, app, "/api/waitlist", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email is required", body["statusMessage"])

	resp, body = postJSON(t, app, "/api/waitlist", map[string]string{"email": " New@B.com "}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Successfully joined the waitlist", body["message"])

	// Welcome mail to the submitter, notification to the operator.
	recipients := env.mailer.sentTo()
	assert.Contains(t, recipients, "new@b.com")
	assert.Contains(t, recipients, "ops@example.com")
	mailCount := len(recipients)

	// Duplicate submission conflicts without inserting or sending.
	resp, body = postJSON(t, app, "/api/waitlist", map[string]string{"email": "NEW@b.com"}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "This email is already on the waitlist", body["statusMessage"])
	assert.Len(t, env.mailer.sentTo(), mailCount)

	var count int64
	require.NoError(t, env.db.Model(&models.WaitlistEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWaitlistMailFailureLeavesRow(t *testing.T) {
	app, env := setupApp(t)
	env.mailer.setFail(true)

	resp, body := postJSON(t, app, "/api/waitlist", map[string]string{"email": "a@b.com"}, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body["statusMessage"], "Failed to send email")

	// The row was committed before the send and is not rolled back.
	entry, err := env.waitlistRepo.GetByEmail("a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", entry.Email)
}

func TestSendEmailEndpoint(t *testing.T) {
	app, env := setupApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sendEmail", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	assert.Contains(t, env.mailer.sentTo(), "john@doe.com")
}
