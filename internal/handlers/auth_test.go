package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/soundshare-api/internal/cascade"
	"github.com/yukikurage/soundshare-api/internal/constants"
	"github.com/yukikurage/soundshare-api/internal/database"
	"github.com/yukikurage/soundshare-api/internal/dto"
	"github.com/yukikurage/soundshare-api/internal/models"
	"github.com/yukikurage/soundshare-api/internal/notify"
	"github.com/yukikurage/soundshare-api/internal/repository"
	"github.com/yukikurage/soundshare-api/internal/services"
	"github.com/yukikurage/soundshare-api/internal/spam"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	t       *testing.T
	db      *gorm.DB
	checker *spam.Static

	authService *services.AuthService

	auth      *AuthHandler
	users     *UserHandler
	assets    *AssetHandler
	playlists *PlaylistHandler
	topics    *TopicHandler
	comments  *CommentHandler
	admin     *AdminHandler
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(database.AllModels()...))
	database.SetDB(db)

	log, _ := test.NewNullLogger()
	checker := &spam.Static{}
	guard := spam.NewGuard(spam.CheckerFunc(func(ctx context.Context, c spam.Candidate) (bool, error) {
		return checker.IsSpam(ctx, c)
	}), false, log)

	userRepo := repository.NewUserRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	playlistRepo := repository.NewPlaylistRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	listenRepo := repository.NewListenRepository(db)

	resolver := cascade.NewResolver(db, cascade.WithLogger(log), cascade.WithVerify(true))
	runner := services.NewCascadeRunner(resolver, 2, time.Millisecond, log)

	authService := services.NewAuthService(userRepo, guard, notify.Noop{}, nil, log)
	moderation := services.NewModerationService(userRepo, runner, guard, notify.Noop{}, false, log)
	playlistService := services.NewPlaylistService(playlistRepo, assetRepo, runner)

	return &testEnv{
		t:           t,
		db:          db,
		checker:     checker,
		authService: authService,
		auth:        NewAuthHandler(authService),
		users:       NewUserHandler(moderation, services.NewStatisticsService(userRepo, assetRepo), playlistService),
		assets:      NewAssetHandler(services.NewAssetService(assetRepo, userRepo, runner), services.NewListenService(listenRepo, assetRepo)),
		playlists:   NewPlaylistHandler(playlistService),
		topics:      NewTopicHandler(services.NewTopicService(topicRepo, userRepo, runner)),
		comments:    NewCommentHandler(services.NewCommentService(commentRepo, assetRepo, topicRepo, userRepo, guard, runner)),
		admin:       NewAdminHandler(moderation),
	}
}

// router returns an engine with cookie sessions. When as is non-zero every
// request is authenticated as that user.
func (env *testEnv) router(as uint64) *gin.Engine {
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	if as != 0 {
		r.Use(func(c *gin.Context) {
			c.Set(constants.ContextKeyUserID, as)
			c.Next()
		})
	}
	return r
}

func (env *testEnv) do(r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(env.t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:4242"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (env *testEnv) createUser(login string, moderator bool) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(env.t, err)

	now := time.Now()
	user := &models.User{
		Login:        login,
		Email:        login + "@example.com",
		PasswordHash: string(hash),
		IsModerator:  moderator,
		ActivatedAt:  &now,
	}
	require.NoError(env.t, env.db.Create(user).Error)
	return user
}

func (env *testEnv) createAsset(owner *models.User, title string) *models.Asset {
	asset := &models.Asset{UserID: owner.ID, Title: title, Published: true}
	require.NoError(env.t, repository.NewAssetRepository(env.db).Create(asset))
	return asset
}

func hasClearedSession(w *httptest.ResponseRecorder) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == constants.SessionCookieName && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func TestAuthHandler_Signup(t *testing.T) {
	env := setupTestEnv(t)

	r := env.router(0)
	r.POST("/api/auth/signup", env.auth.Signup)

	w := env.do(r, http.MethodPost, "/api/auth/signup", map[string]string{
		"login":    "newuser",
		"email":    "newuser@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.SignupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.User)
	require.Equal(t, "newuser", response.User.Login)

	w = env.do(r, http.MethodPost, "/api/auth/signup", map[string]string{
		"login":    "newuser",
		"email":    "another@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_SignupSpam(t *testing.T) {
	env := setupTestEnv(t)
	env.checker.Spam = true

	r := env.router(0)
	r.POST("/api/auth/signup", env.auth.Signup)

	w := env.do(r, http.MethodPost, "/api/auth/signup", map[string]string{
		"login":    "spammer",
		"email":    "spammer@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	require.True(t, hasClearedSession(w))

	var response dto.SignupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Nil(t, response.User)

	var stored models.User
	require.NoError(t, env.db.Unscoped().Where("login = ?", "spammer").First(&stored).Error)
	require.True(t, stored.IsSpam)
	require.True(t, stored.IsDeleted())
}

func TestAuthHandler_SignupHoneypot(t *testing.T) {
	env := setupTestEnv(t)

	r := env.router(0)
	r.POST("/api/auth/signup", env.auth.Signup)

	w := env.do(r, http.MethodPost, "/api/auth/signup", map[string]string{
		"login":    "robot",
		"email":    "robot@example.com",
		"password": "supersecret",
		"website":  "http://pills.example",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	require.NoError(t, env.db.Unscoped().Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAuthHandler_ActivateAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	result, err := env.authService.Signup(context.Background(), services.SignupInput{
		Login:    "existing",
		Email:    "existing@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	r := env.router(0)
	r.POST("/api/auth/login", env.auth.Login)
	r.GET("/api/auth/activate/:token", env.auth.Activate)

	credentials := map[string]string{"login": "existing", "password": "supersecret"}

	w := env.do(r, http.MethodPost, "/api/auth/login", credentials)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(r, http.MethodGet, "/api/auth/activate/"+result.User.PerishableToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(r, http.MethodGet, "/api/auth/activate/"+result.User.PerishableToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(r, http.MethodPost, "/api/auth/login", credentials)
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.MeDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "existing", response.Login)
	require.True(t, response.Activated)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")

	w = env.do(r, http.MethodPost, "/api/auth/login", map[string]string{"login": "existing", "password": "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser("current-user", false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyUserID, user.ID)

	env.auth.GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.MeDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.Login, response.Login)
	require.Equal(t, user.Email, response.Email)
}

func TestAuthHandler_GetCurrentUserRemovedAccount(t *testing.T) {
	env := setupTestEnv(t)
	user := env.createUser("gone", false)
	require.NoError(t, env.db.Delete(user).Error)

	r := env.router(user.ID)
	r.GET("/api/auth/me", env.auth.GetCurrentUser)

	w := env.do(r, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.True(t, hasClearedSession(w))
}
