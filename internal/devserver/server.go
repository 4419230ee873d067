// Package devserver is a local stand-in for the TrashDash backend, used to
// develop and test the apps offline. It implements the five auth endpoints
// against a sqlite store. The production backend is famously inconsistent
// about its auth response shape, so the dev server can be told which shape
// to emit and lets the client's normalizer be exercised end to end.
package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/trashdash/trashdash-go/internal/models"
)

// Response shapes the dev server can emit, matching the shapes the real
// backend has been observed to return.
const (
	ShapeEnvelope    = "envelope"    // {success: true, data: {user, token}}
	ShapeFlat        = "flat"        // {user, token}
	ShapeData        = "data"        // {data: {user, token}}
	ShapeAccessToken = "accessToken" // {accessToken, user}
)

// Config holds the dev server configuration.
type Config struct {
	Addr      string
	DBPath    string
	JWTSecret string
	Shape     string
}

// Server is the dev backend.
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	logger    zerolog.Logger
	jwtSecret []byte
	shape     string
}

// New creates a dev server with its sqlite store migrated.
func New(cfg Config, zlog zerolog.Logger) (*Server, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	shape := cfg.Shape
	if shape == "" {
		shape = ShapeEnvelope
	}

	s := &Server{
		db:        db,
		logger:    zlog,
		jwtSecret: []byte(cfg.JWTSecret),
		shape:     shape,
	}
	s.setupRouter()
	return s, nil
}

func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// The apps run on localhost dev ports; allow everything
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", s.login)
		auth.POST("/register", s.register)
		auth.POST("/refresh", s.refresh)
		auth.POST("/logout", s.authRequired, s.logout)
		auth.GET("/profile", s.authRequired, s.profile)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router = router
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the server on addr.
func (s *Server) Run(addr string) error {
	s.logger.Info().Str("addr", addr).Str("shape", s.shape).Msg("dev backend listening")
	return s.router.Run(addr)
}

// authRequired validates the bearer token and stashes the account.
func (s *Server) authRequired(c *gin.Context) {
	header := c.GetHeader("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	accountID, err := s.validateToken(tokenString, "access")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var account Account
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.Set("account", &account)
	c.Next()
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var account Account
	if err := s.db.First(&account, "email = ?", strings.ToLower(req.Email)).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	access, refresh, err := s.issueTokenPair(account.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.writeAuth(c, http.StatusOK, &account, access, refresh)
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Role      string `json:"role"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := req.Role
	if role == "" {
		role = string(models.RoleCustomer)
	}
	if !models.Role(role).Valid() || role == string(models.RoleAdmin) {
		// Admin accounts are seeded, never self-registered
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	account := Account{
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         role,
		Status:       string(models.StatusActive),
	}
	if err := s.db.Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		s.logger.Error().Err(err).Msg("failed to create account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	access, refresh, err := s.issueTokenPair(account.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.writeAuth(c, http.StatusCreated, &account, access, refresh)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accountID, err := s.validateToken(req.RefreshToken, "refresh")
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	var account Account
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	access, refresh, err := s.issueTokenPair(account.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.writeAuth(c, http.StatusOK, &account, access, refresh)
}

func (s *Server) logout(c *gin.Context) {
	// Tokens are stateless; there is nothing to revoke yet.
	// TODO: keep a denylist once refresh tokens move to the database.
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) profile(c *gin.Context) {
	account := c.MustGet("account").(*Account)

	switch s.shape {
	case ShapeFlat:
		c.JSON(http.StatusOK, gin.H{"user": account.toAPI()})
	case ShapeData, ShapeAccessToken:
		// These deployments return the user object bare
		c.JSON(http.StatusOK, account.toAPI())
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "data": account.toAPI()})
	}
}

// writeAuth emits an auth response in the configured shape.
func (s *Server) writeAuth(c *gin.Context, status int, account *Account, access, refresh string) {
	user := account.toAPI()

	switch s.shape {
	case ShapeFlat:
		c.JSON(status, gin.H{"user": user, "token": access, "refreshToken": refresh})
	case ShapeData:
		c.JSON(status, gin.H{"data": gin.H{"user": user, "token": access, "refreshToken": refresh}})
	case ShapeAccessToken:
		c.JSON(status, gin.H{"accessToken": access, "user": user, "refreshToken": refresh})
	default:
		c.JSON(status, gin.H{"success": true, "data": gin.H{"user": user, "token": access, "refreshToken": refresh}})
	}
}

// SeedAdmin creates (or keeps) an admin account, for local dashboards.
func (s *Server) SeedAdmin(email, password string) error {
	var count int64
	if err := s.db.Model(&Account{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.Create(&Account{
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		FirstName:    "TrashDash",
		LastName:     "Admin",
		Phone:        "5550100000",
		Role:         string(models.RoleAdmin),
		Status:       string(models.StatusActive),
	}).Error
}
