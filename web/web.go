// Package web provides the blog's HTTP server: routing, templates, static
// assets and background job scheduling.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/quillpress/blog/config"
	"github.com/quillpress/blog/database/repository"
	"github.com/quillpress/blog/logger"
	"github.com/quillpress/blog/web/cache"
	"github.com/quillpress/blog/web/controller"
	"github.com/quillpress/blog/web/job"
	"github.com/quillpress/blog/web/locale"
	"github.com/quillpress/blog/web/middleware"
	"github.com/quillpress/blog/web/service"
	"github.com/quillpress/blog/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

var startTime = time.Now()

type wrapAssetsFS struct {
	embed.FS
}

func (f *wrapAssetsFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open("assets/" + name)
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFile{File: file}, nil
}

type wrapAssetsFile struct {
	fs.File
}

func (f *wrapAssetsFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFileInfo{FileInfo: info}, nil
}

type wrapAssetsFileInfo struct {
	fs.FileInfo
}

func (f *wrapAssetsFileInfo) ModTime() time.Time {
	return startTime
}

// Server represents the blog web server with its services and scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	db    *gorm.DB
	cache *cache.Cache

	userService  *service.UserService
	postService  *service.PostService
	tokenService *service.TokenService
	auditService *service.AuditLogService

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer wires the services to db and c. The caller keeps ownership of
// both and closes them after Stop.
func NewServer(db *gorm.DB, c *cache.Cache) (*Server, error) {
	loc, err := config.GetTimeLocation()
	if err != nil {
		return nil, err
	}
	repos := repository.New(db)
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		db:           db,
		cache:        c,
		userService:  service.NewUserService(repos.Users),
		postService:  service.NewPostService(repos.Posts, repos.Comments, c, loc),
		tokenService: service.NewTokenService(repos.Users, config.GetSecretKey(), config.GetName()),
		auditService: service.NewAuditLogService(repos.Audit),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// getHtmlFiles walks the local `web/html` directory and returns a list of
// template file paths. Used only in debug/development mode.
func (s *Server) getHtmlFiles() ([]string, error) {
	files := make([]string, 0)
	dir, _ := os.Getwd()
	err := fs.WalkDir(os.DirFS(dir), "web/html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// getHtmlTemplate parses embedded HTML templates from the bundled `htmlFS`.
func (s *Server) getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(htmlFS, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			newT, err := t.ParseFS(htmlFS, path+"/*.html")
			if err != nil {
				// ignore folders without matches
				return nil
			}
			t = newT
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Server) sessionStore() sessions.Store {
	secret := []byte(config.GetSecretKey())
	var store sessions.Store
	if config.GetSessionStore() == config.SessionStoreRedis && s.cache != nil {
		store = cache.NewSessionStore(s.cache, secret)
	} else {
		store = cookie.NewStore(secret)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   config.GetSessionMaxAge() * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// dict builds a map from alternating keys and values for passing several
// values to a nested template.
func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, errors.New("dict needs an even number of arguments")
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, errors.New("dict keys must be strings")
		}
		m[key] = values[i+1]
	}
	return m, nil
}

// Handler builds the gin engine with all middleware and routes.
func (s *Server) Handler() (*gin.Engine, error) {
	return s.initRouter()
}

// initRouter initializes Gin, registers middleware, templates, static assets,
// controllers and returns the configured engine.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(middleware.RequestLog())
	engine.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Error("panic while serving", c.Request.URL.Path, ":", err)
		controller.RenderError(c, http.StatusInternalServerError)
	}))

	if domain := config.GetDomain(); domain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(domain))
	}

	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/api/"}),
	))
	engine.Use(sessions.Sessions(session.CookieName, s.sessionStore()))
	engine.Use(locale.LocalizerMiddleware())
	engine.Use(middleware.LoadUser(s.userService))

	funcMap := template.FuncMap{
		"i18n": locale.I18n,
		"safe": func(body string) template.HTML { return template.HTML(body) },
		"year": func() int { return time.Now().Year() },
		"dict": dict,
	}
	engine.SetFuncMap(funcMap)

	// Static files & templates
	if config.IsDebug() {
		files, err := s.getHtmlFiles()
		if err != nil {
			return nil, err
		}
		engine.LoadHTMLFiles(files...)
		engine.StaticFS("/assets", http.FS(os.DirFS("web/assets")))
	} else {
		tpl, err := s.getHtmlTemplate(funcMap)
		if err != nil {
			return nil, err
		}
		engine.SetHTMLTemplate(tpl)
		engine.StaticFS("/assets", http.FS(&wrapAssetsFS{FS: assetsFS}))
	}

	postLimit := middleware.RateLimitConfig{
		RequestsPerMinute: config.GetRateLimit(),
		Methods:           []string{http.MethodPost},
	}

	// JSON API
	api := engine.Group("/api", middleware.RateLimitMiddleware(s.cache, postLimit))
	controller.NewAPIController(api, s.postService, s.userService, s.tokenService)

	// Web UI groups
	pageLimit := postLimit
	pageLimit.OnLimit = func(c *gin.Context) {
		controller.RenderError(c, http.StatusTooManyRequests)
	}
	g := engine.Group("/")
	auth := g.Group("", middleware.RateLimitMiddleware(s.cache, pageLimit))
	admin := g.Group("", middleware.AdminOnly(controller.RenderError), middleware.AuditMiddleware(s.auditService))

	controller.NewIndexController(g, s.postService)
	controller.NewAuthController(auth, s.userService, config.GetSessionMaxAge())
	controller.NewPostController(g, admin, s.postService)

	// 404 handler
	engine.NoRoute(func(c *gin.Context) {
		controller.RenderError(c, http.StatusNotFound)
	})

	return engine, nil
}

// startTask schedules background jobs.
func (s *Server) startTask() {
	if _, err := s.cron.AddJob("@daily", job.NewAuditCleanupJob(s.auditService, config.GetAuditRetentionDays())); err != nil {
		logger.Warning("Add AuditCleanupJob error", err)
	}
	if _, err := s.cron.AddJob("@every 10m", job.NewCheckpointJob(s.db)); err != nil {
		logger.Warning("Add CheckpointJob error", err)
	}
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	loc, err := config.GetTimeLocation()
	if err != nil {
		return err
	}
	s.cron = cron.New(cron.WithLocation(loc), cron.WithSeconds())
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	logger.Info("Web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("web server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop gracefully shuts down the web server and cron jobs.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }

// GetCron returns the server's cron scheduler instance.
func (s *Server) GetCron() *cron.Cron { return s.cron }
