package router

import (
	"net/http"

	creditssvc "bluecarbon-backend/internal/application/credits"
	emailsvc "bluecarbon-backend/internal/application/emails"
	registrysvc "bluecarbon-backend/internal/application/registry"
	subssvc "bluecarbon-backend/internal/application/submissions"
	trustsvc "bluecarbon-backend/internal/application/trust"
	userssvc "bluecarbon-backend/internal/application/users"
	"bluecarbon-backend/internal/application/verification"
	authsvc "bluecarbon-backend/internal/auth"
	"bluecarbon-backend/internal/config"
	"bluecarbon-backend/internal/infrastructure/database"
	adminhandler "bluecarbon-backend/internal/interfaces/handlers/admin"
	authhandler "bluecarbon-backend/internal/interfaces/handlers/auth"
	healthhandler "bluecarbon-backend/internal/interfaces/handlers/health"
	mkthandler "bluecarbon-backend/internal/interfaces/handlers/marketplace"
	reviewhandler "bluecarbon-backend/internal/interfaces/handlers/review"
	subshandler "bluecarbon-backend/internal/interfaces/handlers/submissions"
	usershandler "bluecarbon-backend/internal/interfaces/handlers/users"
	"bluecarbon-backend/internal/middleware"
	"bluecarbon-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionHandler, rdb, err := middleware.Session(middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	})
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             nil,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Live)
	app.Get("/health", hh.Live)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/reset", hh.Reset)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		if errDB = database.AutoMigrate(db); errDB != nil {
			return nil, nil, nil, errDB
		}
		hh.DB = &gormDBPinger{db: db}
	}

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}

	var userFinder authsvc.UserFinder
	if db != nil {
		userFinder = &authsvc.GormUserFinder{DB: db}
	}
	ah := &authhandler.Handlers{
		UserFinder: userFinder,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db != nil && rdb != nil {
		var emailSender emailsvc.Sender
		if cfg.BrevoAPIKey != "" {
			emailSender = &emailsvc.BrevoClient{APIKey: cfg.BrevoAPIKey, MailFrom: cfg.MailFrom}
		}

		// Users
		us := &userssvc.Service{DB: db, Mailer: emailSender}
		uh := &usershandler.Handlers{Users: us}
		app.Post("/api/v1/users", uh.Register)
		ug := app.Group("/api/v1/users", middleware.RequireAuth())
		ug.Get("/:id", uh.View)
		ug.Patch("/:id", uh.UpdateProfile)
		app.Get("/api/v1/admin/users", middleware.RequireAuth(),
			middleware.AuthorizePermission(constants.ManageUsers), uh.List)

		// Submissions
		scorer := &verification.Service{
			Verifier: &verification.HTTPClient{BaseURL: cfg.VerifierURL, APIKey: cfg.VerifierAPIKey},
			Timeout:  cfg.VerifierTimeout,
		}
		ss := &subssvc.Service{DB: db, Scorer: scorer}
		sh := &subshandler.Handlers{Submissions: ss}
		sg := app.Group("/api/v1/submissions", middleware.RequireAuth())
		sg.Post("/", middleware.AuthorizePermission(constants.CreateSubmission), sh.Create)
		sg.Get("/mine", sh.Mine)
		sg.Get("/:id", sh.Get)
		sg.Get("/:id/audit", middleware.AuthorizePermission(constants.ViewAuditTrail), sh.Trail)

		// Credits (issuance and settlement)
		cs := &creditssvc.Service{DB: db, Mailer: emailSender}

		// Review workflow
		rh := &reviewhandler.Handlers{Submissions: ss, Credits: cs}
		rg := app.Group("/api/v1/review", middleware.RequireAuth(),
			middleware.AuthorizePermission(constants.ReviewSubmission))
		rg.Get("/queue", rh.Queue)
		rg.Patch("/submissions/:id/status", rh.Transition)
		rg.Post("/submissions/:id/oracle-failed", rh.OracleFailed)

		// Marketplace
		mh := &mkthandler.Handlers{
			Credits:       cs,
			StripeCreator: &mkthandler.RealStripeCreator{SecretKey: cfg.StripeSecretKey},
		}
		mg := app.Group("/api/v1/marketplace", middleware.RequireAuth())
		mg.Get("/credits", mh.ListAvailable)
		mg.Post("/payment-intent", middleware.AuthorizePermission(constants.PurchaseCredits), mh.CreatePaymentIntent)
		mg.Post("/credits/:id/purchase", middleware.AuthorizePermission(constants.PurchaseCredits), mh.Purchase)
		mg.Get("/portfolio", middleware.AuthorizePermission(constants.PurchaseCredits), mh.Portfolio)

		// Admin controls
		regs := &registrysvc.Service{DB: db}
		trs := &trustsvc.Service{DB: db}
		adh := &adminhandler.Handlers{Registry: regs, Credits: cs, Trust: trs}
		ag := app.Group("/api/v1/admin", middleware.RequireAuth())
		ag.Get("/registry", middleware.AuthorizePermission(constants.PauseRegistry), adh.RegistryStatus)
		ag.Post("/registry/pause", middleware.AuthorizePermission(constants.PauseRegistry), adh.Pause)
		ag.Post("/registry/resume", middleware.AuthorizePermission(constants.PauseRegistry), adh.Resume)
		ag.Post("/credits/:id/freeze", middleware.AuthorizePermission(constants.FreezeCredit), adh.FreezeCredit)
		ag.Post("/credits/:id/unfreeze", middleware.AuthorizePermission(constants.FreezeCredit), adh.UnfreezeCredit)
		ag.Patch("/users/:id/status", middleware.AuthorizePermission(constants.ManageUsers), adh.SetUserStatus)
		ag.Patch("/users/:id/trust-score", middleware.AuthorizePermission(constants.ManageUsers), adh.SetTrustScore)
		ag.Get("/risk", middleware.AuthorizePermission(constants.ViewRiskSignals), adh.RiskOverview)
	}

	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
