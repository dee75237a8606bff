package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/notifybiz/console/internal/auth"
	authdomain "github.com/notifybiz/console/internal/auth/domain"
	"github.com/notifybiz/console/internal/auth/session"
	"github.com/notifybiz/console/internal/authorization"
	"github.com/notifybiz/console/internal/cloudmetrics"
	"github.com/notifybiz/console/internal/config"
	"github.com/notifybiz/console/internal/contact"
	contactdomain "github.com/notifybiz/console/internal/contact/domain"
	"github.com/notifybiz/console/internal/dashboard"
	dashboarddomain "github.com/notifybiz/console/internal/dashboard/domain"
	"github.com/notifybiz/console/internal/observability"
	obsmiddleware "github.com/notifybiz/console/internal/observability/logger"
	obsmetrics "github.com/notifybiz/console/internal/observability/metrics"
	obstracing "github.com/notifybiz/console/internal/observability/tracing"
	"github.com/notifybiz/console/internal/plan"
	plandomain "github.com/notifybiz/console/internal/plan/domain"
	"github.com/notifybiz/console/internal/providers/meta"
	"github.com/notifybiz/console/internal/ratelimit"
	"github.com/notifybiz/console/internal/setting"
	settingdomain "github.com/notifybiz/console/internal/setting/domain"
	"github.com/notifybiz/console/internal/template"
	templatedomain "github.com/notifybiz/console/internal/template/domain"
	"github.com/notifybiz/console/internal/vendors"
	vendordomain "github.com/notifybiz/console/internal/vendors/domain"
	"github.com/notifybiz/console/internal/waba"
	wabadomain "github.com/notifybiz/console/internal/waba/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	cloudmetrics.Module,
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	session.Module,
	meta.Module,
	ratelimit.Module,
	vendors.Module,
	plan.Module,
	setting.Module,
	contact.Module,
	template.Module,
	dashboard.Module,
	waba.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	authsvc       authdomain.Service
	sessions      *session.Manager
	genID         *snowflake.Node
	authzSvc      authorization.Service
	vendorSvc     vendordomain.Service
	planSvc       plandomain.Service
	settingSvc    settingdomain.Service
	contactSvc    contactdomain.Service
	templateSvc   templatedomain.Service
	dashboardSvc  dashboarddomain.Service
	wabaSvc       wabadomain.Service
	metaClient    *meta.Client
	signupLimiter *ratelimit.SignupLimiter
	obsMetrics    *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Authsvc       authdomain.Service
	Sessions      *session.Manager
	GenID         *snowflake.Node
	AuthzSvc      authorization.Service
	VendorSvc     vendordomain.Service
	PlanSvc       plandomain.Service
	SettingSvc    settingdomain.Service
	ContactSvc    contactdomain.Service
	TemplateSvc   templatedomain.Service
	DashboardSvc  dashboarddomain.Service
	WabaSvc       wabadomain.Service
	MetaClient    *meta.Client
	SignupLimiter *ratelimit.SignupLimiter `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		authsvc:       p.Authsvc,
		sessions:      p.Sessions,
		genID:         p.GenID,
		authzSvc:      p.AuthzSvc,
		vendorSvc:     p.VendorSvc,
		planSvc:       p.PlanSvc,
		settingSvc:    p.SettingSvc,
		contactSvc:    p.ContactSvc,
		templateSvc:   p.TemplateSvc,
		dashboardSvc:  p.DashboardSvc,
		wabaSvc:       p.WabaSvc,
		metaClient:    p.MetaClient,
		signupLimiter: p.SignupLimiter,
		obsMetrics:    p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerFacebookRoutes()
	svc.registerPublicRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.POST("/change-password", s.WebAuthRequired(), s.ChangePassword)
	auth.GET("/me", s.Me)

	user := auth.Group("/user", s.WebAuthRequired())
	{
		user.GET("/vendors", s.ListUserVendors)
		user.POST("/using/:vendorId", s.UseVendor)
	}
}

// registerFacebookRoutes wires the endpoints the embedded signup popup talks
// to. They carry the vendor id in the payload rather than the session, so
// they sit outside the admin group and only the rate limiter gates them.
func (s *Server) registerFacebookRoutes() {
	fb := s.engine.Group("/api/facebook")

	fb.POST("", s.SignupRateLimit(), s.HandleFacebookAction)
	fb.POST("/request-permissions", s.SignupRateLimit(), s.RequestFacebookPermissions)
	fb.GET("/business/:businessId", s.GetFacebookBusiness)
	fb.GET("/:userId/businesses", s.ListFacebookBusinesses)
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")

	api.GET("/public/settings", s.ListPublicSettings)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	admin.Use(s.WebAuthRequired())
	admin.Use(s.VendorContext())

	// Dashboard
	admin.GET("/dashboard", s.authorizeVendorAction(authorization.ObjectDashboard, authorization.ActionDashboardView), s.GetVendorDashboard)
	admin.GET("/dashboard/admin", s.authorizeVendorAction(authorization.ObjectDashboard, authorization.ActionDashboardAdminView), s.GetAdminDashboard)

	// Vendors
	admin.GET("/vendors", s.authorizeVendorAction(authorization.ObjectVendor, authorization.ActionVendorView), s.ListVendors)
	admin.POST("/vendors", s.authorizeVendorAction(authorization.ObjectVendor, authorization.ActionVendorCreate), s.CreateVendor)
	admin.GET("/vendors/:id", s.authorizeVendorAction(authorization.ObjectVendor, authorization.ActionVendorView), s.GetVendorByID)
	admin.PATCH("/vendors/:id", s.authorizeVendorAction(authorization.ObjectVendor, authorization.ActionVendorUpdate), s.UpdateVendor)

	// Plans
	admin.GET("/plans", s.authorizeVendorAction(authorization.ObjectPlan, authorization.ActionPlanView), s.ListPlans)
	admin.POST("/plans", s.authorizeVendorAction(authorization.ObjectPlan, authorization.ActionPlanManage), s.CreatePlan)
	admin.GET("/plans/:id", s.authorizeVendorAction(authorization.ObjectPlan, authorization.ActionPlanView), s.GetPlanByID)
	admin.PATCH("/plans/:id", s.authorizeVendorAction(authorization.ObjectPlan, authorization.ActionPlanManage), s.UpdatePlan)

	// Settings
	admin.GET("/settings", s.authorizeVendorAction(authorization.ObjectSetting, authorization.ActionSettingView), s.ListSettings)
	admin.PUT("/settings", s.authorizeVendorAction(authorization.ObjectSetting, authorization.ActionSettingManage), s.UpsertSetting)
	admin.GET("/settings/:key", s.authorizeVendorAction(authorization.ObjectSetting, authorization.ActionSettingView), s.GetSetting)
	admin.DELETE("/settings/:key", s.authorizeVendorAction(authorization.ObjectSetting, authorization.ActionSettingManage), s.DeleteSetting)

	// Contacts
	admin.GET("/contacts", s.authorizeVendorAction(authorization.ObjectContact, authorization.ActionContactView), s.ListContacts)
	admin.POST("/contacts", s.authorizeVendorAction(authorization.ObjectContact, authorization.ActionContactCreate), s.CreateContact)
	admin.POST("/contacts/bulk", s.authorizeVendorAction(authorization.ObjectContact, authorization.ActionContactCreate), s.BulkCreateContacts)
	admin.GET("/contacts/:id", s.authorizeVendorAction(authorization.ObjectContact, authorization.ActionContactView), s.GetContactByID)
	admin.PATCH("/contacts/:id", s.authorizeVendorAction(authorization.ObjectContact, authorization.ActionContactUpdate), s.UpdateContact)
	admin.DELETE("/contacts/:id", s.authorizeVendorAction(authorization.ObjectContact, authorization.ActionContactDelete), s.DeleteContact)

	// Templates
	admin.GET("/templates", s.authorizeVendorAction(authorization.ObjectTemplate, authorization.ActionTemplateView), s.ListTemplates)
	admin.POST("/templates", s.authorizeVendorAction(authorization.ObjectTemplate, authorization.ActionTemplateCreate), s.CreateTemplate)
	admin.GET("/templates/analytics", s.authorizeVendorAction(authorization.ObjectTemplate, authorization.ActionTemplateView), s.GetTemplateAnalytics)
	admin.POST("/templates/sync", s.authorizeVendorAction(authorization.ObjectTemplate, authorization.ActionTemplateSync), s.SyncTemplates)
	admin.GET("/templates/:id", s.authorizeVendorAction(authorization.ObjectTemplate, authorization.ActionTemplateView), s.GetTemplateByID)
	admin.PATCH("/templates/:id", s.authorizeVendorAction(authorization.ObjectTemplate, authorization.ActionTemplateUpdate), s.UpdateTemplate)
	admin.DELETE("/templates/:id", s.authorizeVendorAction(authorization.ObjectTemplate, authorization.ActionTemplateUpdate), s.DeleteTemplate)
	admin.POST("/templates/:id/submit", s.authorizeVendorAction(authorization.ObjectTemplate, authorization.ActionTemplateSubmit), s.SubmitTemplateForApproval)

	// Connected WABAs
	admin.GET("/waba/accounts", s.authorizeVendorAction(authorization.ObjectWABA, authorization.ActionWABAView), s.ListWABAAccounts)
	admin.DELETE("/waba/accounts/:wabaId", s.authorizeVendorAction(authorization.ObjectWABA, authorization.ActionWABADisconnect), s.DisconnectWABA)
}
