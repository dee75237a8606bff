package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectVendor    = "vendor"
	ObjectPlan      = "plan"
	ObjectSetting   = "setting"
	ObjectContact   = "contact"
	ObjectTemplate  = "template"
	ObjectWABA      = "waba"
	ObjectDashboard = "dashboard"
)

const (
	ActionVendorView   = "vendor.view"
	ActionVendorCreate = "vendor.create"
	ActionVendorUpdate = "vendor.update"

	ActionPlanView   = "plan.view"
	ActionPlanManage = "plan.manage"

	ActionSettingView   = "setting.view"
	ActionSettingManage = "setting.manage"

	ActionContactView   = "contact.view"
	ActionContactCreate = "contact.create"
	ActionContactUpdate = "contact.update"
	ActionContactDelete = "contact.delete"

	ActionTemplateView   = "template.view"
	ActionTemplateCreate = "template.create"
	ActionTemplateUpdate = "template.update"
	ActionTemplateSubmit = "template.submit"
	ActionTemplateSync   = "template.sync"

	ActionWABAConnect    = "waba.connect"
	ActionWABAView       = "waba.view"
	ActionWABADisconnect = "waba.disconnect"

	ActionDashboardView      = "dashboard.view"
	ActionDashboardAdminView = "dashboard.admin_view"
)

const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, vendorID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return ErrInvalidVendor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := s.resolveActor(ctx, actor, vendorID)
	if err != nil {
		return err
	}

	domain := fmt.Sprintf("vendor:%s", vendorID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.String("actor", actor),
			zap.String("vendor_id", vendorID),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string, vendorID string) (string, string, error) {
	if actor == "system" {
		return actor, "role:system", nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", ErrInvalidActor
		}
		parsedVendorID, err := snowflake.ParseString(vendorID)
		if err != nil || parsedVendorID == 0 {
			return "", "", ErrInvalidVendor
		}
		role, err := s.roleForUser(ctx, parsedVendorID, userID)
		if err != nil {
			return "", "", err
		}
		return actor, fmt.Sprintf("role:%s", strings.ToLower(role)), nil
	}
	return "", "", ErrInvalidActor
}

// roleForUser maps a user to its role in a vendor scope. The seeded console
// admin carries the admin role everywhere; a vendor owner carries the vendor
// role inside its own vendor; anyone else has no role.
func (s *ServiceImpl) roleForUser(ctx context.Context, vendorID snowflake.ID, userID snowflake.ID) (string, error) {
	var isDefault bool
	if err := s.db.WithContext(ctx).Raw(
		`SELECT is_default FROM users WHERE id = ? LIMIT 1`, userID,
	).Scan(&isDefault).Error; err != nil {
		return "", err
	}
	if isDefault {
		return RoleAdmin, nil
	}

	var ownerID int64
	if err := s.db.WithContext(ctx).Raw(
		`SELECT owner_user_id FROM vendors WHERE id = ? LIMIT 1`, vendorID,
	).Scan(&ownerID).Error; err != nil {
		return "", err
	}
	if ownerID != 0 && snowflake.ID(ownerID) == userID {
		return RoleVendor, nil
	}
	return "", ErrForbidden
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Vendor owners manage their own tenant surface.
		{"role:vendor", ObjectVendor, ActionVendorView},
		{"role:vendor", ObjectVendor, ActionVendorUpdate},
		{"role:vendor", ObjectPlan, ActionPlanView},
		{"role:vendor", ObjectSetting, ActionSettingView},
		{"role:vendor", ObjectSetting, ActionSettingManage},
		{"role:vendor", ObjectContact, ActionContactView},
		{"role:vendor", ObjectContact, ActionContactCreate},
		{"role:vendor", ObjectContact, ActionContactUpdate},
		{"role:vendor", ObjectContact, ActionContactDelete},
		{"role:vendor", ObjectTemplate, ActionTemplateView},
		{"role:vendor", ObjectTemplate, ActionTemplateCreate},
		{"role:vendor", ObjectTemplate, ActionTemplateUpdate},
		{"role:vendor", ObjectTemplate, ActionTemplateSubmit},
		{"role:vendor", ObjectTemplate, ActionTemplateSync},
		{"role:vendor", ObjectWABA, ActionWABAConnect},
		{"role:vendor", ObjectWABA, ActionWABAView},
		{"role:vendor", ObjectWABA, ActionWABADisconnect},
		{"role:vendor", ObjectDashboard, ActionDashboardView},

		// Console admins additionally manage vendors and plans.
		{"role:admin", ObjectVendor, ActionVendorView},
		{"role:admin", ObjectVendor, ActionVendorCreate},
		{"role:admin", ObjectVendor, ActionVendorUpdate},
		{"role:admin", ObjectPlan, ActionPlanView},
		{"role:admin", ObjectPlan, ActionPlanManage},
		{"role:admin", ObjectSetting, ActionSettingView},
		{"role:admin", ObjectSetting, ActionSettingManage},
		{"role:admin", ObjectContact, ActionContactView},
		{"role:admin", ObjectContact, ActionContactCreate},
		{"role:admin", ObjectContact, ActionContactUpdate},
		{"role:admin", ObjectContact, ActionContactDelete},
		{"role:admin", ObjectTemplate, ActionTemplateView},
		{"role:admin", ObjectTemplate, ActionTemplateCreate},
		{"role:admin", ObjectTemplate, ActionTemplateUpdate},
		{"role:admin", ObjectTemplate, ActionTemplateSubmit},
		{"role:admin", ObjectTemplate, ActionTemplateSync},
		{"role:admin", ObjectWABA, ActionWABAConnect},
		{"role:admin", ObjectWABA, ActionWABAView},
		{"role:admin", ObjectWABA, ActionWABADisconnect},
		{"role:admin", ObjectDashboard, ActionDashboardView},
		{"role:admin", ObjectDashboard, ActionDashboardAdminView},

		// Automated processes.
		{"role:system", ObjectTemplate, ActionTemplateSync},
		{"role:system", ObjectWABA, ActionWABAView},
		{"role:system", ObjectDashboard, ActionDashboardAdminView},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
