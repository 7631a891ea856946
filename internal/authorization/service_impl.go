package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	obscontext "github.com/smallbiznis/pharmapos/internal/observability/context"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectUser        = "user"
	ObjectProduct     = "product"
	ObjectTransaction = "transaction"
	ObjectFeedback    = "feedback"
	ObjectDashboard   = "dashboard"
)

const (
	ActionUserView   = "user.view"
	ActionUserCreate = "user.create"

	ActionProductView   = "product.view"
	ActionProductCreate = "product.create"
	ActionProductUpdate = "product.update"
	ActionProductDelete = "product.delete"

	ActionTransactionCreate = "transaction.create"
	ActionTransactionView   = "transaction.view"
	ActionTransactionNotify = "transaction.notify"

	ActionFeedbackCreate = "feedback.create"
	ActionFeedbackView   = "feedback.view"

	ActionDashboardView = "dashboard.view"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
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
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(subject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		_, actorID := obscontext.ActorFromContext(ctx)
		s.log.Info("authorization denied",
			zap.String("actor_id", actorID),
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func subject(role string) string {
	return "role:" + role
}

// seedPolicies grants each role its own capabilities; the grouping rules
// make admin inherit manager and manager inherit cashier.
func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:cashier", ObjectProduct, ActionProductView},
		{"role:cashier", ObjectTransaction, ActionTransactionCreate},
		{"role:cashier", ObjectFeedback, ActionFeedbackCreate},
		{"role:cashier", ObjectDashboard, ActionDashboardView},

		{"role:manager", ObjectProduct, ActionProductCreate},
		{"role:manager", ObjectProduct, ActionProductUpdate},
		{"role:manager", ObjectProduct, ActionProductDelete},
		{"role:manager", ObjectTransaction, ActionTransactionView},
		{"role:manager", ObjectTransaction, ActionTransactionNotify},

		{"role:admin", ObjectUser, ActionUserView},
		{"role:admin", ObjectUser, ActionUserCreate},
		{"role:admin", ObjectFeedback, ActionFeedbackView},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	groupings := [][]string{
		{"role:admin", "role:manager"},
		{"role:manager", "role:cashier"},
	}
	for _, rule := range groupings {
		if _, err := enforcer.AddGroupingPolicy(rule); err != nil {
			return err
		}
	}
	return nil
}
