package order

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gin-gorm-querydsl/internal/domain"
	"gin-gorm-querydsl/internal/query"
	"gin-gorm-querydsl/internal/repo"
	"gin-gorm-querydsl/internal/transport/http/ez"
)

type Module struct {
	f   *query.Factory
	log *zap.Logger
}

func New(f *query.Factory, l *zap.Logger) *Module {
	if l == nil {
		l = zap.NewNop()
	}
	return &Module{f: f, log: l.Named("order")}
}

func (m *Module) Priority() int { return 20 }

func orders(f *query.Factory) *repo.Repository[domain.Order] { return repo.NewOrderRepo(f).Repository }

// ListIn customer 不为空时按客户姓名走子查询，只返回订单名
type ListIn struct {
	Customer string `form:"customer"`
	ez.PageQuery
}

func (m *Module) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api, m.f, m.log)

	ez.RegisterAction(e, ez.Action[ListIn, any]{
		Method: http.MethodGet,
		Path:   "/orders",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, f *query.Factory, in *ListIn) (any, error) {
			ctx := c.Request.Context()
			if name := strings.TrimSpace(in.Customer); name != "" {
				return repo.NewOrderRepo(f).NamesByCustomerLastName(ctx, name)
			}
			offset, limit := in.Normalize()
			return orders(f).FindPage(ctx, query.Empty, offset, limit, domain.Orders.ID.Desc())
		},
	})

	ez.Crud(e, ez.CrudConfig[domain.Order]{
		Path:        "/orders",
		Repo:        orders,
		AllowCreate: true,
		AllowGet:    true,
		Hooks: ez.CrudHooks[domain.Order]{
			BeforeCreate: func(c *gin.Context, tx *query.Factory, o *domain.Order) error {
				o.ID = 0
				o.Name = strings.TrimSpace(o.Name)
				if o.Name == "" {
					return ez.BadRequest("name is required")
				}
				ok, err := repo.NewCustomerRepo(tx).Exists(c.Request.Context(), domain.Customers.ID.Eq(o.CustomerID))
				if err != nil {
					return err
				}
				if !ok {
					return ez.BadRequest("customer not found")
				}
				return nil
			},
		},
	})
}

type DeleteIn struct {
	Name string `form:"name" binding:"required"`
}

// MountAdmin 按名称模糊删除 + 按 id 删除，均在事务内
func (m *Module) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin, m.f, m.log)

	ez.RegisterAction(e, ez.Action[DeleteIn, gin.H]{
		Method: http.MethodDelete,
		Path:   "/orders",
		Binder: ez.BindQuery,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *query.Factory, in *DeleteIn) (gin.H, error) {
			n, err := repo.NewOrderRepo(tx).DeleteByNameLike(c.Request.Context(), "%"+in.Name+"%")
			if err != nil {
				return nil, err
			}
			return gin.H{"deleted": n}, nil
		},
	})

	ez.Crud(e, ez.CrudConfig[domain.Order]{
		Path:        "/orders",
		Repo:        orders,
		AllowDelete: true,
	})
}
