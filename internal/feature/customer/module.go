package customer

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gin-gorm-querydsl/internal/core/cache"
	"gin-gorm-querydsl/internal/domain"
	"gin-gorm-querydsl/internal/query"
	"gin-gorm-querydsl/internal/repo"
	"gin-gorm-querydsl/internal/transport/http/ez"
	resp "gin-gorm-querydsl/internal/transport/http/response"
)

// NamesCacheKey /names 的缓存 key
const NamesCacheKey = "customer:names:age_gt_18"

// AdultAge /names 只返回年龄大于该值的客户
const AdultAge = 18

type Module struct {
	f     *query.Factory
	names cache.Entry[[]string]
	log   *zap.Logger
}

func New(f *query.Factory, c *cache.Cache, ttl time.Duration, l *zap.Logger) *Module {
	if l == nil {
		l = zap.NewNop()
	}
	return &Module{f: f, names: cache.NewEntry[[]string](c, NamesCacheKey, ttl), log: l.Named("customer")}
}

func (m *Module) Priority() int { return 10 }

// Names 年龄大于 18 的姓名，id 倒序；配置了 redis 时走旁路缓存
func (m *Module) Names(ctx context.Context) ([]string, error) {
	names, err := m.names.Load(ctx, func(ctx context.Context) ([]string, error) {
		return repo.NewCustomerRepo(m.f).NamesOlderThan(ctx, AdultAge)
	})
	if err != nil {
		return nil, err
	}
	if names == nil {
		return []string{}, nil
	}
	return names, nil
}

// MountRoot GET /names 直接返回 JSON 数组
func (m *Module) MountRoot(r gin.IRoutes) {
	r.GET("/names", func(c *gin.Context) {
		names, err := m.Names(c.Request.Context())
		if err != nil {
			m.log.Error("names failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, resp.Error(resp.CodeServerError, "internal error"))
			return
		}
		c.JSON(http.StatusOK, names)
	})
}

// CreateIn 新建客户
type CreateIn struct {
	LastName string     `json:"lastName" binding:"required,max=64"`
	Email    string     `json:"email" binding:"omitempty,email,max=191"`
	Age      *int       `json:"age" binding:"omitempty,min=0,max=200"`
	Gender   *int       `json:"gender" binding:"omitempty,oneof=0 1"`
	Birth    *time.Time `json:"birth"`
}

// SearchIn 过滤 + 分页
type SearchIn struct {
	domain.CustomerFilter
	ez.PageQuery
}

type WithOrdersIn struct {
	LastName string `form:"lastName"`
}

func (m *Module) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api, m.f, m.log)

	ez.RegisterAction(e, ez.Action[SearchIn, query.Page[domain.CustomerDTO]]{
		Method: http.MethodGet,
		Path:   "/customers",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, f *query.Factory, in *SearchIn) (query.Page[domain.CustomerDTO], error) {
			offset, limit := in.Normalize()
			return repo.NewCustomerRepo(f).Search(c.Request.Context(), in.CustomerFilter, offset, limit)
		},
	})

	ez.RegisterAction(e, ez.Action[WithOrdersIn, []domain.CustomerOrderDTO]{
		Method: http.MethodGet,
		Path:   "/customers/with-orders",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, f *query.Factory, in *WithOrdersIn) ([]domain.CustomerOrderDTO, error) {
			return repo.NewCustomerRepo(f).WithOrders(c.Request.Context(), strings.TrimSpace(in.LastName))
		},
	})

	ez.RegisterAction(e, ez.Action[CreateIn, *domain.Customer]{
		Method: http.MethodPost,
		Path:   "/customers",
		Binder: ez.BindJSON,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *query.Factory, in *CreateIn) (*domain.Customer, error) {
			cu := &domain.Customer{
				LastName: strings.TrimSpace(in.LastName),
				Email:    in.Email,
				Age:      in.Age,
				Gender:   in.Gender,
			}
			if in.Birth != nil {
				cu.Birth = *in.Birth
			}
			if err := repo.NewCustomerRepo(tx).Save(c.Request.Context(), cu); err != nil {
				if repo.IsDuplicate(err) {
					return nil, ez.BadRequest("lastName already exists")
				}
				return nil, err
			}
			return cu, nil
		},
		// 提交后再清，避免并发读把旧列表重新写回缓存
		AfterCommit: func(c *gin.Context, _ *domain.Customer) {
			m.names.Invalidate(c.Request.Context())
		},
	})

	// GET /customers/:id
	ez.Crud(e, ez.CrudConfig[domain.Customer]{
		Path:     "/customers",
		Repo:     func(f *query.Factory) *repo.Repository[domain.Customer] { return repo.NewCustomerRepo(f).Repository },
		AllowGet: true,
	})
}

type EmailIn struct {
	Email string `json:"email" binding:"required,email,max=191"`
}

// MountAdmin 管理端写接口，分组已校验 admin
func (m *Module) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin, m.f, m.log)

	ez.RegisterAction(e, ez.Action[EmailIn, gin.H]{
		Method: http.MethodPut,
		Path:   "/customers/:id/email",
		Binder: ez.BindJSON,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *query.Factory, in *EmailIn) (gin.H, error) {
			id, err := ez.ParamID(c)
			if err != nil {
				return nil, err
			}
			ok, err := repo.NewCustomerRepo(tx).UpdateEmail(c.Request.Context(), id, in.Email)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ez.NotFound("customer not found")
			}
			return gin.H{"id": id, "email": in.Email}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/customers/stats",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, f *query.Factory, _ *struct{}) (gin.H, error) {
			r := repo.NewCustomerRepo(f)
			ctx := c.Request.Context()
			total, err := r.Count(ctx, query.Empty)
			if err != nil {
				return nil, err
			}
			avg, err := r.AverageAge(ctx, query.Empty)
			if err != nil {
				return nil, err
			}
			nameEmails, err := r.NameEmails(ctx)
			if err != nil {
				return nil, err
			}
			return gin.H{"total": total, "averageAge": avg, "nameEmails": nameEmails}, nil
		},
	})
}
