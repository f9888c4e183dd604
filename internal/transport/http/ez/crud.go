package ez

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gin-gorm-querydsl/internal/query"
	"gin-gorm-querydsl/internal/repo"
)

// PageQuery 列表分页参数
type PageQuery struct {
	Offset int64 `form:"offset"`
	Limit  int64 `form:"limit"`
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Normalize 负数 offset 归零，limit 缺省 20、上限 100
func (p PageQuery) Normalize() (offset, limit int64) {
	offset, limit = p.Offset, p.Limit
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return offset, limit
}

type CrudHooks[T any] struct {
	// BeforeCreate 与插入同一事务，查询请用 tx
	BeforeCreate func(c *gin.Context, tx *query.Factory, m *T) error
	AfterCreate  func(c *gin.Context, m *T)
	// Filter 从请求里构造列表条件
	Filter func(c *gin.Context) (query.Predicate, error)
}

type CrudConfig[T any] struct {
	Path   string
	Repo   func(f *query.Factory) *repo.Repository[T]
	Orders []query.OrderSpecifier // 列表排序，空则按主键升序
	Hooks  CrudHooks[T]

	AllowCreate bool
	AllowList   bool
	AllowGet    bool
	AllowDelete bool
}

// ParamID 解析路径参数 :id
func ParamID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, BadRequest("invalid id")
	}
	return id, nil
}

// Crud 按配置注册 POST / GET 列表 / GET :id / DELETE :id；写操作都在事务里
func Crud[T any](e EZ, cfg CrudConfig[T]) {
	if !cfg.AllowCreate && !cfg.AllowList && !cfg.AllowGet && !cfg.AllowDelete {
		cfg.AllowCreate, cfg.AllowList, cfg.AllowGet, cfg.AllowDelete = true, true, true, true
	}

	if cfg.AllowCreate {
		RegisterAction(e, Action[T, *T]{
			Method: http.MethodPost,
			Path:   cfg.Path,
			Binder: BindJSON,
			UseTx:  true,
			Handler: func(c *gin.Context, tx *query.Factory, in *T) (*T, error) {
				if cfg.Hooks.BeforeCreate != nil {
					if err := cfg.Hooks.BeforeCreate(c, tx, in); err != nil {
						return nil, err
					}
				}
				if err := cfg.Repo(tx).Save(c.Request.Context(), in); err != nil {
					return nil, err
				}
				if cfg.Hooks.AfterCreate != nil {
					cfg.Hooks.AfterCreate(c, in)
				}
				return in, nil
			},
		})
	}

	if cfg.AllowList {
		RegisterAction(e, Action[PageQuery, query.Page[T]]{
			Method: http.MethodGet,
			Path:   cfg.Path,
			Binder: BindQuery,
			Handler: func(c *gin.Context, f *query.Factory, in *PageQuery) (query.Page[T], error) {
				p := query.Empty
				if cfg.Hooks.Filter != nil {
					var err error
					if p, err = cfg.Hooks.Filter(c); err != nil {
						return query.Page[T]{}, err
					}
				}
				offset, limit := in.Normalize()
				return cfg.Repo(f).FindPage(c.Request.Context(), p, offset, limit, cfg.Orders...)
			},
		})
	}

	if cfg.AllowGet {
		RegisterAction(e, Action[struct{}, *T]{
			Method: http.MethodGet,
			Path:   cfg.Path + "/:id",
			Binder: BindNone,
			Handler: func(c *gin.Context, f *query.Factory, _ *struct{}) (*T, error) {
				id, err := ParamID(c)
				if err != nil {
					return nil, err
				}
				m, err := cfg.Repo(f).FindByID(c.Request.Context(), id)
				if err != nil {
					return nil, err
				}
				if m == nil {
					return nil, NotFound("not found")
				}
				return m, nil
			},
		})
	}

	if cfg.AllowDelete {
		RegisterAction(e, Action[struct{}, gin.H]{
			Method: http.MethodDelete,
			Path:   cfg.Path + "/:id",
			Binder: BindNone,
			UseTx:  true,
			Handler: func(c *gin.Context, tx *query.Factory, _ *struct{}) (gin.H, error) {
				id, err := ParamID(c)
				if err != nil {
					return nil, err
				}
				ok, err := cfg.Repo(tx).DeleteByID(c.Request.Context(), id)
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, NotFound("not found")
				}
				return gin.H{"id": id}, nil
			},
		})
	}
}
