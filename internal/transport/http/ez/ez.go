// Package ez 把 gin 路由、参数绑定、事务与统一响应包收拢成一行注册
package ez

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gin-gorm-querydsl/internal/query"
	"gin-gorm-querydsl/internal/repo"
	mdw "gin-gorm-querydsl/internal/transport/http/middleware"
	resp "gin-gorm-querydsl/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	f   *query.Factory
	log *zap.Logger
}

func New(g *gin.RouterGroup, f *query.Factory, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, f: f, log: l}
}

func (e EZ) Group() *gin.RouterGroup { return e.g }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // JSON body
	BindQuery Binder = "query" // URL ?a=b
	BindURI   Binder = "uri"   // 路径参数 :id
	BindNone  Binder = "none"  // 不绑定
)

// AErr 带业务码的错误
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// Action 非 CRUD 接口：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool     // 要求已登录（AuthJWT 写入的 userId）
	Roles   []string // 限定角色（可选）
	UseTx   bool     // 整个 handler 包在一个事务里
	Handler func(c *gin.Context, f *query.Factory, in *I) (O, error)

	// AfterCommit handler 成功且事务已提交后执行，用于清缓存等副作用
	AfterCommit func(c *gin.Context, out O)
}

// RegisterAction 在当前分组下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth {
			if c.GetString(mdw.KeyUserID) == "" {
				c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
				return
			}
			if len(a.Roles) > 0 && !slices.Contains(a.Roles, c.GetString(mdw.KeyRole)) {
				c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
				return
			}
		}

		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			c.JSON(http.StatusOK, bindError(err))
			return
		}

		var out O
		var err error
		ctx := c.Request.Context()
		if a.UseTx {
			err = e.f.Transaction(ctx, func(tx *query.Factory) error {
				var e2 error
				out, e2 = a.Handler(c, tx, &in)
				return e2
			})
		} else {
			out, err = a.Handler(c, e.f, &in)
		}
		if err != nil {
			e.Fail(c, err)
			return
		}
		if a.AfterCommit != nil {
			a.AfterCommit(c, out)
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

func bind(c *gin.Context, b Binder, in any) error {
	switch b {
	case BindJSON:
		return c.ShouldBindJSON(in)
	case BindQuery:
		return c.ShouldBindQuery(in)
	case BindURI:
		return c.ShouldBindUri(in)
	}
	return nil
}

func bindError(err error) resp.Resp {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return resp.Error(resp.CodeTooLarge, "request body too large")
	}
	return resp.Error(resp.CodeBadRequest, err.Error())
}

// Fail 把错误映射为业务码；5xx 记日志且不把内部错误透给前端
func (e EZ) Fail(c *gin.Context, err error) {
	r := Map(err)
	if r.Code >= resp.CodeServerError {
		_ = c.Error(err)
		e.log.Error("action failed",
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(http.StatusOK, r)
}

// Map 错误 → 响应包
func Map(err error) resp.Resp {
	var ae *AErr
	switch {
	case errors.As(err, &ae):
		return resp.Error(ae.Code, ae.Error())
	case errors.Is(err, query.ErrInvalidPredicate):
		return resp.Error(resp.CodeBadRequest, err.Error())
	case repo.IsDuplicate(err):
		return resp.Error(resp.CodeBadRequest, "duplicate record")
	case errors.Is(err, context.DeadlineExceeded):
		return resp.Error(resp.CodeTimeout, "")
	}
	return resp.Error(resp.CodeServerError, "internal error")
}
