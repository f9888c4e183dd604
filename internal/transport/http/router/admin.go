package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gin-gorm-querydsl/internal/core/auth"
	"gin-gorm-querydsl/internal/query"
	"gin-gorm-querydsl/internal/transport/http/ez"
	mdw "gin-gorm-querydsl/internal/transport/http/middleware"
	"gin-gorm-querydsl/pkg/utils"
)

// NewAdminEngine 管理端：/admin/v1/auth/login 公开，其余要求 admin 角色
func NewAdminEngine(d Deps, reg *Registry) *gin.Engine {
	r := baseEngine(d, "admin")

	public := r.Group("/admin/v1")
	mountLogin(ez.New(public, d.Factory, d.logger()), d.JWT, d.Admin)

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, auth.RoleAdmin))
	reg.MountAdmin(admin)
	return r
}

type loginIn struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginOut struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

func mountLogin(e ez.EZ, j *auth.JWTer, acct AdminAccount) {
	ez.RegisterAction(e, ez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ *query.Factory, in *loginIn) (loginOut, error) {
			if acct.PasswordHash == "" ||
				!utils.CheckCredentials(strings.TrimSpace(in.Username), in.Password, acct.Username, acct.PasswordHash) {
				return loginOut{}, ez.Unauthorized("invalid credentials")
			}
			tok, exp, err := j.Issue(acct.Username, auth.RoleAdmin)
			if err != nil {
				return loginOut{}, ez.Internal("issue token failed", err)
			}
			return loginOut{Token: tok, ExpiresAt: exp.Unix()}, nil
		},
	})
}
