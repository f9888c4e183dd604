package router

import (
	"github.com/gin-gonic/gin"
)

// NewAPIEngine 用户端：/names + /api/v1
func NewAPIEngine(d Deps, reg *Registry) *gin.Engine {
	r := baseEngine(d, "api")

	reg.MountRoot(r)
	api := r.Group("/api/v1")
	reg.MountAPI(api)
	return r
}
