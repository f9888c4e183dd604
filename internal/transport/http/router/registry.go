package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// 模块可实现其中任意几个接口
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// RootModule 挂在引擎根路径，不带 /api/v1 前缀也不走统一响应包
type RootModule interface{ MountRoot(gin.IRoutes) }

// 可选：数值越小越先挂，默认 100
type prioritizer interface{ Priority() int }

// Registry 按类型分发模块；由 main 组装，不用全局变量
type Registry struct {
	api   []APIModule
	admin []AdminModule
	root  []RootModule
}

func (r *Registry) Register(mods ...any) {
	for _, mod := range mods {
		if m, ok := mod.(APIModule); ok {
			r.api = append(r.api, m)
		}
		if m, ok := mod.(AdminModule); ok {
			r.admin = append(r.admin, m)
		}
		if m, ok := mod.(RootModule); ok {
			r.root = append(r.root, m)
		}
	}
}

func byPriority[M any](mods []M) []M {
	out := append([]M(nil), mods...)
	sort.SliceStable(out, func(i, j int) bool {
		return priorityOf(out[i]) < priorityOf(out[j])
	})
	return out
}

func (r *Registry) MountAPI(api *gin.RouterGroup) {
	for _, m := range byPriority(r.api) {
		m.MountAPI(api)
	}
}

func (r *Registry) MountAdmin(admin *gin.RouterGroup) {
	for _, m := range byPriority(r.admin) {
		m.MountAdmin(admin)
	}
}

func (r *Registry) MountRoot(root gin.IRoutes) {
	for _, m := range byPriority(r.root) {
		m.MountRoot(root)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
