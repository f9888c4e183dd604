package router

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name     string
	priority int
	calls    *[]string
}

func (r recorder) MountAPI(*gin.RouterGroup) { *r.calls = append(*r.calls, "api:"+r.name) }
func (r recorder) MountRoot(gin.IRoutes)     { *r.calls = append(*r.calls, "root:"+r.name) }
func (r recorder) Priority() int             { return r.priority }

type adminOnly struct{ calls *[]string }

func (a adminOnly) MountAdmin(*gin.RouterGroup) { *a.calls = append(*a.calls, "admin") }

func TestRegistryMountsByPriority(t *testing.T) {
	var calls []string
	var reg Registry
	reg.Register(
		recorder{name: "late", priority: 50, calls: &calls},
		adminOnly{calls: &calls},
		recorder{name: "early", priority: 1, calls: &calls},
		"not a module",
	)

	r := gin.New()
	reg.MountRoot(r)
	reg.MountAPI(r.Group("/api"))
	reg.MountAdmin(r.Group("/admin"))

	assert.Equal(t, []string{"root:early", "root:late", "api:early", "api:late", "admin"}, calls)
}
