package handlers

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
	started  = time.Now()
)

// SetRouter remembers the engine so /api/routes can list it.
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	router = r
	routerMu.Unlock()
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tableadmin",
		"uptime":  time.Since(started).Round(time.Second).String(),
	})
}

// Routes lists the registered console routes sorted by path.
func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		RespondError(c, http.StatusServiceUnavailable, "router not ready", nil)
		return
	}

	infos := r.Routes()
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Path == infos[j].Path {
			return infos[i].Method < infos[j].Method
		}
		return infos[i].Path < infos[j].Path
	})
	out := make([]string, 0, len(infos))
	for _, rt := range infos {
		out = append(out, rt.Method+" "+rt.Path)
	}
	c.JSON(http.StatusOK, gin.H{"routes": out, "count": len(out)})
}
