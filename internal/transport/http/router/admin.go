package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"elevate-rewards/internal/domain"
	"elevate-rewards/internal/report"
	"elevate-rewards/internal/rewards"
	"elevate-rewards/internal/session"
	"elevate-rewards/internal/transport/http/ez"
	mdw "elevate-rewards/internal/transport/http/middleware"
	resp "elevate-rewards/internal/transport/http/response"
)

// NewAdminEngine serves the back-office routes; every /admin/v1 call
// requires an admin session.
func NewAdminEngine(l *zap.Logger, f *rewards.Facade, m *session.Manager) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(50, 100),
		mdw.ConcurrencyLimit(100),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(30*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(l),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthSession(m, domain.RoleAdmin))
	mountAdmin(admin, f)

	return r
}

func mountAdmin(admin *gin.RouterGroup, f *rewards.Facade) {
	ezAdmin := ez.New(admin)

	ezAdmin.GET("/report", func(c *gin.Context) (any, error) {
		var p report.Params
		if err := c.ShouldBindQuery(&p); err != nil {
			return nil, ez.BadRequest(err.Error())
		}
		return f.AdminReport(c.Request.Context(), &p)
	})

	// Upload accepts an xlsx under "file"; with no file attached the
	// batch is simulated instead, as the mock API did.
	admin.POST("/upload", func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			out, uerr := f.Upload(c.Request.Context(), nil)
			finishUpload(c, out, uerr)
			return
		}
		file, err := fh.Open()
		if err != nil {
			ez.Fail(c, ez.BadRequest("arquivo inválido: "+err.Error()))
			return
		}
		defer file.Close()
		out, uerr := f.Upload(c.Request.Context(), file)
		finishUpload(c, out, uerr)
	})
}

func finishUpload(c *gin.Context, out rewards.UploadResult, err error) {
	if err != nil {
		ez.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(out))
}
