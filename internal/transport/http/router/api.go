package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"elevate-rewards/internal/core/server"
	"elevate-rewards/internal/domain"
	"elevate-rewards/internal/report"
	"elevate-rewards/internal/rewards"
	"elevate-rewards/internal/session"
	"elevate-rewards/internal/transport/http/ez"
	mdw "elevate-rewards/internal/transport/http/middleware"
	resp "elevate-rewards/internal/transport/http/response"
)

// userView is what auth endpoints return; the stored record also
// carries the password and must not go on the wire.
type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func viewOf(u domain.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role)}
}

// NewAPIEngine serves the user-facing routes: registration, login and
// the caller's own statement and wallet.
func NewAPIEngine(l *zap.Logger, f *rewards.Facade, m *session.Manager) *gin.Engine {
	r := server.NewRouter(l)

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(10*time.Second),
		mdw.Metrics(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	mountAuth(api, m)

	authed := api.Group("")
	authed.Use(mdw.AuthSession(m, ""))
	mountStatement(authed, f, m)

	return r
}

func mountAuth(api *gin.RouterGroup, m *session.Manager) {
	ezPublic := ez.New(api)

	type registerIn struct {
		Name     string `json:"name"     binding:"required,max=64"`
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required,min=4"`
		Role     string `json:"role"     binding:"omitempty,oneof=admin user"`
	}
	type authOut struct {
		Token string   `json:"token"`
		User  userView `json:"user"`
	}
	ez.POST(ezPublic, "/auth/register", func(c *gin.Context, in registerIn) (any, error) {
		res, err := m.Register(c.Request.Context(), in.Name, in.Email, in.Password, domain.Role(in.Role))
		if err != nil {
			return nil, err
		}
		return authOut{Token: res.Token, User: viewOf(res.User)}, nil
	})

	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	ez.POST(ezPublic, "/auth/login", func(c *gin.Context, in loginIn) (any, error) {
		res, err := m.Login(c.Request.Context(), in.Email, in.Password)
		if err != nil {
			return nil, err
		}
		return authOut{Token: res.Token, User: viewOf(res.User)}, nil
	})
}

func mountStatement(authed *gin.RouterGroup, f *rewards.Facade, m *session.Manager) {
	ezAuth := ez.New(authed)

	ezAuth.GET("/me", func(c *gin.Context) (any, error) {
		active, err := m.Active(c.Request.Context())
		if err != nil {
			return nil, err
		}
		if active == nil {
			return nil, domain.ErrNotAuthenticated
		}
		return viewOf(active.User), nil
	})

	authed.POST("/auth/logout", func(c *gin.Context) {
		if err := m.Logout(c.Request.Context()); err != nil {
			ez.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(nil))
	})

	ezAuth.GET("/transactions/user", func(c *gin.Context) (any, error) {
		var p report.Params
		if err := c.ShouldBindQuery(&p); err != nil {
			return nil, ez.BadRequest(err.Error())
		}
		return f.UserStatement(c.Request.Context(), &p)
	})

	ezAuth.GET("/wallet", func(c *gin.Context) (any, error) {
		return f.Wallet(c.Request.Context())
	})
}
