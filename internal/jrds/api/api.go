// Package api 提供 HTTP API 层
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jimyag/jrds/internal/jrds/service"
)

// API HTTP 服务
type API struct {
	engine *gin.Engine
	server *http.Server

	instance *Instance
	snapshot *Snapshot
	database *Database
	user     *User
	flavor   *Flavor
	quota    *Quota
}

// New 创建 HTTP 服务
// 所有业务路由挂在 /api 下，租户身份由中间件从请求头解析
func New(
	address string,
	instanceService *service.InstanceService,
	snapshotService *service.SnapshotService,
	databaseService *service.DatabaseService,
	userService *service.UserService,
	flavorService *service.FlavorService,
	quotaController *service.QuotaController,
) (*API, error) {
	engine := gin.Default()
	api := &API{
		engine:   engine,
		instance: NewInstance(instanceService),
		snapshot: NewSnapshot(snapshotService),
		database: NewDatabase(databaseService),
		user:     NewUser(userService),
		flavor:   NewFlavor(flavorService),
		quota:    NewQuota(quotaController),
	}

	group := engine.Group("/api")
	group.Use(TenantRequired())
	api.instance.RegisterRoutes(group)
	api.snapshot.RegisterRoutes(group)
	api.database.RegisterRoutes(group)
	api.user.RegisterRoutes(group)
	api.flavor.RegisterRoutes(group)
	api.quota.RegisterRoutes(group)

	api.server = &http.Server{
		Addr:    address,
		Handler: engine,
	}
	return api, nil
}

// Run 启动 HTTP 服务并阻塞
func (a *API) Run(ctx context.Context) error {
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 优雅关闭 HTTP 服务
func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Name 服务名
func (a *API) Name() string {
	return "http-api"
}
