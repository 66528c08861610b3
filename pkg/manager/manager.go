package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/task"
)

// Resource 进程级资源（数据库连接、客户端等）
type Resource interface {
	MustOpen()
	Close()
}

// ResourcePlugin 资源插件
type ResourcePlugin interface {
	Name() string
	MustCreateResource() Resource
}

// Component 随进程启停的组件（消费者、后台任务）
type Component interface {
	Start() error
	Stop() error
	GetName() string
}

// ComponentPlugin 组件插件
type ComponentPlugin interface {
	Name() string
	MustCreateComponent(deps *Dependencies) Component
}

// Controller HTTP 控制器
type Controller interface {
	RegisterRoutes(engine *gin.Engine)
}

// ControllerPlugin 控制器插件
type ControllerPlugin interface {
	Name() string
	MustCreateController() Controller
}

// Dependencies 依赖注入容器。应用服务以 interface{} 保存，避免 pkg 反向依赖 ddd 层
type Dependencies struct {
	DB           *gorm.DB
	Config       *config.Config
	VideoApp     interface{}
	ReconcileApp interface{}
}

type registry struct {
	mu                sync.Mutex
	resourcePlugins   []ResourcePlugin
	componentPlugins  []ComponentPlugin
	controllerPlugins []ControllerPlugin
	resources         []Resource
	components        []Component
}

var defaultRegistry = &registry{}

// RegisterResourcePlugin 在 init 中注册资源插件
func RegisterResourcePlugin(p ResourcePlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.resourcePlugins = append(defaultRegistry.resourcePlugins, p)
}

// RegisterComponentPlugin 在 init 中注册组件插件
func RegisterComponentPlugin(p ComponentPlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.componentPlugins = append(defaultRegistry.componentPlugins, p)
}

// RegisterControllerPlugin 在 init 中注册控制器插件
func RegisterControllerPlugin(p ControllerPlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.controllerPlugins = append(defaultRegistry.controllerPlugins, p)
}

// MustInitResources 按注册顺序打开所有资源，失败直接 panic
func MustInitResources() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, p := range defaultRegistry.resourcePlugins {
		res := p.MustCreateResource()
		res.MustOpen()
		defaultRegistry.resources = append(defaultRegistry.resources, res)
		logger.Infof("Resource opened name=%s", p.Name())
	}
}

// CloseResources 逆序关闭资源
func CloseResources() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for i := len(defaultRegistry.resources) - 1; i >= 0; i-- {
		defaultRegistry.resources[i].Close()
	}
	defaultRegistry.resources = nil
}

// MustInitComponents 创建并启动所有组件，随后启动组件登记的后台任务
func MustInitComponents(deps *Dependencies) {
	defaultRegistry.mu.Lock()
	for _, p := range defaultRegistry.componentPlugins {
		c := p.MustCreateComponent(deps)
		if c == nil {
			continue
		}
		if err := c.Start(); err != nil {
			defaultRegistry.mu.Unlock()
			panic(fmt.Sprintf("failed to start component %s: %v", p.Name(), err))
		}
		defaultRegistry.components = append(defaultRegistry.components, c)
		logger.Infof("Component started name=%s", c.GetName())
	}
	defaultRegistry.mu.Unlock()

	if err := task.StartAll(context.Background()); err != nil {
		panic(fmt.Sprintf("failed to start background tasks: %v", err))
	}
}

// RegisterAllRoutes 注册所有控制器路由
func RegisterAllRoutes(engine *gin.Engine) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, p := range defaultRegistry.controllerPlugins {
		p.MustCreateController().RegisterRoutes(engine)
		logger.Debug("Controller routes registered", map[string]interface{}{"controller": p.Name()})
	}
}

// Shutdown 停止后台任务与组件
func Shutdown() {
	task.StopAll()
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for i := len(defaultRegistry.components) - 1; i >= 0; i-- {
		c := defaultRegistry.components[i]
		if err := c.Stop(); err != nil {
			logger.Warnf("Component stop failed name=%s error=%v", c.GetName(), err)
		}
	}
	defaultRegistry.components = nil
}
