package resource

import (
	"sync"

	"gorm.io/gorm"

	"video-ingest-service/ddd/infrastructure/database/po"
	"video-ingest-service/pkg/assert"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/manager"
	"video-ingest-service/pkg/repository"
)

var (
	mysqlResourceOnce sync.Once
	mysqlSingleton    *MysqlResource
)

// MysqlResource 主库连接
type MysqlResource struct {
	database *repository.Database
}

// DefaultMysqlResource 获取MySQL资源单例
func DefaultMysqlResource() *MysqlResource {
	assert.NotCircular()
	mysqlResourceOnce.Do(func() {
		mysqlSingleton = &MysqlResource{}
	})
	assert.NotNil(mysqlSingleton)
	return mysqlSingleton
}

// MustOpen 建立连接，按配置执行表结构迁移
func (r *MysqlResource) MustOpen() {
	if r.database != nil {
		return
	}
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before MysqlResource")
	}

	database, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		panic("failed to connect mysql: " + err.Error())
	}
	r.database = database

	if cfg.Database.AutoMigrate {
		if err := po.AutoMigrate(database.Self); err != nil {
			panic("failed to migrate mysql schema: " + err.Error())
		}
		logger.Infof("MySQL schema migrated database=%s", cfg.Database.Database)
	}
}

// MainDB 主库 gorm 句柄
func (r *MysqlResource) MainDB() *gorm.DB {
	if r.database == nil {
		return nil
	}
	return r.database.Self
}

func (r *MysqlResource) Close() {
	if r.database != nil {
		_ = r.database.Close()
		r.database = nil
	}
}

// MySqlResourcePlugin MySQL资源插件
type MySqlResourcePlugin struct{}

func (p *MySqlResourcePlugin) Name() string {
	return "mysqlResource"
}

func (p *MySqlResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultMysqlResource()
}
