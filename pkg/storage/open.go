package storage

import (
	"context"
	"fmt"
	"news-rag-client/internal/config"
	"news-rag-client/pkg/database"
	"news-rag-client/pkg/log"
)

// Open 根据配置创建对应后端的 Store，并套上命名空间。
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Backend {
	case "memory":
		store = NewMemoryStore()
	case "", "sqlite":
		db, openErr := database.OpenSQLite(cfg.SQLite.Path)
		if openErr != nil {
			return nil, openErr
		}
		store, err = NewGormStore(db)
	case "mysql":
		db, openErr := database.OpenMySQL(cfg.MySQL.DSN)
		if openErr != nil {
			return nil, openErr
		}
		store, err = NewGormStore(db)
	case "redis":
		rdb, openErr := database.NewRedis(ctx, cfg.Redis)
		if openErr != nil {
			return nil, openErr
		}
		store = NewRedisStore(rdb)
	case "minio":
		store, err = NewMinioStore(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("未知的存储后端 %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Infow("持久化存储已就绪", "backend", cfg.Backend, "namespace", cfg.Namespace)
	return WithNamespace(store, cfg.Namespace), nil
}
