// 手动重新计算所有成绩汇总
//
// 服务内可通过 rematerialize_interval_minutes 定时执行，也可调用
// POST /api/admin/results/rematerialize。此脚本用于修改评分表后
// 或数据库导入大量 session 后离线重算。
//
// 用法: go run scripts/rematerialize.go -config configs

package main

import (
	"context"
	"flag"
	"ielts_exam_backend/internal/config"
	"ielts_exam_backend/internal/repository"
	"ielts_exam_backend/internal/service"
	"ielts_exam_backend/pkg/cache"
	"ielts_exam_backend/pkg/database"
	"ielts_exam_backend/pkg/locker"
	"ielts_exam_backend/pkg/logger"
	"log"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	// 启用 redis 时与服务共用结果锁和缓存，避免与在线物化互相覆盖
	var lk locker.Locker = locker.NewLocalLocker()
	var resultCache cache.ResultCache
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Redis 连接失败: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
		lk = locker.NewRedisLocker(rdb, cfg.Scoring.LockTTL(), cfg.Scoring.LockWait())
		resultCache = cache.NewResultCache(rdb, cfg.Scoring.ResultCacheTTL())
	}

	results := service.NewResultService(
		repository.NewSessionRepository(db),
		repository.NewResultRepository(db),
		resultCache,
		lk,
		service.SystemClock,
		service.UUIDGenerator,
		cfg.Scoring.RematerializeWorkers,
	)

	log.Println("手动触发成绩重算任务...")
	report, err := results.RematerializeAll(context.Background())
	if err != nil {
		log.Fatalf("重算失败: %v", err)
	}
	log.Printf("完成！共 %d 个，成功 %d，失败 %d", report.Total, report.Succeeded, report.Failed)
}
