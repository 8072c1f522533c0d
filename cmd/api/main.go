package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"Memeologia/internal/config"
	"Memeologia/internal/handler"
	"Memeologia/internal/middleware"
	"Memeologia/internal/pkg"
	"Memeologia/internal/repository/mongo"
	"Memeologia/internal/repository/mysql"
	"Memeologia/internal/repository/redis"
	"Memeologia/internal/router"
	"Memeologia/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := pkg.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 连接mysql并建表
	db, err := mysql.Open(cfg.MySQLDSN)
	if err != nil {
		log.Fatal("mysql connect failed", zap.Error(err))
	}
	defer func() { _ = mysql.Close(db) }()
	if err := mysql.Migrate(db); err != nil {
		log.Fatal("mysql migrate failed", zap.Error(err))
	}

	// 连接mongo
	mongoClient, err := mongo.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	mdb := mongoClient.Database(cfg.MongoDatabase)
	if err := mongo.EnsureIndexes(ctx, mdb); err != nil {
		log.Fatal("mongo indexes failed", zap.Error(err))
	}

	// 连接redis
	rdb, err := redis.Open(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("redis connect failed", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	kafkaCfg := pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic, GroupID: cfg.KafkaGroupID}
	producer, err := pkg.NewKafkaProducer(kafkaCfg)
	if err != nil {
		log.Fatal("kafka producer init failed", zap.Error(err))
	}
	defer func() { _ = producer.Close() }()
	reader := pkg.NewKafkaReader(kafkaCfg)
	defer func() { _ = reader.Close() }()

	uploader, err := pkg.NewS3Uploader(pkg.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		log.Fatal("s3 init failed", zap.Error(err))
	}
	mailer := pkg.NewMailer(pkg.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	accounts := &mysql.AccountRepository{DB: db}
	outbox := &mysql.OutboxRepository{DB: db}
	memes := mongo.NewMemeRepository(mdb)
	comments := mongo.NewCommentRepository(mdb)
	sessions := redis.NewSessionRepository(rdb, cfg.AccessTTL)
	issuer := pkg.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	policy := service.ReportPolicy{Threshold: cfg.ReportThreshold, Moderators: cfg.ModeratorEmails}
	r := router.New(router.Deps{
		Accounts:     service.NewAccountService(accounts, sessions, uploader, issuer, log),
		Memes:        service.NewMemeService(memes, accounts, uploader, mailer, policy, log),
		Comments:     service.NewCommentService(comments, accounts),
		Feed:         service.NewFeedService(memes, comments, accounts),
		Issuer:       issuer,
		Sessions:     sessions,
		LoginLimiter: middleware.NewRateLimiter(cfg.LoginRatePerSecond, cfg.LoginBurst),
		Metrics:      middleware.NewMetrics(),
		Health: []handler.Check{
			{Name: "mysql", Ping: accounts.Ping},
			{Name: "mongo", Ping: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }},
			{Name: "redis", Ping: sessions.Ping},
		},
		Log: log,
	})

	// 后台任务：outbox 投递和账号删除后的内容清理
	var wg sync.WaitGroup
	relayer := service.NewOutboxRelayer(outbox, service.KafkaSender(producer), log)
	consumer := service.NewCleanupConsumer(reader, memes, comments, log)
	wg.Add(2)
	go func() { defer wg.Done(); relayer.Run(ctx) }()
	go func() { defer wg.Done(); consumer.Run(ctx) }()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	wg.Wait()
}
