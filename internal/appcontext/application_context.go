package appcontext

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/storage"
	"github.com/RoyceAzure/lab/bikemarket/internal/config"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/cache"
	rjkafka "github.com/RoyceAzure/lab/bikemarket/internal/infra/kafka"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/limiter"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/mail"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/producer"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/repository/redis_repo"
	blobstorage "github.com/RoyceAzure/lab/bikemarket/internal/infra/storage"
	"github.com/RoyceAzure/lab/bikemarket/internal/service"
	"github.com/RoyceAzure/lab/bikemarket/internal/util/token"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	listingCachePrefix = "listings"
	bannerCachePrefix  = "banners"
	rateLimitPrefix    = "rate_limit"
)

type ApplicationContext struct {
	Cf           *config.Config
	DbConn       *gorm.DB
	DbDao        *db.UnifiedDBImpl
	RedisClient  *redis.Client
	ListingCache *service.ListingCache
	SessionStore *redis_repo.SessionRepo
	GcsClient    *storage.Client
	BlobStore    service.BlobStore
	Mailer       service.Mailer
	TokenMaker   *token.JWTMaker
	Producer     producer.IListingEventProducer
	RateLimiter  limiter.Limiter

	CatalogService service.ICatalogService
	OrderService   service.IOrderService
	SupportService service.ISupportService
	ReportService  service.IReportService
	AccountService service.IAccountService
}

func NewApplicationContext(cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf: cf,
	}
	err := app.Init()
	if err != nil {
		return nil, err
	}

	return &app, nil
}

// NewCacheContext consume-listing-events 只需要 redis 與快取
func NewCacheContext(cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf: cf,
	}
	if err := app.setUpRedis(); err != nil {
		return nil, err
	}
	if err := app.setUpListingCache(); err != nil {
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init() error {
	steps := []func() error{
		app.setUpdbConn,
		app.setUpdbDao,
		app.setUpRedis,
		app.setUpListingCache,
		app.setUpSessionStore,
		app.setUpBlobStore,
		app.setUpMailer,
		app.setTokenMaker,
		app.setUpProducer,
		app.setUpRateLimiter,
		app.setUpServices,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (app *ApplicationContext) setUpdbConn() error {
	log.Printf("Start setup database connection")
	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	if err != nil {
		return err
	}
	app.DbConn = conn
	log.Printf("Finish setup database connection")
	return nil
}

func (app *ApplicationContext) setUpdbDao() error {
	log.Printf("Start setup database DAO")
	app.DbDao = db.NewUnifiedDB(app.DbConn)
	log.Printf("Finish setup database DAO")
	return nil
}

func (app *ApplicationContext) setUpRedis() error {
	log.Printf("Start setup redis client")
	client := redis.NewClient(&redis.Options{
		Addr:     app.Cf.RedisAddr,
		Password: app.Cf.RedisPassword,
		DB:       app.Cf.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	app.RedisClient = client
	log.Printf("Finish setup redis client")
	return nil
}

func (app *ApplicationContext) setUpListingCache() error {
	log.Printf("Start setup listing cache")
	app.ListingCache = service.NewListingCache(
		cache.NewRedisCache(app.RedisClient, listingCachePrefix),
		cache.NewRedisCache(app.RedisClient, bannerCachePrefix),
		app.Cf.ListingCacheTTL,
		app.Cf.BannerCacheTTL,
	)
	log.Printf("Finish setup listing cache")
	return nil
}

func (app *ApplicationContext) setUpSessionStore() error {
	log.Printf("Start setup session store")
	app.SessionStore = redis_repo.NewSessionRepo(app.RedisClient, app.Cf.SessionTTL)
	log.Printf("Finish setup session store")
	return nil
}

func (app *ApplicationContext) setUpBlobStore() error {
	log.Printf("Start setup blob store")
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create gcs client: %w", err)
	}
	store, err := blobstorage.NewGCSBlobStore(client, app.Cf.GcsBucket)
	if err != nil {
		client.Close()
		return err
	}
	app.GcsClient = client
	app.BlobStore = store
	log.Printf("Finish setup blob store")
	return nil
}

func (app *ApplicationContext) setUpMailer() error {
	log.Printf("Start setup mailer")
	mailer, err := mail.NewSendGridMailer(app.Cf.SendGridAPIKey, app.Cf.EmailAccount)
	if err != nil {
		return err
	}
	app.Mailer = mailer
	log.Printf("Finish setup mailer")
	return nil
}

func (app *ApplicationContext) setTokenMaker() error {
	log.Printf("Start setup token maker")
	tokenMaker, err := token.NewJWTMaker(app.Cf.AuthTokenKey, app.Cf.ActivationTokenKey)
	if err != nil {
		return fmt.Errorf("無法創建 token maker: %w", err)
	}
	app.TokenMaker = tokenMaker
	log.Printf("Finish setup token maker")
	return nil
}

// KafkaConfig 由設定組出 listing 事件的 kafka 設定
func KafkaConfig(cf *config.Config) *rjkafka.Config {
	kcfg := rjkafka.DefaultConfig()
	kcfg.Brokers = cf.KafkaBrokerList()
	if cf.KafkaListingTopic != "" {
		kcfg.Topic = cf.KafkaListingTopic
	}
	if cf.KafkaGroupID != "" {
		kcfg.GroupID = cf.KafkaGroupID
	}
	return kcfg
}

// 沒有設定 kafka 時只在本機清快取
func (app *ApplicationContext) setUpProducer() error {
	log.Printf("Start setup listing event producer")
	kcfg := KafkaConfig(app.Cf)
	if len(kcfg.Brokers) == 0 {
		log.Printf("KAFKA_BROKERS is empty, listing events are not published")
		return nil
	}
	p, err := producer.NewKafkaListingEventProducer(kcfg)
	if err != nil {
		return err
	}
	app.Producer = p
	log.Printf("Finish setup listing event producer")
	return nil
}

func (app *ApplicationContext) setUpRateLimiter() error {
	log.Printf("Start setup rate limiter")
	app.RateLimiter = limiter.NewRedisTokenBucket(app.RedisClient, &limiter.LimiterConfig{
		Prefix:   rateLimitPrefix,
		Capacity: app.Cf.RateLimitCapacity,
		RatePS:   app.Cf.RateLimitRatePS,
	})
	log.Printf("Finish setup rate limiter")
	return nil
}

func (app *ApplicationContext) setUpServices() error {
	log.Printf("Start setup services")
	var publisher service.ListingEventPublisher
	if app.Producer != nil {
		publisher = app.Producer
	}
	app.CatalogService = service.NewCatalogService(app.DbDao, app.ListingCache, app.BlobStore, publisher)
	app.OrderService = service.NewOrderService(app.DbDao)
	app.SupportService = service.NewSupportService(app.DbDao, app.DbDao)
	app.ReportService = service.NewReportService(app.DbDao, app.DbDao)
	app.AccountService = service.NewAccountService(app.DbDao, app.BlobStore, app.Mailer, app.TokenMaker)
	log.Printf("Finish setup services")
	return nil
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	log.Printf("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		var errs []error
		if app.Producer != nil {
			log.Printf("Closing listing event producer...")
			errs = append(errs, app.Producer.Close())
		}
		if app.GcsClient != nil {
			log.Printf("Closing gcs client...")
			errs = append(errs, app.GcsClient.Close())
		}
		if app.RedisClient != nil {
			log.Printf("Closing redis client...")
			errs = append(errs, app.RedisClient.Close())
		}
		if app.DbConn != nil {
			log.Printf("Closing database connection...")
			if sqlDB, err := app.DbConn.DB(); err == nil {
				errs = append(errs, sqlDB.Close())
			}
		}
		log.Printf("Application shutdown complete")
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %v", ctx.Err())
	}
}
