package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config 进程配置，全部来自环境变量（可选 .env 文件）
type Config struct {
	HTTPAddr string `env:"MEME_HTTP_ADDR,default=:8080"`
	LogLevel string `env:"MEME_LOG_LEVEL,default=info"`

	MySQLDSN      string `env:"MEME_MYSQL_DSN,default=user:password@tcp(127.0.0.1:3306)/memeologia?charset=utf8mb4&parseTime=True"`
	MongoURI      string `env:"MEME_MONGO_URI,default=mongodb://127.0.0.1:27017"`
	MongoDatabase string `env:"MEME_MONGO_DATABASE,default=memeologia"`

	RedisAddr     string `env:"MEME_REDIS_ADDR,default=127.0.0.1:6379"`
	RedisPassword string `env:"MEME_REDIS_PASSWORD"`
	RedisDB       int    `env:"MEME_REDIS_DB,default=0"`

	JWTAccessSecret  string        `env:"MEME_JWT_ACCESS_SECRET,default=secret-key"`
	JWTRefreshSecret string        `env:"MEME_JWT_REFRESH_SECRET,default=refresh-key"`
	AccessTTL        time.Duration `env:"MEME_ACCESS_TTL,default=30m"`
	RefreshTTL       time.Duration `env:"MEME_REFRESH_TTL,default=24h"`

	KafkaBrokers []string `env:"MEME_KAFKA_BROKERS,default=127.0.0.1:9092"`
	KafkaTopic   string   `env:"MEME_KAFKA_TOPIC,default=account-events"`
	KafkaGroupID string   `env:"MEME_KAFKA_GROUP_ID,default=memeologia-cleanup"`

	S3Endpoint  string `env:"MEME_S3_ENDPOINT"`
	S3Region    string `env:"MEME_S3_REGION,default=us-west-2"`
	S3Bucket    string `env:"MEME_S3_BUCKET,default=memeologia"`
	S3AccessKey string `env:"MEME_S3_ACCESS_KEY"`
	S3SecretKey string `env:"MEME_S3_SECRET_KEY"`
	S3PublicURL string `env:"MEME_S3_PUBLIC_URL"`

	SMTPHost        string   `env:"MEME_SMTP_HOST,default=localhost"`
	SMTPPort        int      `env:"MEME_SMTP_PORT,default=587"`
	SMTPUser        string   `env:"MEME_SMTP_USER"`
	SMTPPassword    string   `env:"MEME_SMTP_PASSWORD"`
	SMTPFrom        string   `env:"MEME_SMTP_FROM,default=Memeologia <no-reply@memeologia.local>"`
	ModeratorEmails []string `env:"MEME_MODERATOR_EMAILS"`
	ReportThreshold int64    `env:"MEME_REPORT_THRESHOLD,default=5"`

	LoginRatePerSecond int `env:"MEME_LOGIN_RATE,default=5"`
	LoginBurst         int `env:"MEME_LOGIN_BURST,default=10"`
}

// Load 先加载 .env（不存在则忽略），再解析环境变量
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}
	return &cfg, nil
}
