package config

import (
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	DBType     string `env:"DBType" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DBUser" envDefault:""`
	DBPassword string `env:"DBPassword" envDefault:""`
	DBAddr     string `env:"DBAddr" envDefault:""`
	DBName     string `env:"DBName" envDefault:"fileharbor"`
	DBPath     string `env:"DBPath" envDefault:"datas/fileharbor.db"`
	DBPort     string `env:"DBPort" envDefault:"3306"`

	StorageDriver        string `env:"STORAGE_DRIVER" envDefault:"local"`
	StorageLocalDir      string `env:"STORAGE_LOCAL_DIR" envDefault:"datas/uploads"`
	StoragePublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL" envDefault:"/files"`

	// S3 存储配置
	StorageS3Region          string `env:"STORAGE_S3_REGION"`
	StorageS3Bucket          string `env:"STORAGE_S3_BUCKET"`
	StorageS3Prefix          string `env:"STORAGE_S3_PREFIX"`
	StorageS3Endpoint        string `env:"STORAGE_S3_ENDPOINT"`
	StorageS3AccessKeyID     string `env:"STORAGE_S3_ACCESS_KEY_ID"`
	StorageS3SecretAccessKey string `env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	StorageS3SessionToken    string `env:"STORAGE_S3_SESSION_TOKEN"`
	StorageS3ForcePathStyle  bool   `env:"STORAGE_S3_FORCE_PATH_STYLE" envDefault:"false"`

	// Wasabi 存储配置（S3 兼容）
	StorageWasabiRegion          string `env:"STORAGE_WASABI_REGION" envDefault:"us-east-1"`
	StorageWasabiEndpoint        string `env:"STORAGE_WASABI_ENDPOINT" envDefault:"https://s3.wasabisys.com"`
	StorageWasabiBucket          string `env:"STORAGE_WASABI_BUCKET"`
	StorageWasabiPrefix          string `env:"STORAGE_WASABI_PREFIX"`
	StorageWasabiAccessKeyID     string `env:"STORAGE_WASABI_ACCESS_KEY_ID"`
	StorageWasabiSecretAccessKey string `env:"STORAGE_WASABI_SECRET_ACCESS_KEY"`

	// Azure Blob 存储配置
	StorageAzureAccount   string `env:"STORAGE_AZURE_ACCOUNT"`
	StorageAzureKey       string `env:"STORAGE_AZURE_KEY"`
	StorageAzureContainer string `env:"STORAGE_AZURE_CONTAINER"`

	// 阿里云 OSS 存储配置
	StorageOSSEndpoint        string `env:"STORAGE_OSS_ENDPOINT"`
	StorageOSSBucket          string `env:"STORAGE_OSS_BUCKET"`
	StorageOSSPrefix          string `env:"STORAGE_OSS_PREFIX"`
	StorageOSSAccessKeyID     string `env:"STORAGE_OSS_ACCESS_KEY_ID"`
	StorageOSSAccessKeySecret string `env:"STORAGE_OSS_ACCESS_KEY_SECRET"`

	// 腾讯云 COS 存储配置
	StorageCOSBucketURL string `env:"STORAGE_COS_BUCKET_URL"`
	StorageCOSPrefix    string `env:"STORAGE_COS_PREFIX"`
	StorageCOSSecretID  string `env:"STORAGE_COS_SECRET_ID"`
	StorageCOSSecretKey string `env:"STORAGE_COS_SECRET_KEY"`

	MaxUploadSizeMB       int    `env:"MAX_UPLOAD_SIZE_MB" envDefault:"8"`
	AllowedMimeTypes      string `env:"ALLOWED_MIME_TYPES" envDefault:"image/jpeg,image/png,image/webp,image/heic"`
	OrphanedRetentionDays int    `env:"ORPHANED_RETENTION_DAYS" envDefault:"30"`

	JWTSecret           string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer           string `env:"JWT_ISSUER" envDefault:"fileharbor"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLHours  int    `env:"JWT_REFRESH_TTL_HOURS" envDefault:"168"`
	JWTResetTTLMinutes  int    `env:"JWT_RESET_TTL_MINUTES" envDefault:"60"`

	AMQPURL        string `env:"AMQP_URL" envDefault:""`
	NotifyExchange string `env:"NOTIFY_EXCHANGE" envDefault:"fileharbor.notifications"`
	MailFrom       string `env:"MAIL_FROM" envDefault:"no-reply@fileharbor.local"`
	FrontendURL    string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	SeedOwnerEmail    string `env:"SEED_OWNER_EMAIL" envDefault:""`
	SeedOwnerUsername string `env:"SEED_OWNER_USERNAME" envDefault:"owner"`
	SeedOwnerPassword string `env:"SEED_OWNER_PASSWORD" envDefault:""`
}

func ParseConfig() (Config, error) {
	var Conf Config
	err := env.Parse(&Conf)
	if err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	logrus.Debugf("%#v\n", Conf)
	return Conf, nil
}

// AllowedMimeList splits the configured MIME allow-list into trimmed entries.
func (c Config) AllowedMimeList() []string {
	parts := strings.Split(c.AllowedMimeTypes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
