package config

type AppConfig struct {
	APIPort string `env:"PORT" envDefault:"12222"`
	APIKey  string `env:"API_KEY,required"`

	// SiteURL is the public base used to build fix links and tracking pixels.
	SiteURL   string `env:"SITE_URL" envDefault:"http://localhost:12222"`
	UploadDir string `env:"UPLOAD_DIR" envDefault:"data/uploads"`
}

type SMTPServerConfig struct {
	ListenAddr string `env:"SMTP_LISTEN_ADDR" envDefault:":25"`
	Domain     string `env:"SMTP_DOMAIN" envDefault:"localhost"`

	// RecipientPrefix restricts accepted envelope recipients to one receiving
	// identity, e.g. "receipts@".
	RecipientPrefix string `env:"SMTP_RECIPIENT_PREFIX" envDefault:"receipts@"`
	MaxMessageBytes int64  `env:"SMTP_MAX_MESSAGE_BYTES" envDefault:"26214400"`
}

type SMTPOutConfig struct {
	Host     string `env:"SMTP_OUT_HOST"`
	Port     int    `env:"SMTP_OUT_PORT" envDefault:"587"`
	Username string `env:"SMTP_OUT_USER"`
	Password string `env:"SMTP_OUT_PASS"`
	From     string `env:"SMTP_OUT_FROM"`
}

type AnalysisAPIConfig struct {
	Url       string `env:"ANALYSIS_API_URL" envDefault:"https://api.anthropic.com"`
	ApiKey    string `env:"ANALYSIS_API_KEY,required"`
	Model     string `env:"ANALYSIS_MODEL" envDefault:"claude-sonnet-4-20250514"`
	MaxTokens int    `env:"ANALYSIS_MAX_TOKENS" envDefault:"2048"`
}

type DatabaseConfig struct {
	Host            string `env:"POSTGRES_HOST,required"`
	Port            string `env:"POSTGRES_PORT,required"`
	User            string `env:"POSTGRES_USER,required"`
	DBName          string `env:"POSTGRES_DB_NAME,required"`
	Password        string `env:"POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
}

type S3StorageConfig struct {
	Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"S3_ACCESS_KEY_SECRET"`
	ReceiptBucket   string `env:"S3_BUCKET_RECEIPTS" envDefault:"receipts"`

	// PathPrefix is the logical root for synced receipt files.
	PathPrefix string `env:"S3_PATH_PREFIX" envDefault:"Receipts"`
}

type CronConfig struct {
	// Schedule for the periodic fix-notification sweep; empty disables it.
	FixNotificationSchedule string `env:"CRON_SCHEDULE_FIX_NOTIFICATIONS" envDefault:"@every 1h"`
}
