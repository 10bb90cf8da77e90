// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	// Встроенная база часовых поясов для контейнеров без tzdata.
	_ "time/tzdata"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	Timezone                string `yaml:"timezone" env-default:"Africa/Addis_Ababa"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                RabbitMQ  `yaml:"rabbitmq"`
	Messenger               Messenger `yaml:"messenger"`
	Gateway                 Gateway   `yaml:"gateway"`
	Assistant               Assistant `yaml:"assistant"`
	Quota                   Quota     `yaml:"quota"`
	Plans                   Plans     `yaml:"plans"`
	Admin                   Admin     `yaml:"admin"`
	Scheduler               Scheduler `yaml:"scheduler"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP       string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP       time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ProcessingTimeout time.Duration `yaml:"processing_timeout" env-default:"45s"`
	RateLimit         float64       `yaml:"rate_limit" env-default:"50"`
	RateBurst         int           `yaml:"rate_burst" env-default:"100"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	DedupTTL     time.Duration `yaml:"dedup_ttl" env-default:"24h"`
}

// RabbitMQ настройки подключения к брокеру
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Messenger настройки платформы обмена сообщениями
type Messenger struct {
	APIURL      string `yaml:"api_url" env-default:"https://graph.facebook.com/v19.0"`
	PageToken   string `yaml:"page_token" env:"MESSENGER_PAGE_TOKEN"`
	AppSecret   string `yaml:"app_secret" env:"MESSENGER_APP_SECRET"`
	VerifyToken string `yaml:"verify_token" env:"MESSENGER_VERIFY_TOKEN"`
	// Delivery — "direct" (HTTP из процесса бота) или "queue" (через RabbitMQ)
	Delivery string        `yaml:"delivery" env-default:"direct"`
	Timeout  time.Duration `yaml:"timeout" env-default:"10s"`
}

// Gateway настройки платёжного шлюза мобильных денег
type Gateway struct {
	BaseURL             string        `yaml:"base_url" env-default:"https://sandbox.momodeveloper.mtn.com"`
	SubscriptionKey     string        `yaml:"subscription_key" env:"GATEWAY_SUBSCRIPTION_KEY"`
	APIUser             string        `yaml:"api_user" env:"GATEWAY_API_USER"`
	APIKey              string        `yaml:"api_key" env:"GATEWAY_API_KEY"`
	TargetEnvironment   string        `yaml:"target_environment" env-default:"sandbox"`
	Currency            string        `yaml:"currency" env-default:"ETB"`
	CallbackURL         string        `yaml:"callback_url"`
	SandboxAutoComplete bool          `yaml:"sandbox_auto_complete"`
	Timeout             time.Duration `yaml:"timeout" env-default:"15s"`
}

// Assistant настройки сервиса генерации ответов
type Assistant struct {
	BaseURL      string        `yaml:"base_url" env-default:"https://api.openai.com/v1"`
	APIKey       string        `yaml:"api_key" env:"ASSISTANT_API_KEY"`
	Model        string        `yaml:"model" env-default:"gpt-4o-mini"`
	SystemPrompt string        `yaml:"system_prompt"`
	MaxTokens    int           `yaml:"max_tokens" env-default:"600"`
	Timeout      time.Duration `yaml:"timeout" env-default:"30s"`
}

// Quota дневные лимиты пробного периода
type Quota struct {
	TrialDailyLimit int `yaml:"trial_daily_limit" env-default:"3"`
}

// Plan описывает тарифный план
type Plan struct {
	Name         string `yaml:"name"`
	Amount       int64  `yaml:"amount"`
	DurationDays int    `yaml:"duration_days"`
	DailyLimit   int    `yaml:"daily_limit"`
}

// Plans таблица тарифов
type Plans struct {
	Weekly  Plan `yaml:"weekly"`
	Monthly Plan `yaml:"monthly"`
}

// Admin настройки доступа к административному API
type Admin struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"ADMIN_JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"1h"`
}

// Scheduler настройки планировщика напоминаний
type Scheduler struct {
	ReminderInterval time.Duration `yaml:"reminder_interval" env-default:"1h"`
	ReminderWindow   time.Duration `yaml:"reminder_window" env-default:"24h"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из файла CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла и подставляет значения по умолчанию.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	cfg.Plans.applyDefaults()
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location возвращает часовой пояс, в котором проходит граница суток.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (p *Plans) applyDefaults() {
	p.Weekly.fill(Plan{Name: "Weekly", Amount: 50, DurationDays: 7, DailyLimit: 30})
	p.Monthly.fill(Plan{Name: "Monthly", Amount: 150, DurationDays: 30, DailyLimit: 50})
}

func (p *Plan) fill(def Plan) {
	if p.Name == "" {
		p.Name = def.Name
	}
	if p.Amount == 0 {
		p.Amount = def.Amount
	}
	if p.DurationDays == 0 {
		p.DurationDays = def.DurationDays
	}
	if p.DailyLimit == 0 {
		p.DailyLimit = def.DailyLimit
	}
}
