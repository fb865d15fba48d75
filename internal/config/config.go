package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL         string  `env:"DATABASE_URL,required"`
	TelegramBotToken    string  `env:"TELEGRAM_BOT_TOKEN,required"`
	GatewayBaseURL      string  `env:"GATEWAY_BASE_URL,required"`
	GatewayClientID     string  `env:"GATEWAY_CLIENT_ID,required"`
	GatewayClientSecret string  `env:"GATEWAY_CLIENT_SECRET,required"`
	WebhookURL          string  `env:"WEBHOOK_URL,required"`
	EbookPath           string  `env:"EBOOK_PATH" envDefault:"./ebook.pdf"`
	AdminIDs            []int64 `env:"ADMIN_IDS" envSeparator:","`
	Port                int     `env:"PORT" envDefault:"8080"`
	LogLevel            string  `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv              string  `env:"APP_ENV" envDefault:"production"`

	ProductPrice string `env:"PRODUCT_PRICE" envDefault:"19.90"`
	CommissionL1 string `env:"COMMISSION_L1" envDefault:"6.00"`
	CommissionL2 string `env:"COMMISSION_L2" envDefault:"3.00"`
	WithdrawMin  string `env:"WITHDRAW_MIN" envDefault:"50.00"`
	WithdrawFee  string `env:"WITHDRAW_FEE" envDefault:"4.90"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
