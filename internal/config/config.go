package config

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type AppCfg struct {
	Env  string
	Port string
}

type DBCfg struct{ DSN string }

// RedisCfg configures the optional payment-event bridge. Addr empty = disabled.
type RedisCfg struct {
	Addr         string
	EventChannel string
}

type SecurityCfg struct {
	AdminToken string // guards the /admin payment approval API
}

// BankAccount is one account a payer can transfer into. Display data only.
type BankAccount struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// ProviderCfg is the static descriptor for one payment provider. Read-only at
// runtime: availability is derived from it, never written back.
type ProviderCfg struct {
	Enabled             bool
	TestMode            bool
	DisplayName         string
	Description         string
	Instructions        string
	SupportedCurrencies []string
	MinAmount           decimal.Decimal
	MaxAmount           decimal.Decimal
	BankAccounts        []BankAccount
}

type ProvidersCfg struct {
	BankTransfer ProviderCfg
	Stripe       ProviderCfg
}

// WorkerCfg drives the stale-payment expiry loop.
type WorkerCfg struct {
	PendingTTL time.Duration
	PollEvery  time.Duration
}

type Cfg struct {
	App       AppCfg
	DB        DBCfg
	Redis     RedisCfg
	Sec       SecurityCfg
	Providers ProvidersCfg
	Worker    WorkerCfg
}

func Load() Cfg {
	// .env is optional; real deployments set process env directly
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", "sandbox")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ADMIN_TOKEN", "")
	viper.SetDefault("REDIS_EVENT_CHANNEL", "lavapay.payment.events")
	viper.SetDefault("PENDING_TTL_HOURS", 72)
	viper.SetDefault("EXPIRE_POLL_MINUTES", 15)

	viper.SetDefault("BANK_TRANSFER_ENABLED", true)
	viper.SetDefault("BANK_TRANSFER_CURRENCIES", "DOP")
	viper.SetDefault("BANK_TRANSFER_MIN_AMOUNT", "100")
	viper.SetDefault("BANK_TRANSFER_MAX_AMOUNT", "500000")

	viper.SetDefault("STRIPE_ENABLED", false)
	viper.SetDefault("STRIPE_CURRENCIES", "USD")
	viper.SetDefault("STRIPE_MIN_AMOUNT", "1")
	viper.SetDefault("STRIPE_MAX_AMOUNT", "0")

	cfg := Cfg{
		App: AppCfg{
			Env:  viper.GetString("APP_ENV"),
			Port: viper.GetString("APP_PORT"),
		},
		DB: DBCfg{DSN: viper.GetString("DB_DSN")},
		Redis: RedisCfg{
			Addr:         viper.GetString("REDIS_ADDR"),
			EventChannel: viper.GetString("REDIS_EVENT_CHANNEL"),
		},
		Sec: SecurityCfg{
			AdminToken: strings.TrimSpace(viper.GetString("ADMIN_TOKEN")),
		},
		Providers: ProvidersCfg{
			BankTransfer: ProviderCfg{
				Enabled:             viper.GetBool("BANK_TRANSFER_ENABLED"),
				TestMode:            viper.GetString("APP_ENV") != "production",
				DisplayName:         "Transferencia Bancaria",
				Description:         "Pago manual por transferencia o depósito bancario",
				Instructions:        "Realice la transferencia a una de las cuentas listadas y suba el comprobante.",
				SupportedCurrencies: splitCSV(viper.GetString("BANK_TRANSFER_CURRENCIES")),
				MinAmount:           mustDecimal("BANK_TRANSFER_MIN_AMOUNT"),
				MaxAmount:           mustDecimal("BANK_TRANSFER_MAX_AMOUNT"),
				BankAccounts:        loadBankAccounts(),
			},
			Stripe: ProviderCfg{
				Enabled:             viper.GetBool("STRIPE_ENABLED"),
				TestMode:            viper.GetString("APP_ENV") != "production",
				DisplayName:         "Tarjeta de Crédito/Débito",
				Description:         "Pago con tarjeta procesado por Stripe",
				Instructions:        "Los pagos con tarjeta aún no están disponibles.",
				SupportedCurrencies: splitCSV(viper.GetString("STRIPE_CURRENCIES")),
				MinAmount:           mustDecimal("STRIPE_MIN_AMOUNT"),
				MaxAmount:           mustDecimal("STRIPE_MAX_AMOUNT"),
			},
		},
		Worker: WorkerCfg{
			PendingTTL: time.Duration(viper.GetInt("PENDING_TTL_HOURS")) * time.Hour,
			PollEvery:  time.Duration(viper.GetInt("EXPIRE_POLL_MINUTES")) * time.Minute,
		},
	}

	if cfg.DB.DSN == "" {
		log.Fatal().Msg("DB_DSN is required")
	}

	return cfg
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

func mustDecimal(key string) decimal.Decimal {
	raw := viper.GetString(key)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", raw).Msg("invalid decimal setting")
	}
	return d
}

// loadBankAccounts reads BANK_ACCOUNTS_JSON, a JSON array of accounts shown to
// payers. An empty or missing value leaves the provider without accounts, which
// only affects the instructions payload, not availability.
func loadBankAccounts() []BankAccount {
	raw := strings.TrimSpace(os.Getenv("BANK_ACCOUNTS_JSON"))
	if raw == "" {
		return nil
	}
	var accounts []BankAccount
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		log.Fatal().Err(err).Msg("BANK_ACCOUNTS_JSON must be a valid JSON array")
	}
	return accounts
}
