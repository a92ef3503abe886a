package config

import (
	"fmt"
	"log"
	"time"

	"storefront/internal/domain"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Receipts ReceiptConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// StoreConfig carries the pricing parameters of the store.
type StoreConfig struct {
	FoodMarkup              float64
	NonFoodMarkup           float64
	ExpirationThresholdDays int
	ExpirationDiscount      float64
}

// ReceiptConfig controls durable receipt persistence.
type ReceiptConfig struct {
	OutputDir                string
	MaxRetryAttempts         int
	RetryDelay               time.Duration
	FatalDirCreationFailure  bool
	CreateMissingDirectories bool
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("STORE_FOOD_MARKUP", 0.20)
	viper.SetDefault("STORE_NONFOOD_MARKUP", 0.30)
	viper.SetDefault("STORE_EXPIRATION_THRESHOLD_DAYS", 7)
	viper.SetDefault("STORE_EXPIRATION_DISCOUNT", 0.15)
	viper.SetDefault("RECEIPT_OUTPUT_DIR", "output/receipts")
	viper.SetDefault("RECEIPT_MAX_RETRY_ATTEMPTS", 3)
	viper.SetDefault("RECEIPT_RETRY_DELAY_MS", 1000)
	viper.SetDefault("RECEIPT_FATAL_DIR_CREATION_FAILURE", true)
	viper.SetDefault("RECEIPT_CREATE_MISSING_DIRECTORIES", true)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Store: StoreConfig{
			FoodMarkup:              viper.GetFloat64("STORE_FOOD_MARKUP"),
			NonFoodMarkup:           viper.GetFloat64("STORE_NONFOOD_MARKUP"),
			ExpirationThresholdDays: viper.GetInt("STORE_EXPIRATION_THRESHOLD_DAYS"),
			ExpirationDiscount:      viper.GetFloat64("STORE_EXPIRATION_DISCOUNT"),
		},
		Receipts: ReceiptConfig{
			OutputDir:                viper.GetString("RECEIPT_OUTPUT_DIR"),
			MaxRetryAttempts:         viper.GetInt("RECEIPT_MAX_RETRY_ATTEMPTS"),
			RetryDelay:               time.Duration(viper.GetInt("RECEIPT_RETRY_DELAY_MS")) * time.Millisecond,
			FatalDirCreationFailure:  viper.GetBool("RECEIPT_FATAL_DIR_CREATION_FAILURE"),
			CreateMissingDirectories: viper.GetBool("RECEIPT_CREATE_MISSING_DIRECTORIES"),
		},
	}
}

// Validate rejects configurations that would let an invalid sale be
// attempted. Called once at startup, before any component is built.
func (c *Config) Validate() error {
	for _, rate := range []float64{c.Store.FoodMarkup, c.Store.NonFoodMarkup, c.Store.ExpirationDiscount} {
		if rate < 0 {
			return &domain.NegativePercentageError{Value: rate}
		}
	}
	if c.Store.ExpirationThresholdDays < 0 {
		return fmt.Errorf("expiration threshold days must not be negative, got %d", c.Store.ExpirationThresholdDays)
	}
	if c.Receipts.MaxRetryAttempts < 1 {
		return fmt.Errorf("max retry attempts must be positive, got %d", c.Receipts.MaxRetryAttempts)
	}
	if c.Receipts.RetryDelay <= 0 {
		return fmt.Errorf("retry delay must be positive, got %s", c.Receipts.RetryDelay)
	}
	if c.Receipts.OutputDir == "" {
		return fmt.Errorf("receipt output directory must not be empty")
	}
	return nil
}
