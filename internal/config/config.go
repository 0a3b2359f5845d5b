package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/extractor"
	"github.com/Veraticus/spice-ledger/internal/plaid"
	"github.com/Veraticus/spice-ledger/internal/review"
)

// ImportConfig holds the settings of the import command.
type ImportConfig struct {
	Institutions      []extractor.Institution `mapstructure:"institutions"`
	Sheet             string                  `mapstructure:"sheet"`
	Workers           int                     `mapstructure:"workers"`
	ConvertToDelivery bool                    `mapstructure:"convert_to_delivery"`
}

// ExtractorOptions returns the options for the default extractor set.
func (c *ImportConfig) ExtractorOptions() extractor.Options {
	return extractor.Options{Institutions: c.Institutions, Sheet: c.Sheet}
}

// LoadImportConfig reads the import.* keys.
func LoadImportConfig() (*ImportConfig, error) {
	cfg := &ImportConfig{
		Workers:           viper.GetInt("import.workers"),
		Sheet:             viper.GetString("import.spreadsheet.sheet"),
		ConvertToDelivery: viper.GetBool("import.convert_to_delivery"),
	}

	if err := viper.UnmarshalKey("import.institutions", &cfg.Institutions); err != nil {
		return nil, fmt.Errorf("%w: import.institutions: %w", common.ErrInvalidConfig, err)
	}
	for i, inst := range cfg.Institutions {
		if inst.Name == "" {
			return nil, fmt.Errorf("%w: import.institutions[%d] needs a name", common.ErrInvalidConfig, i)
		}
		if inst.Org == "" && inst.FID == "" {
			return nil, fmt.Errorf("%w: institution %q needs an org or fid", common.ErrInvalidConfig, inst.Name)
		}
	}

	if cfg.Workers <= 0 {
		cfg.Workers = review.DefaultWorkers
	}

	return cfg, nil
}

// LoadPlaidConfig reads the plaid.* keys. Direct PLAID_* environment
// variables fill in whatever the config file and SPICE_ variables leave unset.
func LoadPlaidConfig() (*plaid.Config, error) {
	cfg := &plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	}

	if cfg.ClientID == "" {
		cfg.ClientID = os.Getenv("PLAID_CLIENT_ID")
	}
	if cfg.Secret == "" {
		cfg.Secret = os.Getenv("PLAID_SECRET")
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = os.Getenv("PLAID_ACCESS_TOKEN")
	}
	if cfg.Environment == "" {
		cfg.Environment = os.Getenv("PLAID_ENV")
	}
	if cfg.Environment == "" {
		cfg.Environment = "sandbox"
	}

	if cfg.ClientID == "" || cfg.Secret == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: plaid.client_id, plaid.secret and plaid.access_token are required", common.ErrMissingConfig)
	}

	return cfg, nil
}
