package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tpl "github.com/cloudcopper/misc/env/template"
	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/lib/types"
	"github.com/cloudcopper/bcx/ports"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ContractNumber string    `yaml:"contract_number" validate:"required,numeric"`
	ClientAppGuid  string    `yaml:"client_app_guid" validate:"required,appguid"`
	Control        Control   `yaml:"control"`
	Data           Data      `yaml:"data"`
	TLS            TLS       `yaml:"tls"`
	Generator      Generator `yaml:"generator"`
	Journal        Journal   `yaml:"journal"`
	Outbox         Outbox    `yaml:"outbox"`
	Archive        Archive   `yaml:"archive"`
}

type Control struct {
	URL       string         `yaml:"url" validate:"required,uri"`
	Namespace string         `yaml:"namespace"`
	Timeout   types.Duration `yaml:"timeout" validate:"min=0"`
}

type Data struct {
	Timeout         types.Duration `yaml:"timeout" validate:"min=0"`
	ValidStatuses   []int          `yaml:"valid_statuses" validate:"dive,min=100,max=999"`
	MaxDownloadSize types.Size     `yaml:"max_download_size" validate:"min=0"`
	Parallelism     int            `yaml:"parallelism" validate:"min=0,max=32"`
}

type TLS struct {
	Cert               string `yaml:"cert"`
	Key                string `yaml:"key"`
	Passphrase         string `yaml:"passphrase"`
	CA                 string `yaml:"ca"`
	MinVersion         string `yaml:"min_version" validate:"omitempty,oneof=1.0 1.1 1.2 1.3"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

type Originator struct {
	Name    string `yaml:"name" validate:"max=70"`
	Street  string `yaml:"street" validate:"max=35"`
	City    string `yaml:"city" validate:"max=35"`
	Country string `yaml:"country" validate:"omitempty,len=2"`
}

type Generator struct {
	TmpDir      string     `yaml:"tmp_dir" validate:"required,abspath"`
	SenderBIC   string     `yaml:"sender_bic" validate:"omitempty,bic"`
	ReceiverBIC string     `yaml:"receiver_bic" validate:"omitempty,bic"`
	Originator  Originator `yaml:"originator"`
}

type Journal struct {
	// Path of sqlite file, in-memory journal if empty
	Path string `yaml:"path" validate:"omitempty,abspath"`
}

type OutboundPattern struct {
	Pattern string `yaml:"pattern" validate:"required"`
	Format  string `yaml:"format" validate:"required,oneof=TXT_TPS MT101 SEPA_XML"`
}

type Outbox struct {
	Dir      string            `yaml:"dir" validate:"omitempty,abspath"`
	Sent     string            `yaml:"sent" validate:"omitempty,abspath"`
	Failed   string            `yaml:"failed" validate:"omitempty,abspath"`
	Patterns []OutboundPattern `yaml:"patterns" validate:"dive"`
}

type Archive struct {
	Kind      string `yaml:"kind" validate:"omitempty,oneof=fs s3"`
	Path      string `yaml:"path" validate:"omitempty,abspath"`
	Endpoint  string `yaml:"endpoint" validate:"required_if=Kind s3"`
	Bucket    string `yaml:"bucket" validate:"required_if=Kind s3"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Secure    bool   `yaml:"secure"`
}

const secretMask = "******"

// String returns yaml of config with secrets masked
func (c *Config) String() string {
	cp := *c
	if cp.TLS.Passphrase != "" {
		cp.TLS.Passphrase = secretMask
	}
	if cp.Archive.SecretKey != "" {
		cp.Archive.SecretKey = secretMask
	}
	b, err := yaml.Marshal(&cp)
	if err != nil {
		return err.Error()
	}
	return strings.TrimSuffix(string(b), "\n")
}

var (
	ConfigFileName   = lib.GetEnvDefault("BCX_CONFIG", "bcx.yml")
	ControlURL       = "https://ceb-bc.csob.cz/cebbc/api"
	ControlNamespace = "http://ceb-bc.csob.cz/CEBBCWS"
	ControlTimeout   = lib.GetEnvDuration("BCX_CONTROL_TIMEOUT", 60*time.Second)
	DataTimeout      = lib.GetEnvDuration("BCX_DATA_TIMEOUT", 5*time.Minute)
	TmpDir           = filepath.Join(os.TempDir(), "bcx")
	Listen           = lib.GetEnvDefault("BCX_LISTEN", ":8443")
)

// LoadConfig reads named config file from given fs,
// execute file as env template, unmarshal result over the defaults
// and validates it.
// The BCX_TLS_PASSPHRASE and BCX_ARCHIVE_SECRET_KEY env override the file.
func LoadConfig(log ports.Logger, fs ports.FS, fileName string) (*Config, error) {
	log.Info("loading config", slog.String("fileName", fileName))
	blob, err := afero.ReadFile(fs, fileName)
	if err != nil {
		return nil, &errors.ConfigError{Key: "file", Msg: fmt.Sprintf("unable to read %q", fileName), Err: err}
	}

	// parse config as template
	t, err := tpl.Parse(string(blob))
	if err != nil {
		return nil, &errors.ConfigError{Key: "file", Msg: "unable to parse template", Err: err}
	}
	// execute template
	s, err := t.Execute()
	if err != nil {
		return nil, &errors.ConfigError{Key: "file", Msg: "unable to execute template", Err: err}
	}

	// unmrashal config
	cfg := defaultConfig()
	if err := yaml.Unmarshal([]byte(s), cfg); err != nil {
		return nil, &errors.ConfigError{Key: "file", Msg: "unable to unmarshal yaml", Err: err}
	}
	cfg.TLS.Passphrase = lib.GetEnvDefault("BCX_TLS_PASSPHRASE", cfg.TLS.Passphrase)
	cfg.Archive.SecretKey = lib.GetEnvDefault("BCX_ARCHIVE_SECRET_KEY", cfg.Archive.SecretKey)

	if err := validate(fs, cfg); err != nil {
		return nil, err
	}

	// dump effective config
	dump := strings.Split(cfg.String(), "\n")
	for _, s := range dump {
		log.Debug(s)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Control: Control{
			URL:       ControlURL,
			Namespace: ControlNamespace,
			Timeout:   types.Duration(ControlTimeout),
		},
		Data: Data{
			Timeout:     types.Duration(DataTimeout),
			Parallelism: 1,
		},
		TLS: TLS{
			MinVersion: "1.2",
		},
		Generator: Generator{
			TmpDir: TmpDir,
		},
	}
}

// validate returns ConfigError of the first invalid field
func validate(fs ports.FS, cfg *Config) error {
	err := lib.NewValidator(fs).Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return &errors.ConfigError{Key: e.Namespace(), Msg: fmt.Sprintf("failed on %q rule", e.Tag()), Err: err}
	}
	return &errors.ConfigError{Key: "config", Msg: "invalid", Err: err}
}
