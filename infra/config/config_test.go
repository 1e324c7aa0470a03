package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/lib/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testConfig = `
contract_number: "1234567"
client_app_guid: 7d6e2a4c-3f0b-4b8e-9d61-0c7b8f1a2e35
control:
  url: https://bank.example/cebbc/api
  timeout: 30s
data:
  valid_statuses: [200, 201, 202]
  max_download_size: 64MiB
  parallelism: 4
tls:
  cert: /etc/bcx/client.pem
  passphrase: from-file
generator:
  tmp_dir: /var/tmp/bcx
  sender_bic: ACMECZPP
  receiver_bic: CEKOCZPP
  originator:
    name: ACME s.r.o.
    city: Praha
    country: CZ
outbox:
  dir: /srv/outbox
archive:
  kind: fs
  path: /srv/archive
`

func TestLoadConfig(t *testing.T) {
	assert := require.New(t)
	fs := afero.NewMemMapFs()
	assert.NoError(afero.WriteFile(fs, "/etc/bcx.yml", []byte(testConfig), 0o600))
	t.Setenv("BCX_TLS_PASSPHRASE", "from-env")

	cfg, err := LoadConfig(slog.Default(), fs, "/etc/bcx.yml")
	assert.NoError(err)
	assert.Equal("1234567", cfg.ContractNumber)
	assert.Equal("https://bank.example/cebbc/api", cfg.Control.URL)
	assert.Equal(ControlNamespace, cfg.Control.Namespace)
	assert.Equal(types.Duration(30*time.Second), cfg.Control.Timeout)
	assert.Equal(types.Duration(DataTimeout), cfg.Data.Timeout)
	assert.Equal([]int{200, 201, 202}, cfg.Data.ValidStatuses)
	assert.Equal(types.Size(64<<20), cfg.Data.MaxDownloadSize)
	assert.Equal(4, cfg.Data.Parallelism)
	assert.Equal("1.2", cfg.TLS.MinVersion)
	assert.False(cfg.TLS.InsecureSkipVerify)
	assert.Equal("from-env", cfg.TLS.Passphrase)
	assert.Equal("ACME s.r.o.", cfg.Generator.Originator.Name)
	assert.Equal("/srv/outbox", cfg.Outbox.Dir)
	assert.Equal("fs", cfg.Archive.Kind)

	dump := cfg.String()
	assert.NotContains(dump, "from-env")
	assert.True(strings.Contains(dump, secretMask))
}

func TestLoadConfigInvalid(t *testing.T) {
	testCases := []struct {
		desc    string
		replace [2]string
		key     string
	}{
		{desc: "bad guid", replace: [2]string{"7d6e2a4c-3f0b-4b8e-9d61-0c7b8f1a2e35", "not-a-guid"}, key: "ClientAppGuid"},
		{desc: "bad url", replace: [2]string{"https://bank.example/cebbc/api", "bank"}, key: "URL"},
		{desc: "relative outbox", replace: [2]string{"dir: /srv/outbox", "dir: outbox"}, key: "Dir"},
		{desc: "bad bic", replace: [2]string{"ACMECZPP", "acme"}, key: "SenderBIC"},
		{desc: "s3 without bucket", replace: [2]string{"kind: fs", "kind: s3"}, key: "Endpoint"},
		{desc: "bad tls version", replace: [2]string{"passphrase: from-file", "min_version: \"0.9\""}, key: "MinVersion"},
		{desc: "broken yaml", replace: [2]string{"parallelism: 4", "parallelism: [4"}, key: "file"},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert := require.New(t)
			fs := afero.NewMemMapFs()
			data := strings.Replace(testConfig, tC.replace[0], tC.replace[1], 1)
			assert.NoError(afero.WriteFile(fs, "/bcx.yml", []byte(data), 0o600))

			_, err := LoadConfig(slog.Default(), fs, "/bcx.yml")
			assert.ErrorIs(err, errors.ErrConfig)
			var cerr *errors.ConfigError
			assert.True(errors.As(err, &cerr))
			assert.True(strings.HasSuffix(cerr.Key, tC.key), cerr.Key)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	assert := require.New(t)
	_, err := LoadConfig(slog.Default(), afero.NewMemMapFs(), "/nope.yml")
	assert.ErrorIs(err, errors.ErrConfig)
}
