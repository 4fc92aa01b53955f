package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const minimalYAML = `
database:
  mysql:
    dsn: "user:pass@tcp(127.0.0.1:3306)/mimic"
  redis:
    addr: "127.0.0.1:6379"
jwt:
  secret: "0123456789abcdef0123"
  access_token_expire_hours: 2
  refresh_token_expire_days: 7
kafka:
  brokers: "127.0.0.1:9092"
  topic: "readmission-batch"
embedding:
  artifact: "./artifacts/w2v.txt"
  dimensions: 100
classifier:
  artifact: "./artifacts/model.json"
  contract:
    version: "nlp-lr-v1"
    feature_names: ["age", "los_days"]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	require.Equal(t, "8081", cfg.Server.Port)
	require.Equal(t, 0.30, cfg.Risk.Threshold)
	require.Equal(t, "logistic", cfg.Classifier.Kind)
	require.Equal(t, 5*time.Second, cfg.Classifier.Timeout)
	require.Equal(t, "mysql", cfg.Admissions.Source)
	require.Equal(t, "hadm_id", cfg.Admissions.IDColumn)
	require.Equal(t, 500, cfg.Batch.MaxItems)
	require.Equal(t, 24*time.Hour, cfg.Batch.JobTTL)
	require.Equal(t, []string{"age", "los_days"}, cfg.Classifier.Contract.FeatureNames)
	require.False(t, cfg.MinIO.Enabled())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("READMIT_RISK_THRESHOLD", "0.4")
	t.Setenv("READMIT_SERVER_PORT", "9090")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	require.Equal(t, 0.4, cfg.Risk.Threshold)
	require.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
	}{
		{"threshold above one", "kafka:", "risk:\n  threshold: 1.5\nkafka:"},
		{"csv without artifact", "kafka:", "admissions:\n  source: csv\nkafka:"},
		{"http classifier without endpoint", `  artifact: "./artifacts/model.json"`, "  kind: http"},
		{"duplicate feature names", `["age", "los_days"]`, `["age", "age"]`},
		{"unknown embedding format", "  dimensions: 100", "  dimensions: 100\n  format: glove"},
		{"short jwt secret", `"0123456789abcdef0123"`, `"short"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := strings.Replace(minimalYAML, tc.old, tc.new, 1)
			require.NotEqual(t, minimalYAML, body)
			_, err := Load(writeConfig(t, body))
			require.ErrorContains(t, err, "配置校验失败")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
