package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 5.0, cfg.Verification.AreaTolerancePercent, 0.001)
	assert.InDelta(t, 10.0, cfg.Verification.GeometryToleranceMeters, 0.001)
	assert.Equal(t, []string{"state", "district", "survey_no", "fmb_id"}, cfg.Verification.RequiredFields)
	assert.Equal(t, []string{"village", "taluk", "area_hectares", "owner_name"}, cfg.Verification.OptionalFields)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.Equal(t, int64(4<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
verification:
  area_tolerance_percent: 2.5
  required_fields: [state, district, survey_no, fmb_id, owner_name]
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  max_concurrent: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 2.5, cfg.Verification.AreaTolerancePercent, 0.001)
	assert.Equal(t, []string{"state", "district", "survey_no", "fmb_id", "owner_name"}, cfg.Verification.RequiredFields)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Batch.MaxConcurrent)
	// Defaults still apply for unset values
	assert.InDelta(t, 10.0, cfg.Verification.GeometryToleranceMeters, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
verification:
  area_tolerance_percent: 2.5
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PARCEL_VERIFICATION_AREA_TOLERANCE_PERCENT", "7.5")
	t.Setenv("PARCEL_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.InDelta(t, 7.5, cfg.Verification.AreaTolerancePercent, 0.001)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PARCEL_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("verification: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestToParcelCopiesSlices(t *testing.T) {
	v := VerificationConfig{
		AreaTolerancePercent:    5,
		GeometryToleranceMeters: 10,
		RequiredFields:          []string{"state"},
		OptionalFields:          []string{"village"},
	}

	p := v.ToParcel()
	p.RequiredFields[0] = "district"

	assert.Equal(t, "state", v.RequiredFields[0])
	assert.InDelta(t, 5.0, p.AreaTolerancePercent, 0.001)
	assert.Equal(t, []string{"village"}, p.OptionalFields)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Verification.AreaTolerancePercent = 5
	cfg.Verification.GeometryToleranceMeters = 10
	cfg.Batch.MaxConcurrent = 8
	cfg.Server.Port = 8080
	cfg.Server.RateLimit = 20
	cfg.Server.MaxBodyBytes = 1 << 20
	return cfg
}

func TestValidate_AllModes(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"verify", "batch", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_NegativeTolerance(t *testing.T) {
	cfg := validDefaults()
	cfg.Verification.AreaTolerancePercent = -1

	err := cfg.Validate("verify")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "area_tolerance_percent must be a finite number >= 0")
}

func TestValidate_DuplicateRequiredField(t *testing.T) {
	cfg := validDefaults()
	cfg.Verification.RequiredFields = []string{"state", "state"}

	err := cfg.Validate("verify")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `required_fields contains "state" twice`)
}

func TestValidateBatch_ConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.MaxConcurrent = 0
	err := cfg.Validate("batch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent must be between 1 and 64")

	cfg.Batch.MaxConcurrent = 65
	assert.Error(t, cfg.Validate("batch"))

	cfg.Batch.MaxConcurrent = 64
	assert.NoError(t, cfg.Validate("batch"))

	// Concurrency only matters for batch runs.
	cfg.Batch.MaxConcurrent = 0
	assert.NoError(t, cfg.Validate("verify"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_BodyLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.MaxBodyBytes = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.max_body_bytes must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
