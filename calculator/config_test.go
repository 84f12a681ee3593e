package calculator

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"

	"waxloop/model"
	"waxloop/table"
)

const testConfig = `
[server]
Addr = :9100
DataDir = /srv/wax
AllowedOrigins = http://localhost:8080, https://dash.example

[simulation]
C1 = 15
C2 = 0.055
C3 = 1.4
Di = 0.0446
Mo = 0.50369
Pio = 101325
Toi = 46
DowMethod = Hayduk-Minhass

[interpolation]
OutOfRange = clamp

[trace]
Enabled = true
Path = %s

[log]
Level = debug
`

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "printout.txt")
	cfg, err := LoadConfig(writeConfig(t, fmt.Sprintf(testConfig, tracePath)))
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Addr)
	assert.Equal(t, "/srv/wax", cfg.DataDir)
	assert.Equal(t, []string{"http://localhost:8080", "https://dash.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 1024, cfg.ReadBufferSize)
	assert.Equal(t, table.Clamp, cfg.OutOfRange)
	assert.True(t, cfg.TraceEnabled)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)

	p, err := cfg.Parameters()
	require.NoError(t, err)
	assert.Equal(t, Parameters{
		C1: 15, C2: 0.055, C3: 1.4,
		Di: 0.0446, Mo: 0.50369, Pio: 101325, Toi: 46,
		Method: HaydukMinhas,
	}, p)

	opts, tracer, err := cfg.Options()
	require.NoError(t, err)
	require.NotNil(t, tracer)
	assert.Len(t, opts, 2)
	require.NoError(t, tracer.Close())
	assert.FileExists(t, tracePath)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "[server]\n"))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, table.Reject, cfg.OutOfRange)
	assert.False(t, cfg.TraceEnabled)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)

	// 模拟参数没有默认值
	_, err = cfg.Parameters()
	assert.ErrorIs(t, err, model.ErrMissingInput)

	opts, tracer, err := cfg.Options()
	require.NoError(t, err)
	assert.Nil(t, tracer)
	assert.Len(t, opts, 1)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[interpolation]\nOutOfRange = extrapolate\n"))
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = LoadConfig(writeConfig(t, "[log]\nLevel = loud\n"))
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestParametersFromSection(t *testing.T) {
	file := ini.Empty()
	sec := file.Section("simulation")
	for k, v := range map[string]string{
		"C1": "15", "C2": "0.055", "C3": "1.4", "Di": "0.0446",
		"Mo": "0.50369", "Pio": "101325", "Toi": "46",
	} {
		_, err := sec.NewKey(k, v)
		require.NoError(t, err)
	}
	_, err := ParametersFromSection(sec)
	assert.ErrorIs(t, err, model.ErrMissingInput)
	assert.Contains(t, err.Error(), "DowMethod")

	_, err = sec.NewKey("DowMethod", "Stokes")
	require.NoError(t, err)
	_, err = ParametersFromSection(sec)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	sec.Key("DowMethod").SetValue("Wilke-Chang")
	sec.Key("Mo").SetValue("fast")
	_, err = ParametersFromSection(sec)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestParametersFromRequest(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	method := "Wilke-Chang"
	req := model.RunRequest{
		C1: f(15), C2: f(0.055), C3: f(1.4),
		Di: f(0.0446), Mo: f(0.50369), Pio: f(101325), Toi: f(46),
		DowMethod: &method,
	}
	p, err := ParametersFromRequest(req, nil)
	require.NoError(t, err)
	assert.Equal(t, WilkeChang, p.Method)
	assert.Equal(t, 0.0446, p.Di)

	req.Toi = nil
	_, err = ParametersFromRequest(req, nil)
	assert.ErrorIs(t, err, model.ErrMissingInput)

	fallback := testParameters()
	p, err = ParametersFromRequest(req, &fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback.Toi, p.Toi)
	assert.Equal(t, 0.0446, p.Di)

	bad := "Stokes"
	req.DowMethod = &bad
	_, err = ParametersFromRequest(req, &fallback)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	req.DowMethod = nil
	req.Di = f(-1)
	_, err = ParametersFromRequest(req, &fallback)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
