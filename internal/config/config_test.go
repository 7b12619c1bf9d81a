package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_USER", "rifa")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "rifa")
}

func TestNewDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := New()

	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "main-raffle", cfg.Raffle.ID)
	assert.Equal(t, 500, cfg.Raffle.TotalNumbers)
	assert.Equal(t, []int{7, 70, 123, 250, 333, 444}, cfg.Raffle.GoldenNumbers)
	assert.Equal(t, PricingFlat, cfg.Pricing.Mode)
	assert.Equal(t, 100, cfg.Pricing.UnitCentavos)
	assert.Equal(t, "000201265802BR5913NOMECOMPLETO6009SAOPAULO62070503***6304E2A8", cfg.Pix.Code)
}

func TestNewMissingPostgresCredentials(t *testing.T) {
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("POSTGRES_DB", "")

	_, err := New()

	require.Error(t, err)
}

func TestNewGoldenNumbersFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RAFFLE_GOLDEN_NUMBERS", " 1, 250 ,500 ")

	cfg, err := New()

	require.NoError(t, err)
	assert.Equal(t, []int{1, 250, 500}, cfg.Raffle.GoldenNumbers)
}

func TestNewGoldenNumbersOutOfRange(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RAFFLE_GOLDEN_NUMBERS", "501")

	_, err := New()

	require.Error(t, err)
}

func TestNewInvalidPricingMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PRICING_MODE", "dynamic")

	_, err := New()

	require.Error(t, err)
}

func TestIsGolden(t *testing.T) {
	cfg := RaffleConfig{GoldenNumbers: []int{7, 70}}

	assert.True(t, cfg.IsGolden(7))
	assert.True(t, cfg.IsGolden(70))
	assert.False(t, cfg.IsGolden(8))
}

func TestPricingTotalFlat(t *testing.T) {
	p := Pricing{Mode: PricingFlat, UnitCentavos: 100}

	assert.Equal(t, 100, p.Total(1))
	assert.Equal(t, 300, p.Total(3))
	assert.Equal(t, 1000, p.Total(10))
}

func TestPricingTotalTiered(t *testing.T) {
	p := Pricing{Mode: PricingTiered}

	tests := []struct {
		quantity int
		want     int
	}{
		{1, 1000},
		{2, 2000},
		{3, 2500}, // combo: 3 for R$25
		{6, 5500},
		{7, 5000}, // combo: 7 for R$50
		{10, 8000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Total(tt.quantity), "quantity %d", tt.quantity)
	}
}
