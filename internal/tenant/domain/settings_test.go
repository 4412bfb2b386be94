package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("tenant-1")
	assert.Equal(t, "tenant-1", s.TenantID)
	assert.Equal(t, "70", s.HighThreshold.String())
	assert.Equal(t, "90", s.CriticalThreshold.String())
	assert.Equal(t, 24, s.AlertWindowHours)
	require.NoError(t, s.Validate())
}

func TestNormalizeFillsZeroFields(t *testing.T) {
	s := &TenantSettings{
		TenantID:      "tenant-1",
		HighThreshold: decimal.NewFromInt(50),
	}
	s.Normalize()
	assert.Equal(t, "50", s.HighThreshold.String())
	assert.Equal(t, "90", s.CriticalThreshold.String())
	assert.Equal(t, 24, s.AlertWindowHours)
}

func TestValidate(t *testing.T) {
	valid := func() *TenantSettings {
		return &TenantSettings{
			TenantID:          "tenant-1",
			HighThreshold:     decimal.NewFromInt(60),
			CriticalThreshold: decimal.NewFromInt(85),
			AlertWindowHours:  12,
		}
	}

	require.NoError(t, valid().Validate())

	cases := []struct {
		name   string
		mutate func(*TenantSettings)
	}{
		{"zero high", func(s *TenantSettings) { s.HighThreshold = decimal.Zero }},
		{"negative critical", func(s *TenantSettings) { s.CriticalThreshold = decimal.NewFromInt(-1) }},
		{"high above critical", func(s *TenantSettings) { s.HighThreshold = decimal.NewFromInt(95) }},
		{"high equals critical", func(s *TenantSettings) { s.HighThreshold = decimal.NewFromInt(85) }},
		{"critical above hundred", func(s *TenantSettings) { s.CriticalThreshold = decimal.NewFromInt(101) }},
		{"zero window", func(s *TenantSettings) { s.AlertWindowHours = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid()
			tc.mutate(s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
		})
	}
}
