package service_test

import (
	"testing"

	"arcapos/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAddIVA(t *testing.T) {
	got := service.AddIVA(decimal.NewFromInt(100), service.DefaultIVARate)
	assert.Equal(t, "121.00", got.StringFixed(2))

	got = service.AddIVA(decimal.RequireFromString("41.32"), service.DefaultIVARate)
	assert.Equal(t, "50.00", got.StringFixed(2))
}

func TestRemoveIVA(t *testing.T) {
	got := service.RemoveIVA(decimal.NewFromInt(121), service.DefaultIVARate)
	assert.Equal(t, "100.00", got.StringFixed(2))

	got = service.RemoveIVA(decimal.NewFromInt(50), service.DefaultIVARate)
	assert.Equal(t, "41.32", got.StringFixed(2))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, "0.01", service.Round2(decimal.RequireFromString("0.005")).StringFixed(2))
	assert.Equal(t, "99.99", service.Round2(decimal.RequireFromString("99.99")).StringFixed(2))
}
