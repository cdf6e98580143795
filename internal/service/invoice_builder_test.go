package service_test

import (
	"testing"

	"arcapos/internal/model"
	"arcapos/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func riClient() *model.Client {
	return &model.Client{
		ID:              "c-ri",
		Name:            "Distribuidora Norte SRL",
		CUIT:            "30712345671",
		TypeOfClient:    "Responsable Inscripto",
		Email:           "compras@norte.com.ar",
		FiscalDirection: "Av. Siempreviva 742",
	}
}

func sku1Lines() []model.CartLine {
	return []model.CartLine{{
		ProductID:           "SKU1",
		Name:                "Aceite 900ml",
		Barcode:             "7790000000011",
		Quantity:            2,
		UnitPriceWithIVA:    dec("50.00"),
		UnitPriceWithoutIVA: dec("41.32"),
	}}
}

func TestBuild_BasicCheckoutScenario(t *testing.T) {
	req, err := service.BuildInvoiceRequest(riClient(), sku1Lines(), "Efectivo", false)
	require.NoError(t, err)

	assert.Equal(t, "100.00", req.Total.StringFixed(2))
	assert.Equal(t, model.LetterA, req.InvoiceType.Letter)
	assert.Equal(t, "82.64", req.TotalWithoutIVA.StringFixed(2))
	assert.Equal(t, "17.36", req.IVAAmount().StringFixed(2))
	assert.NotEmpty(t, req.IdempotencyKey)
}

func TestBuild_EmptyCartRejected(t *testing.T) {
	_, err := service.BuildInvoiceRequest(riClient(), nil, "Efectivo", false)
	assert.ErrorIs(t, err, service.ErrEmptyCart)
	assert.Equal(t, service.InvoiceEmptyCart, service.InvoiceKind(err))

	// empty cart wins over a missing client
	_, err = service.BuildInvoiceRequest(nil, []model.CartLine{}, "Efectivo", false)
	assert.ErrorIs(t, err, service.ErrEmptyCart)
}

func TestBuild_ClientWithoutNameRejected(t *testing.T) {
	_, err := service.BuildInvoiceRequest(&model.Client{Name: "   ", CUIT: "20123456789"}, sku1Lines(), "Efectivo", false)
	assert.ErrorIs(t, err, service.ErrInvalidClient)

	_, err = service.BuildInvoiceRequest(nil, sku1Lines(), "Efectivo", false)
	assert.ErrorIs(t, err, service.ErrInvalidClient)
}

func TestBuild_DefaultsPaymentMethod(t *testing.T) {
	req, err := service.BuildInvoiceRequest(riClient(), sku1Lines(), "", true)
	require.NoError(t, err)
	assert.Equal(t, "Efectivo", req.PaymentMethod)
	assert.True(t, req.Testing)
}

func TestBuild_SnapshotIsolatedFromCaller(t *testing.T) {
	lines := sku1Lines()
	req, err := service.BuildInvoiceRequest(riClient(), lines, "Tarjeta", false)
	require.NoError(t, err)

	lines[0].Quantity = 99
	assert.Equal(t, 2, req.Lines[0].Quantity)
	assert.Equal(t, "100.00", req.Total.StringFixed(2))
}

func TestBuild_UsesResolverExentoLetter(t *testing.T) {
	b := service.NewInvoiceRequestBuilder(service.NewInvoiceTypeResolver("E"))
	client := &model.Client{Name: "Fundación Sur", CUIT: "30-71234567-1", TypeOfClient: "Exento"}

	req, err := b.Build("till-1", client, sku1Lines(), "Efectivo", false)
	require.NoError(t, err)
	assert.Equal(t, model.LetterE, req.InvoiceType.Letter)
	assert.Equal(t, "till-1", req.Terminal)
}

func TestPayload_WireShape(t *testing.T) {
	req, err := service.BuildInvoiceRequest(riClient(), sku1Lines(), "Transferencia", true)
	require.NoError(t, err)

	p := req.Payload()
	assert.Equal(t, "Distribuidora Norte SRL", p.Client.Name)
	assert.Equal(t, "30-71234567-1", p.Client.CUIT)
	assert.Equal(t, "Responsable Inscripto", p.Client.TypeOfClient)
	assert.Equal(t, "Av. Siempreviva 742", p.Client.FiscalAddress)
	require.Len(t, p.Lines, 1)
	assert.Equal(t, 2, p.Lines[0].Quantity)
	assert.InDelta(t, 50.00, p.Lines[0].UnitPriceWithIVA, 0.001)
	assert.InDelta(t, 41.32, p.Lines[0].UnitPriceWithoutIVA, 0.001)
	assert.Equal(t, "7790000000011", p.Lines[0].Barcode)
	assert.Equal(t, "Aceite 900ml", p.Lines[0].Description)
	assert.Equal(t, "Transferencia", p.PaymentMethod)
	assert.True(t, p.Testing)
	assert.Equal(t, "A", p.InvoiceType)
	assert.InDelta(t, 100.00, p.Total, 0.001)
}

func TestPayload_PlaceholderCUITIsBlank(t *testing.T) {
	req, err := service.BuildInvoiceRequest(&model.Client{Name: "Mostrador", CUIT: "0"}, sku1Lines(), "", false)
	require.NoError(t, err)
	assert.Equal(t, "", req.Payload().Client.CUIT)
	assert.Equal(t, model.LetterC, req.InvoiceType.Letter)
}

func TestBuild_TotalRoundsOnce(t *testing.T) {
	lines := []model.CartLine{
		{ProductID: "a", Quantity: 3, UnitPriceWithIVA: dec("33.333"), UnitPriceWithoutIVA: dec("27.55")},
		{ProductID: "b", Quantity: 1, UnitPriceWithIVA: dec("0.005"), UnitPriceWithoutIVA: decimal.Zero},
	}
	req, err := service.BuildInvoiceRequest(riClient(), lines, "", false)
	require.NoError(t, err)
	// 99.999 + 0.005 = 100.004
	assert.Equal(t, "100.00", req.Total.StringFixed(2))
}
