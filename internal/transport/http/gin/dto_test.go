package httpgin

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lucasvdj/rifa-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFormatNumbers(t *testing.T) {
	assert.Equal(t, []string{"001", "042", "500"}, formatNumbers([]int{1, 42, 500}))
	assert.Empty(t, formatNumbers(nil))
}

func TestTicketToResponseUnsold(t *testing.T) {
	resp := ticketToResponse(domain.Ticket{Number: 7, IsSold: false})

	assert.Equal(t, 7, resp.TicketNumber)
	assert.Equal(t, "007", resp.Formatted)
	assert.False(t, resp.IsSold)
	assert.Empty(t, resp.PurchaseID)
	assert.Empty(t, resp.UserID)
}

func TestTicketToResponseSold(t *testing.T) {
	purchaseID := uuid.New()
	buyerID := uuid.New()

	resp := ticketToResponse(domain.Ticket{
		Number:     42,
		IsSold:     true,
		PurchaseID: &purchaseID,
		BuyerID:    &buyerID,
		BuyerName:  "Lucas",
	})

	assert.True(t, resp.IsSold)
	assert.Equal(t, purchaseID.String(), resp.PurchaseID)
	assert.Equal(t, buyerID.String(), resp.UserID)
	assert.Equal(t, "Lucas", resp.UserName)
}
