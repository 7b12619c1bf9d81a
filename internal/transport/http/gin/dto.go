package httpgin

import (
	"time"

	"github.com/lucasvdj/rifa-go/internal/domain"
)

// Field names follow the storefront's wire schema (camelCase).

type CheckoutRequest struct {
	Quantity     int    `json:"quantity"`
	ChosenNumber string `json:"chosenNumber"`
}

type CheckoutResponse struct {
	PurchaseID    string   `json:"purchaseId"`
	Numbers       []string `json:"numbers"`
	GoldenNumbers []string `json:"goldenNumbers,omitempty"`
	TotalCentavos int      `json:"totalCentavos"`
	Message       string   `json:"message"`
}

type PendingIdentityResponse struct {
	Status       string `json:"status"`
	SessionToken string `json:"sessionToken"`
	Message      string `json:"message"`
}

type SessionResponse struct {
	SessionToken string `json:"sessionToken"`
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	Anonymous    bool   `json:"anonymous"`
}

type RaffleSummaryResponse struct {
	ID             string   `json:"id"`
	TotalNumbers   int      `json:"totalNumbers"`
	SoldCount      int64    `json:"soldCount"`
	AvailableCount int64    `json:"availableCount"`
	PercentageSold float64  `json:"percentageSold"`
	GoldenNumbers  []string `json:"goldenNumbers"`
}

type CountsResponse struct {
	SoldCount      int64 `json:"soldCount"`
	AvailableCount int64 `json:"availableCount"`
	TotalNumbers   int64 `json:"totalNumbers"`
}

type TicketResponse struct {
	TicketNumber int    `json:"ticketNumber"`
	Formatted    string `json:"formatted"`
	IsSold       bool   `json:"isSold"`
	PurchaseID   string `json:"purchaseId,omitempty"`
	UserID       string `json:"userId,omitempty"`
	UserName     string `json:"userName,omitempty"`
	UserPhoto    string `json:"userPhoto,omitempty"`
}

type TopBuyerResponse struct {
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	UserPhoto   string `json:"userPhoto,omitempty"`
	TicketCount int    `json:"ticketCount"`
}

type AnalysisResponse struct {
	Number      int    `json:"number"`
	Formatted   string `json:"formatted"`
	Probability int    `json:"probability"`
}

type BonusNumberResponse struct {
	Number    int    `json:"number"`
	Formatted string `json:"formatted"`
	Date      string `json:"date"`
}

type MyTicketsResponse struct {
	Numbers []string `json:"numbers"`
}

type PurchaseResponse struct {
	ID              string `json:"id"`
	RaffleID        string `json:"raffleId"`
	UserID          string `json:"userId"`
	PurchaseDate    string `json:"purchaseDate"`
	NumberOfTickets int    `json:"numberOfTickets"`
	TotalCentavos   int    `json:"totalCentavos"`
	PaymentMethod   string `json:"paymentMethod"`
	PaymentStatus   string `json:"paymentStatus"`
}

type PixInfoResponse struct {
	Code  string           `json:"code"`
	Tiers []PixPricingTier `json:"tiers"`
}

type PixPricingTier struct {
	Quantity      int `json:"quantity"`
	TotalCentavos int `json:"totalCentavos"`
}

type CreateRaffleRequest struct {
	ID           string `json:"id" binding:"required"`
	TotalNumbers int    `json:"totalNumbers" binding:"required,gt=0"`
}

type CreateRaffleResponse struct {
	RaffleID string `json:"raffleId"`
	Seeded   int64  `json:"seeded"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func formatNumbers(numbers []int) []string {
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, domain.FormatNumber(n))
	}
	return out
}

func ticketToResponse(t domain.Ticket) TicketResponse {
	resp := TicketResponse{
		TicketNumber: t.Number,
		Formatted:    domain.FormatNumber(t.Number),
		IsSold:       t.IsSold,
		UserName:     t.BuyerName,
		UserPhoto:    t.BuyerPhoto,
	}

	if t.PurchaseID != nil {
		resp.PurchaseID = t.PurchaseID.String()
	}
	if t.BuyerID != nil {
		resp.UserID = t.BuyerID.String()
	}

	return resp
}

func purchaseToResponse(p domain.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:              p.ID.String(),
		RaffleID:        p.RaffleID,
		UserID:          p.BuyerID.String(),
		PurchaseDate:    p.PurchaseDate.Format(time.RFC3339),
		NumberOfTickets: p.NumberOfTickets,
		TotalCentavos:   p.TotalCentavos,
		PaymentMethod:   p.PaymentMethod,
		PaymentStatus:   p.PaymentStatus,
	}
}
