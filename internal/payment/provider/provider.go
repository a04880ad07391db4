// Package provider abstracts the payment gateways that issue virtual bank
// accounts for transfers and confirm that money arrived.
package provider

import (
	"context"
	"slices"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/apperror"
)

const (
	NamePaystack    = "paystack"
	NameFlutterwave = "flutterwave"
	NameManual      = "manual"
)

type Metadata struct {
	BusinessID        string `json:"business_id"`
	InvoiceID         int64  `json:"invoice_id"`
	OrderID           int64  `json:"order_id"`
	PaymentType       string `json:"payment_type"`
	InstallmentNumber int    `json:"installment_number,omitempty"`
	ExpectedAmount    int64  `json:"expected_amount"`
}

type BankTransferRequest struct {
	Amount        int64
	Currency      string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Reference     string
	Description   string
	ExpiryMinutes int
	Metadata      Metadata
}

type BankDetails struct {
	BankName      string     `json:"bank_name"`
	AccountNumber string     `json:"account_number"`
	AccountName   string     `json:"account_name"`
	Reference     string     `json:"reference"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Instructions  string     `json:"instructions"`
}

type Verification struct {
	Successful    bool       `json:"successful"`
	TransactionID string     `json:"transaction_id,omitempty"`
	Reference     string     `json:"reference"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
}

type Provider interface {
	Name() string
	GenerateBankDetails(ctx context.Context, req *BankTransferRequest) (*BankDetails, error)
	VerifyPayment(ctx context.Context, reference string) (*Verification, error)
	SupportedCurrencies() []string
	IsAvailable() bool
	ConfigRequirements() []string
}

// Gateway guards the configured provider: calls fail with
// ProviderUnavailable when it is missing or not configured.
type Gateway struct {
	provider Provider
}

func NewGateway(p Provider) *Gateway {
	return &Gateway{provider: p}
}

func (g *Gateway) Provider() (Provider, error) {
	if g == nil || g.provider == nil {
		return nil, apperror.ProviderUnavailable("none")
	}
	if !g.provider.IsAvailable() {
		return nil, apperror.ProviderUnavailable(g.provider.Name())
	}
	return g.provider, nil
}

func (g *Gateway) GenerateBankDetails(ctx context.Context, req *BankTransferRequest) (string, *BankDetails, error) {
	p, err := g.Provider()
	if err != nil {
		return "", nil, err
	}
	if !slices.Contains(p.SupportedCurrencies(), req.Currency) {
		return "", nil, apperror.Validation("%s does not support currency %s", p.Name(), req.Currency)
	}
	details, err := p.GenerateBankDetails(ctx, req)
	if err != nil {
		return "", nil, err
	}
	return p.Name(), details, nil
}

func (g *Gateway) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	p, err := g.Provider()
	if err != nil {
		return nil, err
	}
	return p.VerifyPayment(ctx, reference)
}

func expiry(minutes int) *time.Time {
	if minutes <= 0 {
		return nil
	}
	t := time.Now().Add(time.Duration(minutes) * time.Minute)
	return &t
}
