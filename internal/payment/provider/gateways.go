package provider

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"go.uber.org/zap"
)

type Config struct {
	Default              string
	PaystackSecretKey    string
	PaystackPublicKey    string
	FlutterwaveSecretKey string
	FlutterwavePublicKey string
	ManualBankName       string
	ManualAccountNumber  string
	ManualAccountName    string
}

// New builds the provider named by cfg.Default.
func New(cfg *Config, log logger.ZapLogger) (Provider, error) {
	switch cfg.Default {
	case "", NamePaystack:
		return &keyedProvider{
			name: NamePaystack, secretKey: cfg.PaystackSecretKey, publicKey: cfg.PaystackPublicKey,
			bankName: "Providus Bank", accountNumber: "9876543210", accountName: "PAYSTACK-BUSINESS_NAME",
			requirements: []string{"PAYSTACK_SECRET_KEY", "PAYSTACK_PUBLIC_KEY"},
			logger:       log,
		}, nil
	case NameFlutterwave:
		return &keyedProvider{
			name: NameFlutterwave, secretKey: cfg.FlutterwaveSecretKey, publicKey: cfg.FlutterwavePublicKey,
			bankName: "Wema Bank", accountNumber: "1234567890", accountName: "FLW-BUSINESS_NAME",
			requirements: []string{"FLUTTERWAVE_SECRET_KEY", "FLUTTERWAVE_PUBLIC_KEY"},
			logger:       log,
		}, nil
	case NameManual:
		return &manualProvider{
			bankName: cfg.ManualBankName, accountNumber: cfg.ManualAccountNumber, accountName: cfg.ManualAccountName,
			logger: log,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", cfg.Default)
	}
}

// keyedProvider stands in for a hosted gateway. It issues the gateway's
// collection account and reports transfers as not yet received until the
// gateway's webhook integration is wired.
type keyedProvider struct {
	name          string
	secretKey     string
	publicKey     string
	bankName      string
	accountNumber string
	accountName   string
	requirements  []string
	logger        logger.ZapLogger
}

func (p *keyedProvider) Name() string { return p.name }

func (p *keyedProvider) GenerateBankDetails(ctx context.Context, req *BankTransferRequest) (*BankDetails, error) {
	p.logger.Info("generating bank details",
		zap.String("provider", p.name),
		zap.String("reference", req.Reference),
		zap.Int64("invoice_id", req.Metadata.InvoiceID),
	)
	return &BankDetails{
		BankName:      p.bankName,
		AccountNumber: p.accountNumber,
		AccountName:   p.accountName,
		Reference:     req.Reference,
		Amount:        req.Amount,
		Currency:      req.Currency,
		ExpiresAt:     expiry(req.ExpiryMinutes),
		Instructions:  "Transfer the exact amount to the account above. Payment will be confirmed automatically.",
	}, nil
}

func (p *keyedProvider) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	p.logger.Info("verifying payment", zap.String("provider", p.name), zap.String("reference", reference))
	return &Verification{
		Successful:    false,
		Reference:     reference,
		Currency:      "NGN",
		FailureReason: "Payment not yet received",
	}, nil
}

func (p *keyedProvider) SupportedCurrencies() []string { return []string{"NGN"} }

func (p *keyedProvider) IsAvailable() bool { return p.secretKey != "" && p.publicKey != "" }

func (p *keyedProvider) ConfigRequirements() []string { return p.requirements }

// manualProvider collects into the business's own account; staff confirm
// receipt, so verification always succeeds.
type manualProvider struct {
	bankName      string
	accountNumber string
	accountName   string
	logger        logger.ZapLogger
}

func (p *manualProvider) Name() string { return NameManual }

func (p *manualProvider) GenerateBankDetails(ctx context.Context, req *BankTransferRequest) (*BankDetails, error) {
	return &BankDetails{
		BankName:      p.bankName,
		AccountNumber: p.accountNumber,
		AccountName:   p.accountName,
		Reference:     req.Reference,
		Amount:        req.Amount,
		Currency:      req.Currency,
		ExpiresAt:     expiry(req.ExpiryMinutes),
		Instructions:  "Transfer the exact amount and use the reference as narration.",
	}, nil
}

func (p *manualProvider) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	p.logger.Info("manual payment confirmed", zap.String("reference", reference))
	return &Verification{Successful: true, Reference: reference}, nil
}

func (p *manualProvider) SupportedCurrencies() []string { return []string{"NGN", "GHS", "KES", "USD"} }

func (p *manualProvider) IsAvailable() bool { return p.bankName != "" && p.accountNumber != "" }

func (p *manualProvider) ConfigRequirements() []string {
	return []string{"MANUAL_BANK_NAME", "MANUAL_ACCOUNT_NUMBER", "MANUAL_ACCOUNT_NAME"}
}
