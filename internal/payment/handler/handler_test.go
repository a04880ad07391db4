package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/fekuna/omnipos-order-service/internal/auth"
	"github.com/fekuna/omnipos-order-service/internal/model"
	"github.com/fekuna/omnipos-order-service/internal/notification"
	"github.com/fekuna/omnipos-order-service/internal/payment/dto"
	"github.com/fekuna/omnipos-order-service/internal/payment/provider"
	"github.com/fekuna/omnipos-order-service/internal/payment/settlement"
	"github.com/fekuna/omnipos-order-service/internal/payment/usecase"
	"github.com/fekuna/omnipos-order-service/internal/pkg/grpcjson"
	"github.com/fekuna/omnipos-order-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-order-service/internal/pkg/middleware"
	"github.com/fekuna/omnipos-order-service/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const biz = "BIZ001"

func dial(t *testing.T) (*grpc.ClientConn, *memory.Store) {
	t.Helper()
	log := logger.NewNopLogger()
	st := memory.New()
	manual, err := provider.New(&provider.Config{Default: provider.NameManual, ManualBankName: "Zenith", ManualAccountNumber: "1010101010"}, log)
	require.NoError(t, err)
	uc := usecase.NewPaymentUseCase(st, settlement.NewEngine(log), provider.NewGateway(manual), notification.NewLogNotifier(log), time.Hour, log)

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.ContextInterceptor(),
		middleware.TenantInterceptor(),
		middleware.ErrorInterceptor(log),
	))
	NewPaymentHandler(uc, log).Service().Register(server)
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, st
}

func seedInvoice(t *testing.T, st *memory.Store, total int64) *model.Invoice {
	t.Helper()
	now := time.Now()
	inv := &model.Invoice{
		BaseModel:     model.BaseModel{BusinessID: biz},
		InvoiceNumber: "INV_TEST",
		Type:          model.InvoiceTypeStandard,
		Status:        model.InvoiceSent,
		IssueDate:     now,
		DueDate:       now.AddDate(0, 0, 30),
		Subtotal:      total,
		Total:         total,
		BalanceAmount: total,
		Currency:      "NGN",
	}
	require.NoError(t, st.Payments().CreateInvoice(context.Background(), inv))
	return inv
}

func tenant() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), auth.BusinessIDHeader, biz, auth.UserIDHeader, "cashier-1")
}

func TestScheduleAndPay(t *testing.T) {
	conn, st := dial(t)
	inv := seedInvoice(t, st, 60000)
	ctx := tenant()

	sched, err := grpcjson.Invoke[CreateScheduleRequest, ScheduleResponse](ctx, conn, ServiceName, "CreateSchedule", &CreateScheduleRequest{
		InvoiceID: inv.ID, Frequency: model.FrequencyWeekly, Installments: 3,
	})
	require.NoError(t, err)
	require.Len(t, sched.Schedules, 3)
	assert.Equal(t, int64(20000), sched.Schedules[0].AmountDue)

	view, err := grpcjson.Invoke[CreatePaymentRequest, dto.PaymentView](ctx, conn, ServiceName, "CreatePayment", &CreatePaymentRequest{
		InvoiceID: inv.ID, Amount: 25000, Method: model.PaymentMethodCash,
	})
	require.NoError(t, err)
	require.NotNil(t, view.Distribution)
	assert.Equal(t, int64(25000), view.Distribution.AppliedAmount)
	assert.Equal(t, model.InvoicePartialPaid, view.Invoice.Status)

	got, err := grpcjson.Invoke[InvoiceRequest, dto.InvoiceView](ctx, conn, ServiceName, "GetInvoice", &InvoiceRequest{ID: inv.ID})
	require.NoError(t, err)
	assert.Len(t, got.Payments, 1)
	assert.Equal(t, model.SchedulePaid, got.Schedules[0].Status)
	assert.Equal(t, int64(5000), got.Schedules[1].AmountPaid)
}

func TestPaymentErrors(t *testing.T) {
	conn, st := dial(t)
	inv := seedInvoice(t, st, 10000)
	ctx := tenant()

	_, err := grpcjson.Invoke[CreatePaymentRequest, dto.PaymentView](ctx, conn, ServiceName, "CreatePayment", &CreatePaymentRequest{
		InvoiceID: inv.ID, Amount: 10001, Method: model.PaymentMethodCash,
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, "PAYMENT_EXCEEDS_BALANCE", middleware.ReasonOf(err))

	_, err = grpcjson.Invoke[VoidInvoiceRequest, model.Invoice](ctx, conn, ServiceName, "VoidInvoice", &VoidInvoiceRequest{ID: inv.ID})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = grpcjson.Invoke[InvoiceRequest, model.Invoice](ctx, conn, ServiceName, "SendInvoice", &InvoiceRequest{ID: inv.ID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, "INVALID_STATE_TRANSITION", middleware.ReasonOf(err))
}

func TestMarkOverdueAsOf(t *testing.T) {
	conn, st := dial(t)
	inv := seedInvoice(t, st, 10000)
	asOf := inv.DueDate.Add(time.Hour)

	res, err := grpcjson.Invoke[MarkOverdueRequest, dto.OverdueResult](tenant(), conn, ServiceName, "MarkOverdue", &MarkOverdueRequest{AsOf: &asOf})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Invoices)
}
