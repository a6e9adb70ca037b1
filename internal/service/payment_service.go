package service

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/events"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// SnapClient is the part of the Midtrans Snap client used for checkout.
type SnapClient interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// NewSnapClient returns a Snap client for the sandbox or production API.
func NewSnapClient(serverKey string, production bool) SnapClient {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var client snap.Client
	client.New(serverKey, env)
	return &client
}

type IPaymentService interface {
	Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error
	GetSubscription(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, userId uuid.UUID) error
}

type paymentService struct {
	uowFactory  unitofwork.RepositoryFactory
	entitlement IEntitlementService
	snap        SnapClient
	serverKey   string
	clientURL   string
	publisher   events.Publisher
	logger      logger.ILogger
}

func NewPaymentService(
	uowFactory unitofwork.RepositoryFactory,
	entitlementService IEntitlementService,
	snapClient SnapClient,
	serverKey string,
	clientURL string,
	publisher events.Publisher,
	log logger.ILogger,
) IPaymentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &paymentService{
		uowFactory:  uowFactory,
		entitlement: entitlementService,
		snap:        snapClient,
		serverKey:   serverKey,
		clientURL:   clientURL,
		publisher:   publisher,
		logger:      log,
	}
}

// Checkout records a pending subscription and opens a Snap transaction
// whose order id is the subscription id.
func (s *paymentService) Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if s.snap == nil || s.serverKey == "" {
		return nil, apperror.New(apperror.CodeConfigurationMissing, "Payments are not configured")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	plan, err := uow.SubscriptionRepository().FindOnePlan(ctx, specification.ByID{ID: req.PlanId}, specification.ActivePlans{})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, apperror.NotFound("Plan not found")
	}
	if plan.IsFree || plan.Price <= 0 {
		return nil, apperror.New(apperror.CodeValidation, "The free plan does not require checkout")
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}

	now := time.Now().UTC()
	sub := &entity.UserSubscription{
		Id:                 uuid.New(),
		UserId:             userId,
		PlanId:             plan.Id,
		Status:             entity.SubscriptionStatusPending,
		PaymentStatus:      entity.PaymentStatusPending,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   plan.BillingInterval.PeriodEnd(now),
	}
	if err := uow.SubscriptionRepository().CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  sub.Id.String(),
			GrossAmt: int64(plan.Price),
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: fmt.Sprintf("%s/billing?payment=success", s.clientURL),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: user.FullName,
			Email: user.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    plan.Id.String(),
				Price: int64(plan.Price),
				Qty:   1,
				Name:  plan.Name,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := s.snap.CreateTransaction(snapReq)
	if midErr != nil {
		s.logger.Error("PAYMENT", "Snap transaction failed", map[string]interface{}{
			"subscription_id": sub.Id.String(),
			"error":           midErr.GetMessage(),
		})
		return nil, apperror.Wrap(apperror.CodeUpstreamFailure, midErr, "Payment gateway is unavailable")
	}

	s.logger.Info("PAYMENT", "Checkout started", map[string]interface{}{
		"subscription_id": sub.Id.String(),
		"plan":            plan.Slug,
		"user_id":         userId.String(),
	})

	return &dto.CheckoutResponse{
		SubscriptionId:  sub.Id,
		SnapRedirectUrl: snapResp.RedirectURL,
		SnapToken:       snapResp.Token,
	}, nil
}

func (s *paymentService) HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error {
	if !s.validSignature(req) {
		s.logger.Warn("PAYMENT", "Webhook signature mismatch", map[string]interface{}{
			"order_id": req.OrderId,
		})
		return apperror.New(apperror.CodeUnauthorized, "Invalid notification signature")
	}

	subId, err := uuid.Parse(req.OrderId)
	if err != nil {
		return apperror.New(apperror.CodeValidation, "Unknown order id")
	}

	s.logger.Info("PAYMENT", "Webhook received", map[string]interface{}{
		"order_id":           req.OrderId,
		"transaction_status": req.TransactionStatus,
		"fraud_status":       req.FraudStatus,
	})

	switch req.TransactionStatus {
	case "capture":
		if req.FraudStatus != "" && req.FraudStatus != "accept" {
			return nil
		}
		return s.activate(ctx, subId, req.TransactionId)
	case "settlement":
		return s.activate(ctx, subId, req.TransactionId)
	case "deny", "cancel", "expire", "failure":
		return s.fail(ctx, subId)
	default:
		return nil
	}
}

func (s *paymentService) GetSubscription(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := s.currentSubscription(ctx, uow, userId)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.NotFound("No active subscription")
	}
	return subscriptionToResponse(sub), nil
}

// CancelSubscription keeps the paid plan until the period ends.
func (s *paymentService) CancelSubscription(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := s.currentSubscription(ctx, uow, userId)
	if err != nil {
		return err
	}
	if sub == nil {
		return apperror.NotFound("No active subscription")
	}
	if sub.PaymentStatus == entity.PaymentStatusFree {
		return apperror.New(apperror.CodeValidation, "The free plan cannot be canceled")
	}
	if sub.CancelAtPeriodEnd {
		return nil
	}

	sub.CancelAtPeriodEnd = true
	if err := uow.SubscriptionRepository().UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	s.publish(ctx, events.New(events.TypeSubscriptionChanged, map[string]interface{}{
		"user_id":              userId.String(),
		"subscription_id":      sub.Id.String(),
		"cancel_at_period_end": true,
	}))
	return nil
}

func (s *paymentService) activate(ctx context.Context, subId uuid.UUID, transactionId string) error {
	sub, err := s.entitlement.ActivateSubscription(ctx, subId)
	if err != nil {
		return err
	}
	if transactionId == "" || sub.Status != entity.SubscriptionStatusActive {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub.MidtransTransactionId = &transactionId
	return uow.SubscriptionRepository().UpdateSubscription(ctx, sub)
}

func (s *paymentService) fail(ctx context.Context, subId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx, specification.ByID{ID: subId})
	if err != nil {
		return err
	}
	if sub == nil || sub.Status != entity.SubscriptionStatusPending {
		return nil
	}

	sub.Status = entity.SubscriptionStatusCanceled
	sub.PaymentStatus = entity.PaymentStatusFailed
	return uow.SubscriptionRepository().UpdateSubscription(ctx, sub)
}

func (s *paymentService) currentSubscription(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.UserSubscription, error) {
	return uow.SubscriptionRepository().FindOneSubscription(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.CurrentSubscription{Now: time.Now().UTC()},
		specification.OrderBy{Field: "current_period_end", Desc: true},
	)
}

// validSignature checks SHA512(order_id + status_code + gross_amount + server_key).
func (s *paymentService) validSignature(req *dto.MidtransWebhookRequest) bool {
	if s.serverKey == "" {
		return false
	}
	expected := signNotification(req.OrderId, req.StatusCode, req.GrossAmount, s.serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(req.SignatureKey)) == 1
}

func signNotification(orderId, statusCode, grossAmount, serverKey string) string {
	return fmt.Sprintf("%x", sha512.Sum512([]byte(orderId+statusCode+grossAmount+serverKey)))
}

func (s *paymentService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("PAYMENT", "Failed to publish event", map[string]interface{}{
			"event": evt.EventType(),
			"error": err.Error(),
		})
	}
}

func subscriptionToResponse(sub *entity.UserSubscription) *dto.SubscriptionResponse {
	return &dto.SubscriptionResponse{
		Id:                 sub.Id,
		PlanId:             sub.PlanId,
		Status:             string(sub.Status),
		PaymentStatus:      string(sub.PaymentStatus),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
}
