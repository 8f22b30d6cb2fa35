package service

import (
	"context"
	"errors"
	"fmt"

	entitlementerrors "fitbook/internal/entitlement/errors"
	"fitbook/internal/entitlement/repository"
	"fitbook/pkg/config"
	apperrors "fitbook/pkg/errors"
	"fitbook/pkg/model"
)

// SessionCounter reports how many sessions currently consume a pack. The
// booking context's session repository satisfies it; keeping the interface
// here avoids a package cycle.
type SessionCounter interface {
	CountPackConsumption(ctx context.Context, packID string) (int64, error)
}

// Entitlement is the validated source a booking will consume. Exactly one of
// the id fields is set for pack/subscription methods; none for one-off.
type Entitlement struct {
	Method         string
	PackID         string
	SubscriptionID string
	CreditID       string
	// PerSessionValue is carried for subscription bookings so a later
	// no-penalty cancellation knows the credit value to issue.
	PerSessionValue float64
}

// Request carries the booking-method fields of an incoming booking.
type Request struct {
	ClientID       string
	TrainerID      string
	ServiceTypeID  string
	Method         string
	PackID         string
	SubscriptionID string
	// Quantity is 1 for single bookings; recurring confirm validates the
	// whole batch at once.
	Quantity int
}

type EntitlementService interface {
	Validate(ctx context.Context, req Request) (*Entitlement, error)
	// Consume applies the entitlement side effect for a committed booking:
	// pack CAS decrement, credit available->used, nothing for fresh
	// allocations and one-offs. Lost races surface as Concurrency errors.
	Consume(ctx context.Context, ent *Entitlement, quantity int) error
	// Reverse undoes consumption for a no-penalty cancellation.
	Reverse(ctx context.Context, session *model.Session) error
}

type entitlementService struct {
	packs         repository.PackRepository
	subscriptions repository.SubscriptionRepository
	credits       repository.CreditRepository
	sessions      SessionCounter
	cfg           *config.Config
}

func NewEntitlementService(
	packs repository.PackRepository,
	subscriptions repository.SubscriptionRepository,
	credits repository.CreditRepository,
	sessions SessionCounter,
	cfg *config.Config,
) EntitlementService {
	return &entitlementService{
		packs:         packs,
		subscriptions: subscriptions,
		credits:       credits,
		sessions:      sessions,
		cfg:           cfg,
	}
}

func (s *entitlementService) Validate(ctx context.Context, req Request) (*Entitlement, error) {
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	switch req.Method {
	case model.MethodOneOff:
		return &Entitlement{Method: model.MethodOneOff}, nil
	case model.MethodPack:
		return s.validatePack(ctx, req)
	case model.MethodSubscription:
		return s.validateSubscription(ctx, req)
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown booking method: %s", req.Method))
	}
}

func (s *entitlementService) validatePack(ctx context.Context, req Request) (*Entitlement, error) {
	if req.PackID == "" {
		return nil, apperrors.InvalidInput("sourcePackId is required for pack bookings")
	}

	pack, err := s.packs.FindScoped(ctx, req.PackID, req.ClientID, req.TrainerID)
	if err != nil {
		if errors.Is(err, entitlementerrors.ErrPackNotFound) {
			return nil, apperrors.Entitlement("Session pack not found for this client")
		}
		if errors.Is(err, entitlementerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid session pack ID format")
		}
		return nil, apperrors.Internal("Failed to load session pack", err)
	}

	if pack.Status != model.PackActive {
		return nil, apperrors.Entitlement(fmt.Sprintf("Session pack is %s", pack.Status))
	}
	if pack.ServiceTypeID != req.ServiceTypeID {
		return nil, apperrors.Entitlement("Session pack covers a different service type")
	}

	// Capacity comes from live session counts; the cached counter is only
	// the CAS guard and may drift.
	consumed, err := s.sessions.CountPackConsumption(ctx, pack.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to count pack consumption", err)
	}

	if consumed+int64(req.Quantity) > int64(pack.TotalSessions) {
		return nil, apperrors.Entitlement("No sessions remaining in pack")
	}

	return &Entitlement{Method: model.MethodPack, PackID: pack.ID}, nil
}

func (s *entitlementService) validateSubscription(ctx context.Context, req Request) (*Entitlement, error) {
	if req.SubscriptionID == "" {
		return nil, apperrors.InvalidInput("sourceSubscriptionId is required for subscription bookings")
	}

	subscription, err := s.subscriptions.FindScoped(ctx, req.SubscriptionID, req.ClientID, req.TrainerID)
	if err != nil {
		if errors.Is(err, entitlementerrors.ErrSubscriptionNotFound) {
			return nil, apperrors.Entitlement("Subscription not found for this client")
		}
		if errors.Is(err, entitlementerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid subscription ID format")
		}
		return nil, apperrors.Internal("Failed to load subscription", err)
	}

	if subscription.Status != model.SubscriptionActive {
		return nil, apperrors.Entitlement(fmt.Sprintf("Subscription is %s", subscription.Status))
	}

	allocation, ok := subscription.AllocationFor(req.ServiceTypeID)
	if !ok {
		return nil, apperrors.Entitlement("Subscription does not allocate this service type")
	}

	ent := &Entitlement{
		Method:          model.MethodSubscription,
		SubscriptionID:  subscription.ID,
		PerSessionValue: allocation.PerSessionValue,
	}

	// Prefer banking: an available credit for the same service type is
	// consumed before a fresh allocation slot.
	credit, err := s.credits.FindAvailable(ctx, subscription.ID, req.ServiceTypeID)
	if err != nil {
		if errors.Is(err, entitlementerrors.ErrCreditNotFound) {
			return ent, nil
		}
		return nil, apperrors.Internal("Failed to look up session credits", err)
	}

	ent.CreditID = credit.ID
	return ent, nil
}

func (s *entitlementService) Consume(ctx context.Context, ent *Entitlement, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}

	switch ent.Method {
	case model.MethodOneOff:
		return nil
	case model.MethodPack:
		return s.consumePack(ctx, ent.PackID, quantity)
	case model.MethodSubscription:
		if ent.CreditID == "" {
			return nil // fresh allocation slot, no counter to move
		}
		err := s.credits.MarkUsed(ctx, ent.CreditID)
		if errors.Is(err, entitlementerrors.ErrStaleCounter) {
			return apperrors.Concurrency("Session credit was claimed by a concurrent booking, retry")
		}
		if err != nil {
			return apperrors.Internal("Failed to consume session credit", err)
		}
		return nil
	default:
		return apperrors.InvalidInput(fmt.Sprintf("unknown booking method: %s", ent.Method))
	}
}

// consumePack reads the counter then issues a single guarded decrement. A
// lost race is not retried here: the caller already inserted a session, so it
// must compensate and let the client retry the whole booking.
func (s *entitlementService) consumePack(ctx context.Context, packID string, quantity int) error {
	pack, err := s.packs.FindByID(ctx, packID)
	if err != nil {
		return apperrors.Internal("Failed to load session pack for decrement", err)
	}

	if pack.SessionsRemaining < quantity {
		return apperrors.Entitlement("No sessions remaining in pack")
	}

	err = s.packs.DecrementRemaining(ctx, packID, pack.SessionsRemaining, quantity)
	if errors.Is(err, entitlementerrors.ErrStaleCounter) {
		return apperrors.Concurrency("Pack was modified by a concurrent booking, retry")
	}
	if err != nil {
		return apperrors.Internal("Failed to decrement session pack", err)
	}

	return nil
}

const reverseRetries = 3

func (s *entitlementService) Reverse(ctx context.Context, session *model.Session) error {
	switch {
	case session.SourcePackID != "":
		return s.reversePack(ctx, session.SourcePackID)
	case session.SourceCreditID != "":
		err := s.credits.Release(ctx, session.SourceCreditID)
		if errors.Is(err, entitlementerrors.ErrStaleCounter) {
			// Credit is not in used_for_session anymore; nothing to undo.
			s.cfg.Log.Warn("Credit release skipped, status already changed",
				"credit_id", session.SourceCreditID,
			)
			return nil
		}
		if err != nil {
			return apperrors.Internal("Failed to release session credit", err)
		}
		return nil
	case session.SourceSubscription != "":
		return s.issueCredit(ctx, session)
	default:
		return nil // one-off, nothing was consumed
	}
}

// reversePack increments the counter with a short CAS retry loop: unlike the
// decrement path there is no session to compensate, so retrying in place is
// safe and spares the caller a spurious 409.
func (s *entitlementService) reversePack(ctx context.Context, packID string) error {
	var lastErr error
	for attempt := 0; attempt < reverseRetries; attempt++ {
		pack, err := s.packs.FindByID(ctx, packID)
		if err != nil {
			return apperrors.Internal("Failed to load session pack for increment", err)
		}

		err = s.packs.IncrementRemaining(ctx, packID, pack.SessionsRemaining, 1)
		if err == nil {
			return nil
		}
		if !errors.Is(err, entitlementerrors.ErrStaleCounter) {
			return apperrors.Internal("Failed to increment session pack", err)
		}
		lastErr = err
	}

	return apperrors.Concurrency("Pack counter kept changing during refund, retry the cancellation").WithDetails(map[string]any{
		"pack_id": packID,
		"cause":   lastErr.Error(),
	})
}

func (s *entitlementService) issueCredit(ctx context.Context, session *model.Session) error {
	subscription, err := s.subscriptions.FindByID(ctx, session.SourceSubscription)
	if err != nil {
		return apperrors.Internal("Failed to load subscription for credit issuance", err)
	}

	value := 0.0
	if allocation, ok := subscription.AllocationFor(session.ServiceTypeID); ok {
		value = allocation.PerSessionValue
	}

	credit := &model.SessionCredit{
		SubscriptionID: subscription.ID,
		ServiceTypeID:  session.ServiceTypeID,
		Value:          value,
		Status:         model.CreditAvailable,
		Reason:         "cancellation",
	}

	if err := s.credits.Create(ctx, credit); err != nil {
		return apperrors.Internal("Failed to issue session credit", err)
	}

	s.cfg.Log.Info("Session credit issued for cancellation",
		"credit_id", credit.ID,
		"subscription_id", subscription.ID,
		"service_type_id", session.ServiceTypeID,
	)
	return nil
}
