package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"grocery_backend/internal/metrics"
	"grocery_backend/internal/models"
	"grocery_backend/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// CouponValidation is the structured answer to "can I use this code".
type CouponValidation struct {
	Valid    bool           `json:"valid"`
	Code     string         `json:"code"`
	Discount float64        `json:"discount,omitempty"`
	Reason   string         `json:"reason,omitempty"`
	Message  string         `json:"message,omitempty"`
	Coupon   *models.Coupon `json:"-"`
}

// RedeemResult describes a completed (or replayed) redemption.
type RedeemResult struct {
	Coupon          models.Coupon `json:"coupon"`
	Discount        float64       `json:"discount"`
	AlreadyRedeemed bool          `json:"alreadyRedeemed"`
}

// CreateCouponRequest is the admin payload for a new coupon.
type CreateCouponRequest struct {
	Code               string    `json:"code" binding:"required,couponcode"`
	DiscountType       string    `json:"discountType" binding:"required,oneof=percentage fixed"`
	DiscountPercentage float64   `json:"discountPercentage" binding:"gte=0,lte=100"`
	DiscountAmount     float64   `json:"discountAmount" binding:"gte=0"`
	MinimumOrderAmount float64   `json:"minimumOrderAmount" binding:"gte=0"`
	MaximumDiscount    *float64  `json:"maximumDiscount" binding:"omitempty,gt=0"`
	UsageLimit         *int      `json:"usageLimit" binding:"omitempty,gt=0"`
	UserUsageLimit     int       `json:"userUsageLimit" binding:"gte=0"`
	ExpirationDate     time.Time `json:"expirationDate" binding:"required"`
	UserID             *int64    `json:"userId"`
	FirstOrderOnly     bool      `json:"firstOrderOnly"`
	NewUsersOnly       bool      `json:"newUsersOnly"`
	Description        string    `json:"description"`
}

// CouponPolicy holds the amounts used for automatically issued coupons.
type CouponPolicy struct {
	ReferralRewardAmount float64
	ReferralRewardTTL    time.Duration
	WelcomeCouponAmount  float64
}

// CouponService is the coupon engine.
type CouponService interface {
	Validate(ctx context.Context, code string, userID int64, orderAmount float64) (*CouponValidation, error)
	// Redeem runs its own transaction and then issues any referral reward.
	Redeem(ctx context.Context, code string, userID, orderID int64, orderAmount float64) (*RedeemResult, error)
	// RedeemWithin redeems inside the caller's transaction. The caller must call
	// AfterRedeem once the transaction commits.
	RedeemWithin(ctx context.Context, tx repositories.SQLExecutor, code string, userID, orderID int64, orderAmount float64) (*RedeemResult, error)
	AfterRedeem(ctx context.Context, result *RedeemResult)

	ListAvailable(ctx context.Context, userID int64) ([]models.Coupon, error)
	List(ctx context.Context, filters models.CouponFilters) ([]models.Coupon, int, error)
	Create(ctx context.Context, req CreateCouponRequest) (*models.Coupon, error)
	SetActive(ctx context.Context, couponID int64, active bool) error
	Delete(ctx context.Context, couponID int64) error
	IssueWelcomeCoupon(ctx context.Context, userID, referrerID int64) (*models.Coupon, error)
}

type couponService struct {
	couponRepo repositories.CouponRepository
	orderRepo  repositories.OrderRepository
	tx         repositories.Transactor
	policy     CouponPolicy
	now        func() time.Time
}

// NewCouponService creates a new instance of CouponService.
func NewCouponService(
	cr repositories.CouponRepository,
	or repositories.OrderRepository,
	tx repositories.Transactor,
	policy CouponPolicy,
	now func() time.Time,
) CouponService {
	if now == nil {
		now = time.Now
	}
	return &couponService{couponRepo: cr, orderRepo: or, tx: tx, policy: policy, now: now}
}

var tracer = otel.Tracer("grocery_backend/internal/services")

func invalidCoupon(code string, r CouponRejection, c *models.Coupon) *CouponValidation {
	return &CouponValidation{Valid: false, Code: code, Reason: string(r), Message: r.Message(c), Coupon: c}
}

// couponContext gathers the order history the coupon rules need.
func (s *couponService) couponContext(ctx context.Context, c *models.Coupon, userID int64, orderAmount float64) (CouponContext, error) {
	cc := CouponContext{UserID: userID, OrderAmount: orderAmount, Now: s.now()}
	var err error
	if c.FirstOrderOnly {
		if cc.PriorOrders, err = s.orderRepo.CountUserOrders(ctx, userID, false); err != nil {
			return cc, err
		}
	}
	if c.NewUsersOnly {
		if cc.AnyPriorOrders, err = s.orderRepo.CountUserOrders(ctx, userID, true); err != nil {
			return cc, err
		}
	}
	return cc, nil
}

func (s *couponService) Validate(ctx context.Context, code string, userID int64, orderAmount float64) (*CouponValidation, error) {
	if math.IsNaN(orderAmount) || math.IsInf(orderAmount, 0) || orderAmount < 0 {
		return nil, fmt.Errorf("%w: order amount must be a non-negative number", ErrValidation)
	}
	code = models.NormalizeCouponCode(code)
	if code == "" {
		return invalidCoupon(code, RejectNotFound, nil), nil
	}

	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return invalidCoupon(code, RejectNotFound, nil), nil
		}
		return nil, fmt.Errorf("loading coupon %s: %w", code, err)
	}

	cc, err := s.couponContext(ctx, coupon, userID, orderAmount)
	if err != nil {
		return nil, fmt.Errorf("loading order history for coupon %s: %w", code, err)
	}
	if cc.UserUsages, err = s.couponRepo.CountUserUsages(ctx, coupon.ID, userID); err != nil {
		return nil, fmt.Errorf("counting usages of coupon %s: %w", code, err)
	}

	if r := EvaluateCoupon(*coupon, cc); r != "" {
		if r == RejectExpired {
			if err := s.couponRepo.SetActive(ctx, coupon.ID, false); err != nil {
				log.Warn().Err(err).Int64("coupon_id", coupon.ID).Msg("failed to deactivate expired coupon")
			} else {
				coupon.IsActive = false
			}
		}
		return invalidCoupon(code, r, coupon), nil
	}

	return &CouponValidation{
		Valid:    true,
		Code:     code,
		Discount: CalculateDiscount(*coupon, orderAmount),
		Coupon:   coupon,
	}, nil
}

func (s *couponService) Redeem(ctx context.Context, code string, userID, orderID int64, orderAmount float64) (*RedeemResult, error) {
	var result *RedeemResult
	err := s.tx.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		result, err = s.RedeemWithin(ctx, tx, code, userID, orderID, orderAmount)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.AfterRedeem(ctx, result)
	return result, nil
}

func (s *couponService) RedeemWithin(ctx context.Context, tx repositories.SQLExecutor, code string, userID, orderID int64, orderAmount float64) (*RedeemResult, error) {
	ctx, span := tracer.Start(ctx, "CouponService.Redeem")
	defer span.End()
	code = models.NormalizeCouponCode(code)
	span.SetAttributes(attribute.String("coupon.code", code), attribute.Int64("order.id", orderID))

	var historyErr error
	guard := func(c models.Coupon, userUsages int) error {
		cc, err := s.couponContext(ctx, &c, userID, orderAmount)
		if err != nil {
			historyErr = err
			return err
		}
		cc.UserUsages = userUsages
		if r := EvaluateCoupon(c, cc); r != "" {
			return newCouponRejection(r, &c)
		}
		return nil
	}

	coupon, already, err := s.couponRepo.Redeem(ctx, tx, repositories.RedeemParams{
		Code: code, UserID: userID, OrderID: orderID, UsedAt: s.now(),
	}, guard)
	if err != nil {
		span.RecordError(err)
		var rejection *CouponRejectionError
		switch {
		case errors.As(err, &rejection):
			metrics.CouponRedemptions.WithLabelValues("rejected").Inc()
			return nil, rejection
		case errors.Is(err, repositories.ErrNotFound):
			metrics.CouponRedemptions.WithLabelValues("rejected").Inc()
			return nil, newCouponRejection(RejectNotFound, nil)
		case errors.Is(err, repositories.ErrCouponExhausted):
			metrics.CouponRedemptions.WithLabelValues("rejected").Inc()
			return nil, newCouponRejection(RejectUsageLimit, nil)
		case historyErr != nil:
			metrics.CouponRedemptions.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("loading order history for coupon %s: %w", code, historyErr)
		}
		metrics.CouponRedemptions.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("redeeming coupon %s for order %d: %w", code, orderID, err)
	}

	if already {
		metrics.CouponRedemptions.WithLabelValues("replayed").Inc()
	} else {
		metrics.CouponRedemptions.WithLabelValues("redeemed").Inc()
	}
	return &RedeemResult{
		Coupon:          *coupon,
		Discount:        CalculateDiscount(*coupon, orderAmount),
		AlreadyRedeemed: already,
	}, nil
}

// AfterRedeem issues the referrer's reward the first time a referral coupon is used.
// Failures are logged; the redemption itself has already committed.
func (s *couponService) AfterRedeem(ctx context.Context, result *RedeemResult) {
	if result == nil || result.AlreadyRedeemed {
		return
	}
	c := result.Coupon
	if !c.IsReferralCoupon || c.ReferredBy == nil {
		return
	}

	referrer := *c.ReferredBy
	one := 1
	reward := &models.Coupon{
		Code:           generateCouponCode("REF"),
		DiscountType:   models.DiscountTypeFixed,
		DiscountAmount: s.policy.ReferralRewardAmount,
		UsageLimit:     &one,
		UserUsageLimit: 1,
		ExpirationDate: s.now().Add(s.policy.ReferralRewardTTL),
		IsActive:       true,
		UserID:         &referrer,
		Description:    fmt.Sprintf("Referral reward for inviting a friend (coupon %s)", c.Code),
	}
	if _, err := s.couponRepo.Create(ctx, reward); err != nil {
		log.Error().Err(err).Int64("referrer_id", referrer).Str("coupon", c.Code).Msg("failed to issue referral reward coupon")
		return
	}
	log.Info().Int64("referrer_id", referrer).Str("reward_code", reward.Code).Msg("referral reward coupon issued")
}

func (s *couponService) ListAvailable(ctx context.Context, userID int64) ([]models.Coupon, error) {
	coupons, err := s.couponRepo.ListAvailableForUser(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("listing coupons for user %d: %w", userID, err)
	}
	return coupons, nil
}

func (s *couponService) List(ctx context.Context, filters models.CouponFilters) ([]models.Coupon, int, error) {
	return s.couponRepo.List(ctx, filters)
}

func (s *couponService) Create(ctx context.Context, req CreateCouponRequest) (*models.Coupon, error) {
	code := models.NormalizeCouponCode(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: coupon code cannot be empty", ErrValidation)
	}
	switch req.DiscountType {
	case models.DiscountTypePercentage:
		if req.DiscountPercentage <= 0 || req.DiscountPercentage > 100 {
			return nil, fmt.Errorf("%w: percentage must be between 0 and 100", ErrValidation)
		}
	case models.DiscountTypeFixed:
		if req.DiscountAmount <= 0 {
			return nil, fmt.Errorf("%w: fixed discount amount must be positive", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown discount type %q", ErrValidation, req.DiscountType)
	}
	if !req.ExpirationDate.After(s.now()) {
		return nil, fmt.Errorf("%w: expiration date must be in the future", ErrValidation)
	}
	userUsageLimit := req.UserUsageLimit
	if userUsageLimit == 0 {
		userUsageLimit = 1
	}

	coupon := &models.Coupon{
		Code:               code,
		DiscountType:       req.DiscountType,
		DiscountPercentage: req.DiscountPercentage,
		DiscountAmount:     req.DiscountAmount,
		MinimumOrderAmount: req.MinimumOrderAmount,
		MaximumDiscount:    req.MaximumDiscount,
		UsageLimit:         req.UsageLimit,
		UserUsageLimit:     userUsageLimit,
		ExpirationDate:     req.ExpirationDate,
		IsActive:           true,
		UserID:             req.UserID,
		FirstOrderOnly:     req.FirstOrderOnly,
		NewUsersOnly:       req.NewUsersOnly,
		Description:        strings.TrimSpace(req.Description),
	}
	if _, err := s.couponRepo.Create(ctx, coupon); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrCouponCodeTaken, code)
		}
		return nil, fmt.Errorf("creating coupon %s: %w", code, err)
	}
	return coupon, nil
}

func (s *couponService) SetActive(ctx context.Context, couponID int64, active bool) error {
	if err := s.couponRepo.SetActive(ctx, couponID, active); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("updating coupon %d: %w", couponID, err)
	}
	return nil
}

func (s *couponService) Delete(ctx context.Context, couponID int64) error {
	if err := s.couponRepo.Delete(ctx, couponID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("deleting coupon %d: %w", couponID, err)
	}
	return nil
}

// IssueWelcomeCoupon gives a newly registered user a first-order coupon that
// rewards referrerID once it is used.
func (s *couponService) IssueWelcomeCoupon(ctx context.Context, userID, referrerID int64) (*models.Coupon, error) {
	if userID <= 0 || referrerID <= 0 {
		return nil, fmt.Errorf("%w: user and referrer are required", ErrValidation)
	}
	if userID == referrerID {
		return nil, fmt.Errorf("%w: users cannot refer themselves", ErrValidation)
	}
	one := 1
	coupon := &models.Coupon{
		Code:             generateCouponCode("WELCOME"),
		DiscountType:     models.DiscountTypeFixed,
		DiscountAmount:   s.policy.WelcomeCouponAmount,
		UsageLimit:       &one,
		UserUsageLimit:   1,
		ExpirationDate:   s.now().Add(s.policy.ReferralRewardTTL),
		IsActive:         true,
		UserID:           &userID,
		FirstOrderOnly:   true,
		IsReferralCoupon: true,
		ReferredBy:       &referrerID,
		Description:      "Welcome coupon for your first order",
	}
	if _, err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, fmt.Errorf("issuing welcome coupon for user %d: %w", userID, err)
	}
	return coupon, nil
}

func generateCouponCode(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:8])
}
