package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"grocery_backend/internal/metrics"
	"grocery_backend/internal/models"
	"grocery_backend/internal/orderwindow"
	"grocery_backend/internal/repositories"
	"grocery_backend/pkg/utils"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// PlaceOrderItem is one submitted cart line. Price is accepted for
// compatibility with older clients and never used.
type PlaceOrderItem struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
}

// PlaceOrderRequest is the checkout payload. TotalAmount is ignored; the
// total is always recomputed from catalog prices.
type PlaceOrderRequest struct {
	Products          []PlaceOrderItem `json:"products"`
	TotalAmount       float64          `json:"totalAmount,omitempty"`
	City              string           `json:"city"`
	Phone             string           `json:"phone"`
	Note              string           `json:"note"`
	DeliveryPoint     string           `json:"deliveryPoint"`
	DeliveryPointName string           `json:"deliveryPointName"`
	CouponCode        string           `json:"couponCode"`
}

// PlaceOrderResult is returned to the customer after a successful checkout.
type PlaceOrderResult struct {
	OrderID     int64         `json:"orderId"`
	Subtotal    float64       `json:"subtotal"`
	Discount    float64       `json:"discount"`
	TotalAmount float64       `json:"totalAmount"`
	Order       *models.Order `json:"-"`
}

// CheckoutService turns a submitted cart into a persisted order.
type CheckoutService interface {
	// PlaceOrder returns a *CheckoutError for every rejection.
	PlaceOrder(ctx context.Context, userID int64, req PlaceOrderRequest) (*PlaceOrderResult, error)
}

// CheckoutDeps groups the collaborators of the checkout pipeline.
type CheckoutDeps struct {
	Window       OrderWindow
	SettingsRepo repositories.SettingsRepository
	ProductRepo  repositories.ProductRepository
	OrderRepo    repositories.OrderRepository
	CartRepo     repositories.CartRepository
	Coupons      CouponService
	Transactor   repositories.Transactor
	Events       OrderEvents
	// LookupParallelism bounds concurrent product lookups. Values below 1 mean 4.
	LookupParallelism int
}

type checkoutService struct {
	CheckoutDeps
}

// NewCheckoutService creates a new instance of CheckoutService.
func NewCheckoutService(deps CheckoutDeps) CheckoutService {
	if deps.LookupParallelism < 1 {
		deps.LookupParallelism = 4
	}
	return &checkoutService{CheckoutDeps: deps}
}

func (s *checkoutService) PlaceOrder(ctx context.Context, userID int64, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID), attribute.Int("order.lines", len(req.Products)))

	result, err := s.placeOrder(ctx, userID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var ce *CheckoutError
		if errors.As(err, &ce) {
			span.SetAttributes(attribute.String("checkout.rejection", ce.Reason()))
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int64("order.id", result.OrderID))
	return result, nil
}

func (s *checkoutService) placeOrder(ctx context.Context, userID int64, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if !s.Window.IsWithinOrderHours(ctx) {
		msg, err := s.Window.OrderHoursMessage(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("could not render order hours message")
			msg = "We are not accepting orders right now."
		}
		return nil, reject(ErrInvalidTimeWindow, "%s", msg)
	}

	if len(req.Products) == 0 {
		return nil, reject(ErrEmptyCart, "Your cart is empty.")
	}

	phone, err := checkRequiredFields(req)
	if err != nil {
		return nil, err
	}

	settings, err := s.SettingsRepo.GetOrCreate(ctx)
	if err != nil {
		return nil, persistenceFailure("We could not load store settings. Please try again.", err)
	}
	pointName, err := s.checkDeliveryPoint(settings.DeliveryPoints, req.DeliveryPoint)
	if err != nil {
		return nil, err
	}
	if !utils.IsEmpty(req.DeliveryPointName) {
		pointName = strings.TrimSpace(req.DeliveryPointName)
	}

	items, subtotal, err := s.resolveProducts(ctx, req.Products)
	if err != nil {
		return nil, err
	}

	minimum := decimal.NewFromFloat(settings.MinimumOrderAmount)
	if subtotal.LessThan(minimum) {
		return nil, reject(ErrBelowMinimumOrder, "The minimum order amount is %s TL.", minimum.StringFixed(2))
	}
	subtotalAmount := roundMoney(subtotal)

	code := models.NormalizeCouponCode(req.CouponCode)
	var discount float64
	if code != "" {
		v, err := s.Coupons.Validate(ctx, code, userID, subtotalAmount)
		if err != nil {
			return nil, persistenceFailure("We could not check your coupon. Please try again.", err)
		}
		if !v.Valid {
			return nil, reject(ErrInvalidCoupon, "%s", v.Message)
		}
		discount = v.Discount
	}

	now := s.Window.Now()
	order := &models.Order{
		UserID:            userID,
		Items:             items,
		SubtotalAmount:    subtotalAmount,
		DiscountAmount:    discount,
		TotalAmount:       roundMoney(subtotal.Sub(decimal.NewFromFloat(discount))),
		City:              strings.TrimSpace(req.City),
		Phone:             phone,
		CouponCode:        utils.NewNullString(code),
		DeliveryPoint:     req.DeliveryPoint,
		DeliveryPointName: pointName,
		Note:              utils.NewNullString(req.Note),
		Status:            models.OrderStatusPreparing,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var redeemed *RedeemResult
	err = s.Transactor.WithinTx(ctx, func(tx repositories.SQLExecutor) error {
		id, err := s.OrderRepo.Create(ctx, tx, order)
		if err != nil {
			return err
		}
		order.ID = id
		if code == "" {
			return nil
		}
		redeemed, err = s.Coupons.RedeemWithin(ctx, tx, code, userID, id, subtotalAmount)
		if err != nil {
			return err
		}
		if redeemed.Discount != discount {
			return &CouponRejectionError{
				Reason:  RejectInactive,
				Message: "This coupon changed while your order was being placed. Please try again.",
			}
		}
		return nil
	})
	if err != nil {
		order.ID = 0
		var rejection *CouponRejectionError
		if errors.As(err, &rejection) {
			return nil, reject(ErrInvalidCoupon, "%s", rejection.Message)
		}
		return nil, persistenceFailure("We could not place your order. Please try again.", err)
	}

	// The order is committed from here on; nothing below may fail the request.
	after := context.WithoutCancel(ctx)
	if err := s.CartRepo.Clear(after, userID); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Int64("order_id", order.ID).Msg("order placed but cart could not be cleared")
	}
	s.Coupons.AfterRedeem(after, redeemed)
	s.Events.OrderPlaced(*order)
	metrics.OrdersPlaced.Inc()

	log.Info().
		Int64("order_id", order.ID).
		Int64("user_id", userID).
		Float64("total", order.TotalAmount).
		Str("coupon", code).
		Msg("order placed")

	return &PlaceOrderResult{
		OrderID:     order.ID,
		Subtotal:    order.SubtotalAmount,
		Discount:    order.DiscountAmount,
		TotalAmount: order.TotalAmount,
		Order:       order,
	}, nil
}

// checkRequiredFields returns the normalized phone number.
func checkRequiredFields(req PlaceOrderRequest) (string, error) {
	var missing []string
	if utils.IsEmpty(req.City) {
		missing = append(missing, "city")
	}
	if utils.IsEmpty(req.Phone) {
		missing = append(missing, "phone")
	}
	if utils.IsEmpty(req.DeliveryPoint) {
		missing = append(missing, "deliveryPoint")
	}
	if len(missing) > 0 {
		return "", reject(ErrMissingRequiredField, "Please fill in the required fields: %s.", strings.Join(missing, ", "))
	}
	phone, ok := utils.NormalizePhone(req.Phone)
	if !ok {
		return "", reject(ErrInvalidPhone, "Please enter a valid mobile phone number.")
	}
	return phone, nil
}

// checkDeliveryPoint returns the display name of the selected point.
func (s *checkoutService) checkDeliveryPoint(points models.DeliveryPoints, selected string) (string, error) {
	if !points.AnyEnabled() {
		return "", reject(ErrDeliveryPointUnavailable, "Delivery is currently unavailable. Please try again later.")
	}
	point, ok := points[selected]
	if !ok {
		return "", reject(ErrDeliveryPointUnavailable, "Unknown delivery point %q.", selected)
	}
	if !point.Enabled {
		if alt := alternativePoint(points, selected); alt != "" {
			return "", reject(ErrDeliveryPointUnavailable, "Delivery to %s is currently unavailable. Please choose %s instead.", point.DisplayName, alt)
		}
		return "", reject(ErrDeliveryPointUnavailable, "Delivery to %s is currently unavailable.", point.DisplayName)
	}
	if w, ok := orderwindow.ForDeliveryPoint(point); ok && !w.Contains(s.Window.Now()) {
		return "", reject(ErrDeliveryPointUnavailable, "Delivery to %s: %s", point.DisplayName, w.Message())
	}
	return point.DisplayName, nil
}

func alternativePoint(points models.DeliveryPoints, exclude string) string {
	ids := make([]string, 0, len(points))
	for id, p := range points {
		if id != exclude && p.Enabled {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return ""
	}
	sort.Strings(ids)
	return points[ids[0]].DisplayName
}

type orderLine struct {
	productID int64
	quantity  int
}

// mergeLines folds duplicate product ids together, keeping first-seen order.
func mergeLines(products []PlaceOrderItem) ([]orderLine, error) {
	index := make(map[int64]int, len(products))
	lines := make([]orderLine, 0, len(products))
	for _, p := range products {
		if p.ProductID <= 0 {
			return nil, reject(ErrMissingRequiredField, "Every cart line needs a product.")
		}
		if p.Quantity <= 0 {
			return nil, reject(ErrMissingRequiredField, "Quantity for product %d must be at least 1.", p.ProductID)
		}
		if i, ok := index[p.ProductID]; ok {
			lines[i].quantity += p.Quantity
			continue
		}
		index[p.ProductID] = len(lines)
		lines = append(lines, orderLine{productID: p.ProductID, quantity: p.Quantity})
	}
	return lines, nil
}

// resolveProducts looks every line up in the catalog and prices it. Any
// missing or unavailable product fails the whole order.
func (s *checkoutService) resolveProducts(ctx context.Context, products []PlaceOrderItem) ([]models.OrderItem, decimal.Decimal, error) {
	lines, err := mergeLines(products)
	if err != nil {
		return nil, decimal.Zero, err
	}

	lookups := make([]models.ProductLookup, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.LookupParallelism)
	for i, line := range lines {
		g.Go(func() error {
			lookup, err := s.ProductRepo.FindByID(gctx, line.productID)
			if err != nil {
				return fmt.Errorf("product %d: %w", line.productID, err)
			}
			lookups[i] = lookup
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, decimal.Zero, persistenceFailure("We could not load the products in your cart. Please try again.", err)
	}

	items := make([]models.OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for i, line := range lines {
		p, ok := lookups[i].Get()
		if !ok || !p.IsAvailable {
			return nil, decimal.Zero, reject(ErrProductNotFound, "Product %d is no longer available. Please remove it from your cart.", line.productID)
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  line.quantity,
			Price:     p.Price,
		})
		subtotal = subtotal.Add(lineTotal(p.Price, line.quantity))
	}
	return items, subtotal, nil
}
