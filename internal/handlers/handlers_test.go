package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"grocery_backend/internal/middleware"
	"grocery_backend/internal/models"
	"grocery_backend/internal/services"
	"grocery_backend/internal/services/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func newContext(t *testing.T, method, target string, body interface{}, userID int64, role string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		c.Set("userID", userID)
		c.Set("userRole", role)
	}
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCartHandler_AddItem(t *testing.T) {
	t.Run("adds and returns the cart", func(t *testing.T) {
		svc := mocks.NewCartService(t)
		cart := &models.Cart{Items: []models.CartLine{{ProductID: 5, Quantity: 2}}, ItemCount: 2}
		svc.On("AddItem", mock.Anything, int64(9), int64(5), 2).Return(cart, nil)

		c, w := newContext(t, http.MethodPost, "/cart/add", AddToCartRequest{ProductID: 5, Quantity: 2}, 9, middleware.RoleCustomer)
		NewCartHandler(svc).AddItem(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var got models.Cart
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 2, got.ItemCount)
	})

	t.Run("zero quantity fails binding", func(t *testing.T) {
		svc := mocks.NewCartService(t)
		c, w := newContext(t, http.MethodPost, "/cart/add", gin.H{"productId": 5, "quantity": 0}, 9, middleware.RoleCustomer)
		NewCartHandler(svc).AddItem(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "AddItem")
	})

	t.Run("unknown product is 404", func(t *testing.T) {
		svc := mocks.NewCartService(t)
		svc.On("AddItem", mock.Anything, int64(9), int64(77), 1).Return(nil, services.ErrProductNotFound)

		c, w := newContext(t, http.MethodPost, "/cart/add", AddToCartRequest{ProductID: 77, Quantity: 1}, 9, middleware.RoleCustomer)
		NewCartHandler(svc).AddItem(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "PRODUCT_NOT_FOUND", decodeError(t, w).Error.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := mocks.NewCartService(t)
		c, w := newContext(t, http.MethodPost, "/cart/add", AddToCartRequest{ProductID: 5, Quantity: 1}, 0, "")
		NewCartHandler(svc).AddItem(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCartHandler_UpdateAndRemove(t *testing.T) {
	t.Run("zero quantity is forwarded", func(t *testing.T) {
		svc := mocks.NewCartService(t)
		svc.On("UpdateQuantity", mock.Anything, int64(9), int64(5), 0).Return(&models.Cart{Items: []models.CartLine{}}, nil)

		c, w := newContext(t, http.MethodPut, "/cart/update/5", gin.H{"quantity": 0}, 9, middleware.RoleCustomer)
		c.Params = gin.Params{{Key: "productId", Value: "5"}}
		NewCartHandler(svc).UpdateItem(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing line is 404", func(t *testing.T) {
		svc := mocks.NewCartService(t)
		svc.On("UpdateQuantity", mock.Anything, int64(9), int64(5), 3).Return(nil, services.ErrCartItemNotFound)

		c, w := newContext(t, http.MethodPut, "/cart/update/5", gin.H{"quantity": 3}, 9, middleware.RoleCustomer)
		c.Params = gin.Params{{Key: "productId", Value: "5"}}
		NewCartHandler(svc).UpdateItem(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad product id", func(t *testing.T) {
		svc := mocks.NewCartService(t)
		c, w := newContext(t, http.MethodPut, "/cart/update/abc", gin.H{"quantity": 3}, 9, middleware.RoleCustomer)
		c.Params = gin.Params{{Key: "productId", Value: "abc"}}
		NewCartHandler(svc).UpdateItem(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("remove without body clears", func(t *testing.T) {
		svc := mocks.NewCartService(t)
		svc.On("RemoveItem", mock.Anything, int64(9), (*int64)(nil)).Return(&models.Cart{Items: []models.CartLine{}}, nil)

		c, w := newContext(t, http.MethodPost, "/cart/remove", nil, 9, middleware.RoleCustomer)
		NewCartHandler(svc).RemoveItem(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("remove one line", func(t *testing.T) {
		svc := mocks.NewCartService(t)
		svc.On("RemoveItem", mock.Anything, int64(9), mock.MatchedBy(func(id *int64) bool {
			return id != nil && *id == 5
		})).Return(&models.Cart{Items: []models.CartLine{}}, nil)

		c, w := newContext(t, http.MethodPost, "/cart/remove", gin.H{"productId": 5}, 9, middleware.RoleCustomer)
		NewCartHandler(svc).RemoveItem(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestOrderHandler_PlaceOrder(t *testing.T) {
	req := services.PlaceOrderRequest{
		Products:      []services.PlaceOrderItem{{ProductID: 1, Quantity: 2}},
		City:          "Ankara",
		Phone:         "05321234567",
		DeliveryPoint: models.DeliveryPointGirlsDorm,
	}

	t.Run("created", func(t *testing.T) {
		checkout := mocks.NewCheckoutService(t)
		checkout.On("PlaceOrder", mock.Anything, int64(3), req).
			Return(&services.PlaceOrderResult{OrderID: 42, Subtotal: 200, Discount: 20, TotalAmount: 180}, nil)

		c, w := newContext(t, http.MethodPost, "/orders/place", req, 3, middleware.RoleCustomer)
		NewOrderHandler(checkout, mocks.NewOrderService(t)).PlaceOrder(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"orderId":42,"subtotal":200,"discount":20,"totalAmount":180}`, w.Body.String())
	})

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"outside hours", &services.CheckoutError{Kind: services.ErrInvalidTimeWindow, Message: "closed"}, http.StatusBadRequest, "INVALID_TIME_WINDOW"},
		{"below minimum", &services.CheckoutError{Kind: services.ErrBelowMinimumOrder, Message: "min 100.00"}, http.StatusBadRequest, "BELOW_MINIMUM_ORDER"},
		{"bad coupon", &services.CheckoutError{Kind: services.ErrInvalidCoupon, Message: "expired"}, http.StatusBadRequest, "INVALID_COUPON"},
		{"persistence", &services.CheckoutError{Kind: services.ErrPersistenceFailure, Message: "try again"}, http.StatusInternalServerError, "PERSISTENCE_FAILURE"},
		{"untyped error", errors.New("boom"), http.StatusInternalServerError, "PERSISTENCE_FAILURE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkout := mocks.NewCheckoutService(t)
			checkout.On("PlaceOrder", mock.Anything, int64(3), req).Return(nil, tt.err)

			c, w := newContext(t, http.MethodPost, "/orders/place", req, 3, middleware.RoleCustomer)
			NewOrderHandler(checkout, mocks.NewOrderService(t)).PlaceOrder(c)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Error.Code)
		})
	}
}

func TestOrderHandler_GetOrderByID(t *testing.T) {
	t.Run("admin flag comes from the role", func(t *testing.T) {
		orders := mocks.NewOrderService(t)
		orders.On("GetOrder", mock.Anything, int64(42), int64(1), true).Return(&models.Order{ID: 42}, nil)

		c, w := newContext(t, http.MethodGet, "/orders/42", nil, 1, middleware.RoleAdmin)
		c.Params = gin.Params{{Key: "id", Value: "42"}}
		NewOrderHandler(mocks.NewCheckoutService(t), orders).GetOrderByID(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("someone else's order is 404", func(t *testing.T) {
		orders := mocks.NewOrderService(t)
		orders.On("GetOrder", mock.Anything, int64(42), int64(3), false).Return(nil, services.ErrOrderNotFound)

		c, w := newContext(t, http.MethodGet, "/orders/42", nil, 3, middleware.RoleCustomer)
		c.Params = gin.Params{{Key: "id", Value: "42"}}
		NewOrderHandler(mocks.NewCheckoutService(t), orders).GetOrderByID(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	orders := mocks.NewOrderService(t)
	orders.On("CancelOrder", mock.Anything, int64(42), int64(3)).Return(nil, services.ErrOrderNotCancellable)

	c, w := newContext(t, http.MethodPost, "/orders/42/cancel", nil, 3, middleware.RoleCustomer)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	NewOrderHandler(mocks.NewCheckoutService(t), orders).CancelOrder(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOrderHandler_GetOrders(t *testing.T) {
	t.Run("defaults pagination", func(t *testing.T) {
		orders := mocks.NewOrderService(t)
		orders.On("ListOrders", mock.Anything, mock.MatchedBy(func(f models.OrderFilters) bool {
			return f.Page == 1 && f.PageSize == 10 && f.Status != nil && *f.Status == models.OrderStatusPreparing
		})).Return([]models.Order{{ID: 1}}, 1, nil)

		c, w := newContext(t, http.MethodGet, "/admin/orders?status="+url.QueryEscape(models.OrderStatusPreparing), nil, 1, middleware.RoleAdmin)
		NewOrderHandler(mocks.NewCheckoutService(t), orders).GetOrders(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Total    int `json:"total"`
			Page     int `json:"page"`
			PageSize int `json:"page_size"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Total)
		assert.Equal(t, 10, body.PageSize)
	})

	t.Run("bad date filter is 400", func(t *testing.T) {
		orders := mocks.NewOrderService(t)
		orders.On("ListOrders", mock.Anything, mock.Anything).Return(nil, 0, services.ErrValidation)

		c, w := newContext(t, http.MethodGet, "/admin/orders?date=yesterday", nil, 1, middleware.RoleAdmin)
		NewOrderHandler(mocks.NewCheckoutService(t), orders).GetOrders(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad page", func(t *testing.T) {
		orders := mocks.NewOrderService(t)
		c, w := newContext(t, http.MethodGet, "/admin/orders?page=0", nil, 1, middleware.RoleAdmin)
		NewOrderHandler(mocks.NewCheckoutService(t), orders).GetOrders(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_UpdateOrderStatus(t *testing.T) {
	orders := mocks.NewOrderService(t)
	orders.On("UpdateStatus", mock.Anything, int64(42), services.UpdateOrderStatusRequest{Status: "teleported"}).
		Return(nil, services.ErrInvalidOrderStatus)

	c, w := newContext(t, http.MethodPatch, "/admin/orders/42/status", gin.H{"status": "teleported"}, 1, middleware.RoleAdmin)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	NewOrderHandler(mocks.NewCheckoutService(t), orders).UpdateOrderStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCouponHandler_ValidateCoupon(t *testing.T) {
	t.Run("invalid coupon is still 200", func(t *testing.T) {
		coupons := mocks.NewCouponService(t)
		coupons.On("Validate", mock.Anything, "save10", int64(3), 150.0).
			Return(&services.CouponValidation{Valid: false, Code: "SAVE10", Reason: "expired", Message: "This coupon has expired."}, nil)

		c, w := newContext(t, http.MethodGet, "/coupons/validate?code=save10&orderAmount=150", nil, 3, middleware.RoleCustomer)
		NewCouponHandler(coupons).ValidateCoupon(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var got services.CouponValidation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.False(t, got.Valid)
		assert.Equal(t, "expired", got.Reason)
	})

	t.Run("missing code", func(t *testing.T) {
		coupons := mocks.NewCouponService(t)
		c, w := newContext(t, http.MethodGet, "/coupons/validate?orderAmount=150", nil, 3, middleware.RoleCustomer)
		NewCouponHandler(coupons).ValidateCoupon(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	for _, amount := range []string{"NaN", "Inf", "+Inf", "-Inf"} {
		t.Run("non-finite amount "+amount, func(t *testing.T) {
			coupons := mocks.NewCouponService(t)
			c, w := newContext(t, http.MethodGet, "/coupons/validate?code=X&orderAmount="+url.QueryEscape(amount), nil, 3, middleware.RoleCustomer)
			NewCouponHandler(coupons).ValidateCoupon(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			coupons.AssertNotCalled(t, "Validate")
		})
	}

	t.Run("service validation error is 400", func(t *testing.T) {
		coupons := mocks.NewCouponService(t)
		coupons.On("Validate", mock.Anything, "X", int64(3), 1e308).
			Return(nil, fmt.Errorf("%w: order amount out of range", services.ErrValidation))
		c, w := newContext(t, http.MethodGet, "/coupons/validate?code=X&orderAmount=1e308", nil, 3, middleware.RoleCustomer)
		NewCouponHandler(coupons).ValidateCoupon(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative amount", func(t *testing.T) {
		coupons := mocks.NewCouponService(t)
		c, w := newContext(t, http.MethodGet, "/coupons/validate?code=X&orderAmount=-1", nil, 3, middleware.RoleCustomer)
		NewCouponHandler(coupons).ValidateCoupon(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCouponHandler_CreateCoupon(t *testing.T) {
	expires := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)

	t.Run("code format is validated at binding", func(t *testing.T) {
		coupons := mocks.NewCouponService(t)
		c, w := newContext(t, http.MethodPost, "/admin/coupons", gin.H{
			"code": "no spaces!", "discountType": "fixed", "discountAmount": 10, "expirationDate": expires,
		}, 1, middleware.RoleAdmin)
		NewCouponHandler(coupons).CreateCoupon(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		coupons.AssertNotCalled(t, "Create")
	})

	t.Run("duplicate code is 409", func(t *testing.T) {
		coupons := mocks.NewCouponService(t)
		coupons.On("Create", mock.Anything, mock.AnythingOfType("services.CreateCouponRequest")).
			Return(nil, services.ErrCouponCodeTaken)

		c, w := newContext(t, http.MethodPost, "/admin/coupons", gin.H{
			"code": "SPRING-10", "discountType": "fixed", "discountAmount": 10, "expirationDate": expires,
		}, 1, middleware.RoleAdmin)
		NewCouponHandler(coupons).CreateCoupon(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("created", func(t *testing.T) {
		coupons := mocks.NewCouponService(t)
		coupons.On("Create", mock.Anything, mock.MatchedBy(func(r services.CreateCouponRequest) bool {
			return r.Code == "spring-10" && r.DiscountAmount == 10
		})).Return(&models.Coupon{ID: 5, Code: "SPRING-10"}, nil)

		c, w := newContext(t, http.MethodPost, "/admin/coupons", gin.H{
			"code": "spring-10", "discountType": "fixed", "discountAmount": 10, "expirationDate": expires,
		}, 1, middleware.RoleAdmin)
		NewCouponHandler(coupons).CreateCoupon(c)

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestCouponHandler_AdminMutations(t *testing.T) {
	t.Run("deactivate unknown coupon", func(t *testing.T) {
		coupons := mocks.NewCouponService(t)
		coupons.On("SetActive", mock.Anything, int64(8), false).Return(services.ErrCouponNotFound)

		c, w := newContext(t, http.MethodPatch, "/admin/coupons/8/active", gin.H{"isActive": false}, 1, middleware.RoleAdmin)
		c.Params = gin.Params{{Key: "id", Value: "8"}}
		NewCouponHandler(coupons).SetCouponActive(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("isActive is required", func(t *testing.T) {
		coupons := mocks.NewCouponService(t)
		c, w := newContext(t, http.MethodPatch, "/admin/coupons/8/active", gin.H{}, 1, middleware.RoleAdmin)
		c.Params = gin.Params{{Key: "id", Value: "8"}}
		NewCouponHandler(coupons).SetCouponActive(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		coupons := mocks.NewCouponService(t)
		coupons.On("Delete", mock.Anything, int64(8)).Return(nil)

		c, w := newContext(t, http.MethodDelete, "/admin/coupons/8", nil, 1, middleware.RoleAdmin)
		c.Params = gin.Params{{Key: "id", Value: "8"}}
		NewCouponHandler(coupons).DeleteCoupon(c)

		assert.Equal(t, http.StatusNoContent, c.Writer.Status())
		assert.Empty(t, w.Body.String())
	})

	t.Run("self referral", func(t *testing.T) {
		coupons := mocks.NewCouponService(t)
		coupons.On("IssueWelcomeCoupon", mock.Anything, int64(4), int64(4)).Return(nil, services.ErrValidation)

		c, w := newContext(t, http.MethodPost, "/admin/coupons/welcome", gin.H{"userId": 4, "referrerId": 4}, 1, middleware.RoleAdmin)
		NewCouponHandler(coupons).IssueWelcomeCoupon(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSettingsHandler(t *testing.T) {
	t.Run("update validation error", func(t *testing.T) {
		settings := mocks.NewSettingsService(t)
		settings.On("Update", mock.Anything, mock.AnythingOfType("models.SettingsPatch")).Return(nil, services.ErrValidation)

		c, w := newContext(t, http.MethodPut, "/settings", gin.H{"orderStartHour": 10}, 1, middleware.RoleAdmin)
		NewSettingsHandler(settings).UpdateSettings(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("out of range hour fails binding", func(t *testing.T) {
		settings := mocks.NewSettingsService(t)
		c, w := newContext(t, http.MethodPut, "/settings", gin.H{"orderStartHour": 24}, 1, middleware.RoleAdmin)
		NewSettingsHandler(settings).UpdateSettings(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		settings.AssertNotCalled(t, "Update")
	})

	t.Run("order hours", func(t *testing.T) {
		settings := mocks.NewSettingsService(t)
		settings.On("OrderHours", mock.Anything).Return(&services.OrderHoursInfo{IsOpen: true, Message: "open"}, nil)

		c, w := newContext(t, http.MethodGet, "/settings/order-hours", nil, 0, "")
		NewSettingsHandler(settings).GetOrderHours(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var got services.OrderHoursInfo
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.True(t, got.IsOpen)
	})

	t.Run("delivery points failure", func(t *testing.T) {
		settings := mocks.NewSettingsService(t)
		settings.On("DeliveryPoints", mock.Anything).Return(nil, errors.New("connection reset by peer"))

		c, w := newContext(t, http.MethodGet, "/settings/delivery-points", nil, 0, "")
		NewSettingsHandler(settings).GetDeliveryPoints(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
