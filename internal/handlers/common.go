package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"grocery_backend/internal/middleware"
	"grocery_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

var couponCodePattern = regexp.MustCompile(`^[A-Za-z0-9-]{3,32}$`)

// RegisterValidators installs the custom binding tags used by request payloads.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("couponcode", func(fl validator.FieldLevel) bool {
		return couponCodePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
}

// currentUserID reads the id set by AuthMiddleware and writes a 401 when it is absent.
func currentUserID(c *gin.Context) (int64, bool) {
	userID := c.GetInt64("userID")
	if userID <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", "missing user id"))
		return 0, false
	}
	return userID, true
}

func isAdmin(c *gin.Context) bool {
	return strings.EqualFold(c.GetString("userRole"), middleware.RoleAdmin)
}

// pathID parses a positive id path parameter and writes a 400 on failure.
func pathID(c *gin.Context, param, label string) (int64, bool) {
	id, err := utils.ParsePositiveID(c.Param(param))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+label+" format", err.Error()))
		return 0, false
	}
	return id, true
}

// pagination reads page and page_size, falling back to 1 and 10.
func pagination(c *gin.Context) (page, pageSize int, ok bool) {
	page, pageSize = defaultPage, defaultPageSize
	if s := c.Query("page"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil || p <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
			return 0, 0, false
		}
		page = p
	}
	if s := c.Query("page_size"); s != "" {
		ps, err := strconv.Atoi(s)
		if err != nil || ps <= 0 || ps > maxPageSize {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", "page_size must be between 1 and 100"))
			return 0, 0, false
		}
		pageSize = ps
	}
	return page, pageSize, true
}

func paginated(data interface{}, total, page, pageSize int) gin.H {
	return gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}
}
