package handlers

import (
	"errors"

	"nsl-memberhub/internal/core/domain"
	"nsl-memberhub/internal/core/services"
	"nsl-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles VIP catalog endpoints
type ProductHandler struct {
	productService *services.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ActiveRequest represents a product activation toggle body
type ActiveRequest struct {
	Active bool `json:"active"`
}

// ListActive returns the purchasable catalog
// @Summary List VIP products
// @Description Returns purchasable VIP products ordered by rank
// @Tags Products
// @Produce json
// @Success 200 {object} response.Response
// @Router /products [get]
func (h *ProductHandler) ListActive(c *fiber.Ctx) error {
	products, err := h.productService.ListActive(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load products")
	}
	return response.Success(c, "", products)
}

// List returns the whole catalog including disabled products (admin)
// @Summary List all products
// @Description Returns every product including disabled ones
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.productService.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load products")
	}
	return response.Success(c, "", products)
}

// Create adds a product to the catalog (admin)
// @Summary Create product
// @Description Add a VIP product to the catalog
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ProductInput true "Product data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var input services.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	product, err := h.productService.Create(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidationFailed):
			return response.BadRequest(c, "Name, rank, price and validity are required")
		case errors.Is(err, domain.ErrDuplicateEntry):
			return response.Conflict(c, "Product name already exists")
		default:
			return response.InternalServerError(c, "Failed to create product")
		}
	}
	return response.Created(c, "Product created", product)
}

// Update rewrites a product's terms (admin)
// @Summary Update product
// @Description Update a product's terms for future purchases
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param body body services.ProductInput true "Product data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	productID, err := c.ParamsInt("id")
	if err != nil || productID <= 0 {
		return response.BadRequest(c, "Invalid product ID")
	}

	var input services.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	product, err := h.productService.Update(c.Context(), uint(productID), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidationFailed):
			return response.BadRequest(c, "Name, rank, price and validity are required")
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Product not found")
		default:
			return response.InternalServerError(c, "Failed to update product")
		}
	}
	return response.Success(c, "Product updated", product)
}

// SetActive enables or disables a product for new purchases (admin)
// @Summary Toggle product availability
// @Description Enable or disable a product for new purchases
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param body body ActiveRequest true "Active flag"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/products/{id}/active [put]
func (h *ProductHandler) SetActive(c *fiber.Ctx) error {
	productID, err := c.ParamsInt("id")
	if err != nil || productID <= 0 {
		return response.BadRequest(c, "Invalid product ID")
	}

	var req ActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	product, err := h.productService.SetActive(c.Context(), uint(productID), req.Active)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Product not found")
		}
		return response.InternalServerError(c, "Failed to update product")
	}
	return response.Success(c, "Product updated", product)
}
