package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"nsl-memberhub/internal/core/services"
	"nsl-memberhub/internal/pkg/pagination"
	"nsl-memberhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// NotificationHandler handles notification endpoints
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns the account's notifications
// @Summary My notifications
// @Description Returns the account's notifications, newest first
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)
	params := pagination.GetParams(c)

	notifications, total, err := h.notificationService.List(c.Context(), accountID, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to load notifications")
	}
	return response.Success(c, "", pagination.NewResponse(notifications, params, total))
}

// MarkRead marks one notification as read
// @Summary Mark notification read
// @Description Mark one of the account's notifications as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)

	notificationID, err := c.ParamsInt("id")
	if err != nil || notificationID <= 0 {
		return response.BadRequest(c, "Invalid notification ID")
	}

	if err := h.notificationService.MarkRead(c.Context(), uint(notificationID), accountID); err != nil {
		return response.NotFound(c, "Notification not found")
	}
	return response.Success(c, "Notification marked as read", nil)
}

// Stream pushes the account's events over server-sent events
// @Summary Event stream
// @Description Streams the account's domain events as server-sent events
// @Tags Notifications
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Router /notifications/stream [get]
func (h *NotificationHandler) Stream(c *fiber.Ctx) error {
	accountID := c.Locals("accountID").(uint)

	events, cancel := h.notificationService.Subscribe(accountID)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		keepAlive := time.NewTicker(30 * time.Second)
		defer keepAlive.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload)
				if err := w.Flush(); err != nil {
					return
				}
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}
