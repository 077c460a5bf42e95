package controllers

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/pkg/bind"
	"github.com/shashiranjanraj/sehatly/pkg/response"
	"github.com/shashiranjanraj/sehatly/pkg/sse"
	"github.com/shashiranjanraj/sehatly/pkg/ws"
)

type OrderController struct {
	service *services.CheckoutService
	feed    *ws.Hub
}

func NewOrderController(service *services.CheckoutService, feed *ws.Hub) *OrderController {
	return &OrderController{service: service, feed: feed}
}

// PlaceCOD handles POST /api/orders/cod. The response shape is fixed
// by the storefront client: {success, orderId, message}.
func (c *OrderController) PlaceCOD(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	var in services.CheckoutInput
	if errs, err := bind.JSON(w, r, &in); err != nil {
		response.JSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Missing order details",
		})
		return
	} else if errs != nil {
		response.JSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Missing order details",
			"errors":  errs,
		})
		return
	}

	orderID, err := c.service.PlaceCODOrder(r.Context(), userID, in)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"orderId": orderID.Hex(),
		"message": "Order placed successfully!",
	})
}

// MyOrders handles GET /api/orders/my-orders.
func (c *OrderController) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	orders, err := c.service.MyOrders(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, orders)
}

// Stream handles GET /api/orders/stream: the SSE fallback for dashboards
// that cannot hold a websocket open. Events mirror the /ws/orders feed.
func (c *OrderController) Stream(w http.ResponseWriter, r *http.Request) {
	stream := sse.New(w, r)
	if stream == nil {
		return
	}

	events, cancel := c.feed.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	stream.Comment("connected")
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			stream.Comment("keepalive")
			if stream.IsClosed() {
				return
			}
		case msg, ok := <-events:
			if !ok {
				return
			}
			stream.SendRaw(string(msg))
			if stream.IsClosed() {
				return
			}
		}
	}
}
