package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/pkg/response"
)

// AnalyticsController serves the admin dashboard figures. Every route
// is behind the admin role middleware.
type AnalyticsController struct {
	service *services.AnalyticsService
}

func NewAnalyticsController(service *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{service: service}
}

// TotalRevenue handles GET /api/admin/total-revenue.
func (c *AnalyticsController) TotalRevenue(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.TotalRevenue(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, out)
}

// ProfitMargin handles GET /api/admin/profit-margin.
func (c *AnalyticsController) ProfitMargin(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.ProfitMargin(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, out)
}

// AOV handles GET /api/admin/aov.
func (c *AnalyticsController) AOV(w http.ResponseWriter, r *http.Request) {
	aov, err := c.service.AverageOrderValue(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]float64{"avgOrderValue": aov})
}

// ConversionRate handles GET /api/admin/conversion-rate.
func (c *AnalyticsController) ConversionRate(w http.ResponseWriter, r *http.Request) {
	rate, err := c.service.ConversionRate(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]float64{"conversionRate": rate})
}

// CLV handles GET /api/admin/clv.
func (c *AnalyticsController) CLV(w http.ResponseWriter, r *http.Request) {
	clv, err := c.service.CustomerLifetimeValue(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]float64{"clv": clv})
}

// TopMedicines handles GET /api/admin/top-medicines.
func (c *AnalyticsController) TopMedicines(w http.ResponseWriter, r *http.Request) {
	top, err := c.service.TopMedicines(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, top)
}

// GrowthRate handles GET /api/admin/growth-rate.
func (c *AnalyticsController) GrowthRate(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.GrowthRate(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, out)
}

// RevenueHistory handles GET /api/admin/revenue-history.
func (c *AnalyticsController) RevenueHistory(w http.ResponseWriter, r *http.Request) {
	daily, err := c.service.RevenueHistory(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, daily)
}

// Stats handles GET /api/admin/analytics.
func (c *AnalyticsController) Stats(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.Stats(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, out)
}
