package handlers

import (
	"net/http"
	"time"

	"gym_crm_backend/pkg/membership"
	"gym_crm_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MembershipHandler exposes the membership date rules so the dashboard can
// preview a plan without keeping its own copy of them.
type MembershipHandler struct {
	now func() time.Time
}

func NewMembershipHandler() *MembershipHandler {
	return &MembershipHandler{now: time.Now}
}

type planInfo struct {
	Type   membership.PlanType `json:"type"`
	Months int                 `json:"months"`
}

type previewResponse struct {
	MembershipType membership.PlanType `json:"membership_type"`
	StartDate      membership.Date     `json:"start_date"`
	EndDate        membership.Date     `json:"end_date"`
	Status         membership.Status   `json:"status"`
	DaysRemaining  int                 `json:"days_remaining"`
}

// ListPlans returns the recognised plans, shortest first.
func (h *MembershipHandler) ListPlans(c *gin.Context) {
	plans := make([]planInfo, 0, len(membership.Plans()))
	for _, p := range membership.Plans() {
		plans = append(plans, planInfo{Type: p, Months: p.Months()})
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

// Preview computes the end date (unless end_date is given), status and
// days remaining for a prospective membership.
func (h *MembershipHandler) Preview(c *gin.Context) {
	plan, err := membership.ParsePlanType(c.Query("membership_type"))
	if err != nil {
		respondFieldError(c, "membership_type", err)
		return
	}
	start, err := membership.ParseDate(c.Query("start_date"))
	if err != nil {
		respondFieldError(c, "start_date", err)
		return
	}

	var end membership.Date
	if raw := c.Query("end_date"); raw != "" {
		end, err = membership.ParseDate(raw)
		if err != nil {
			respondFieldError(c, "end_date", err)
			return
		}
	} else if end, err = membership.ComputeEndDate(start, plan); err != nil {
		respondFieldError(c, "membership_type", err)
		return
	}

	today := membership.Today(h.now())
	c.JSON(http.StatusOK, previewResponse{
		MembershipType: plan,
		StartDate:      start,
		EndDate:        end,
		Status:         membership.ComputeStatus(end, today),
		DaysRemaining:  membership.DaysRemaining(end, today),
	})
}

func respondFieldError(c *gin.Context, field string, err error) {
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
		"Validation failed: "+field, err.Error()).WithField(field))
}
