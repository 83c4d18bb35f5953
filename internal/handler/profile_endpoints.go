package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storyweave/internal/models"
	"storyweave/internal/service"
)

func (h *Handler) saveProfile(c *gin.Context) {
	var req saveProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Age == nil {
		abortWithError(c, http.StatusBadRequest, "Missing required field: age")
		return
	}
	if req.CognitiveProfile == nil {
		abortWithError(c, http.StatusBadRequest, "Missing required field: cognitive_profile")
		return
	}

	cognitive := make([]models.ProfileType, 0, len(req.CognitiveProfile))
	for _, p := range req.CognitiveProfile {
		cognitive = append(cognitive, models.ProfileType(strings.ToLower(strings.TrimSpace(p))))
	}

	profile, saved, err := h.profiles.Save(c.Request.Context(), service.ProfileInput{
		ChildID:               strings.TrimSpace(req.ChildID),
		UserEmail:             req.UserEmail,
		Age:                   *req.Age,
		CognitiveProfile:      cognitive,
		SensoryPreferences:    req.SensoryPreferences,
		Interests:             req.Interests,
		StoryLengthPreference: req.StoryLengthPreference,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, saveProfileResponse{
		ChildID:        profile.ChildID,
		ProfileCreated: profile.UpdatedAt.Format(time.RFC3339),
		ProfileSaved:   saved,
		Success:        true,
	})
}

func (h *Handler) getProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), strings.TrimSpace(c.Query("child_id")))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) getProfiles(c *gin.Context) {
	userEmail := strings.TrimSpace(c.Query("user_email"))
	profiles, err := h.profiles.ListByUser(c.Request.Context(), userEmail)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profilesResponse{
		UserEmail: strings.ToLower(userEmail),
		Profiles:  profiles,
		Count:     len(profiles),
	})
}
