package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"medical-decision/backend/internal/dataset"
	"medical-decision/backend/internal/util"
)

func (s *Server) handleDecide(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	doctor1, doctor2, err := req.Opinions()
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	timer := util.StartTimer()
	res, err := s.engine.Decide(c.Request.Context(), doctor1, doctor2)
	if err != nil {
		status := http.StatusInternalServerError
		if isInvalidInput(err) {
			status = http.StatusBadRequest
		}
		logrus.WithError(err).Warn("decide")
		s.renderError(c, status, err)
		return
	}

	requestID := uuid.NewString()
	resp := NewDecisionResponse(res)
	resp.RequestID = requestID

	record := dataset.NewDecision(requestID, doctor1, doctor2, res, s.engine.Mode(), timer.Elapsed())
	if s.db != nil {
		if err := s.db.SaveDecision(&record); err != nil {
			logrus.WithError(err).WithField("request_id", requestID).Warn("save decision")
		}
	}
	dto := FromModel(record)
	s.notifier.Broadcast(DecisionEvent{Type: "decision", Decision: &dto})

	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"decision":   resp.Decision,
		"mu_xor":     resp.MuXor,
		"nu_xor":     resp.NuXor,
		"pi_xor":     resp.PiXor,
		"elapsed":    timer.Elapsed(),
	}).Debug("decision made")

	c.JSON(http.StatusOK, resp)
}
