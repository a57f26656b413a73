package handler

import (
	"fmt"
	"net/http"
	"strings"

	"careplan-service/internal/delivery/http/middleware"
	"careplan-service/internal/usecase"
	"careplan-service/pkg/response"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type IntakeHandler struct {
	intakeUsecase usecase.IntakeUsecase
	log           *logrus.Logger
}

func NewIntakeHandler(intakeUsecase usecase.IntakeUsecase, log *logrus.Logger) *IntakeHandler {
	return &IntakeHandler{
		intakeUsecase: intakeUsecase,
		log:           log,
	}
}

// Receive accepts a partner payload for the source named in the path.
// A partner token, when present, must have been issued for that source.
func (h *IntakeHandler) Receive(w http.ResponseWriter, r *http.Request) {
	source := strings.ToLower(strings.TrimSpace(mux.Vars(r)["source"]))

	if tokenSource, ok := middleware.GetPartnerSourceFromContext(r.Context()); ok && tokenSource != source {
		response.Unauthorized(w, fmt.Sprintf("Token is not valid for source %s", source))
		return
	}

	raw, ok := readBody(w, r)
	if !ok {
		return
	}

	result, err := h.intakeUsecase.Receive(r.Context(), intakeRequest(r, source, raw))
	if err != nil {
		writeError(w, h.log, err, "Failed to receive intake")
		return
	}

	response.JSON(w, http.StatusCreated, submitEnvelope(result))
}
