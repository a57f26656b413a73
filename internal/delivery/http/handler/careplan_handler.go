package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"careplan-service/internal/delivery/dto"
	"careplan-service/internal/delivery/http/middleware"
	"careplan-service/internal/intake"
	"careplan-service/internal/usecase"
	"careplan-service/pkg/apperror"
	"careplan-service/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	// maxBodyBytes bounds intake payloads.
	maxBodyBytes = 1 << 20

	exportFilename = "careplans_report.csv"
)

type CarePlanHandler struct {
	carePlanUsecase usecase.CarePlanUsecase
	intakeUsecase   usecase.IntakeUsecase
	log             *logrus.Logger
}

func NewCarePlanHandler(carePlanUsecase usecase.CarePlanUsecase, intakeUsecase usecase.IntakeUsecase, log *logrus.Logger) *CarePlanHandler {
	return &CarePlanHandler{
		carePlanUsecase: carePlanUsecase,
		intakeUsecase:   intakeUsecase,
		log:             log,
	}
}

// Submit accepts the web form payload.
func (h *CarePlanHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if tokenSource, ok := middleware.GetPartnerSourceFromContext(r.Context()); ok && tokenSource != intake.SourceWebForm {
		response.Unauthorized(w, fmt.Sprintf("Token is not valid for source %s", intake.SourceWebForm))
		return
	}

	raw, ok := readBody(w, r)
	if !ok {
		return
	}

	result, err := h.intakeUsecase.Receive(r.Context(), intakeRequest(r, intake.SourceWebForm, raw))
	if err != nil {
		writeError(w, h.log, err, "Failed to submit care plan")
		return
	}

	response.JSON(w, http.StatusCreated, submitEnvelope(result))
}

func (h *CarePlanHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := carePlanID(w, r)
	if !ok {
		return
	}

	status, err := h.carePlanUsecase.GetStatus(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err, "Failed to get care plan status")
		return
	}

	response.Success(w, http.StatusOK, "", status)
}

func (h *CarePlanHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := carePlanID(w, r)
	if !ok {
		return
	}

	detail, err := h.carePlanUsecase.GetDetail(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err, "Failed to get care plan")
		return
	}

	response.Success(w, http.StatusOK, "", detail)
}

func (h *CarePlanHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := carePlanID(w, r)
	if !ok {
		return
	}

	download, err := h.carePlanUsecase.GetDownload(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err, "Failed to download care plan")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, download.Filename))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, download.Content)
}

// Search lists completed care plans, or streams them all as CSV with
// export=1.
func (h *CarePlanHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	if r.URL.Query().Get("export") == "1" {
		var buf bytes.Buffer
		if err := h.carePlanUsecase.Export(r.Context(), query, &buf); err != nil {
			writeError(w, h.log, err, "Failed to export care plans")
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.carePlanUsecase.Search(r.Context(), query, limit)
	if err != nil {
		writeError(w, h.log, err, "Failed to search care plans")
		return
	}

	response.Success(w, http.StatusOK, "", results)
}

func carePlanID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.NotFound(w, "Care plan not found")
		return uuid.Nil, false
	}
	return id, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		response.AppError(w, apperror.Format(apperror.CodeValidation, "Invalid request body", err.Error()))
		return nil, false
	}
	return raw, true
}

// intakeRequest collects the transport-level flags: the X-Source-System
// header and the confirm and llm_provider query parameters.
func intakeRequest(r *http.Request, source string, raw []byte) *dto.IntakeRequest {
	query := r.URL.Query()
	confirm, _ := strconv.ParseBool(query.Get("confirm"))

	return &dto.IntakeRequest{
		Source:      source,
		SourceHint:  strings.TrimSpace(r.Header.Get("X-Source-System")),
		Raw:         raw,
		Confirm:     confirm,
		BackendHint: strings.TrimSpace(query.Get("llm_provider")),
	}
}

// submitEnvelope repeats the order id and status at the top level so
// clients can poll without unwrapping data.
func submitEnvelope(result *dto.SubmitResponse) map[string]interface{} {
	return map[string]interface{}{
		"success":      true,
		"message":      result.Message,
		"care_plan_id": result.CarePlanID,
		"status":       result.Status,
		"data":         result,
	}
}

// writeError renders an *apperror.Error as-is. Anything else is logged and
// reported as an internal error.
func writeError(w http.ResponseWriter, log *logrus.Logger, err error, message string) {
	if appErr, ok := apperror.As(err); ok {
		response.AppError(w, appErr)
		return
	}
	log.Errorf("%s: %+v", message, err)
	response.InternalServerError(w, message)
}
