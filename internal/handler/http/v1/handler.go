package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/urban_monitoring_system/internal/agent"
	"github.com/shenikar/urban_monitoring_system/internal/config"
	"github.com/shenikar/urban_monitoring_system/internal/ingest"
	"github.com/shenikar/urban_monitoring_system/internal/service"
	"github.com/sirupsen/logrus"
)

// retryAfterSeconds - подсказка клиенту при переполнении почтового ящика
const retryAfterSeconds = 1

type Handler struct {
	telemetryService service.TelemetryService
	logger           *logrus.Logger
	validate         *validator.Validate
	cfg              *config.Config
}

func NewHandler(telemetryService service.TelemetryService, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		telemetryService: telemetryService,
		logger:           logger,
		validate:         validator.New(),
		cfg:              cfg,
	}
}

// @Summary Ingest a telemetry message
// @Description Normalize a sensor reading and route it to its district agent. Requires API key.
// @Tags Telemetry
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param telemetry body TelemetryRequest true "Topic and raw sensor payload"
// @Success 202 {object} EventResponse
// @Failure 400 {object} map[string]string "Invalid request body or telemetry"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 503 {object} map[string]string "District mailbox full or district limit reached"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /telemetry [post]
func (h *Handler) ingestTelemetry(c *gin.Context) {
	var input TelemetryRequest
	log := h.logger.WithField("method", "ingestTelemetry")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.telemetryService.Ingest(c.Request.Context(), DTOToRawMessage(input))
	if err != nil {
		h.writeIngestError(c, log, err)
		return
	}
	c.JSON(http.StatusAccepted, ModelToEventResponse(&event))
}

func (h *Handler) writeIngestError(c *gin.Context, log *logrus.Entry, err error) {
	var validationErr *ingest.ValidationError
	var capErr *agent.CapacityError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &capErr):
		if capErr.Temporary() {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": capErr.Error()})
	case errors.Is(err, agent.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service is shutting down"})
	default:
		log.WithError(err).Error("Failed to ingest telemetry in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// @Summary List district agents
// @Description Get the state of every registered district agent. Requires API key.
// @Tags Districts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} DistrictResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /districts [get]
func (h *Handler) listDistricts(c *gin.Context) {
	snapshots := h.telemetryService.ListDistricts(c.Request.Context())
	c.JSON(http.StatusOK, SnapshotsToDistrictResponses(snapshots))
}

// @Summary Get district agent state
// @Description Get state, cooldown and counters of a single district agent. Requires API key.
// @Tags Districts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "District name"
// @Success 200 {object} DistrictResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "District not found"
// @Failure 503 {object} map[string]string "District agent unavailable"
// @Router /districts/{name} [get]
func (h *Handler) getDistrict(c *gin.Context) {
	name := c.Param("name")
	log := h.logger.WithField("method", "getDistrict").WithField("district", name)

	snapshot, err := h.telemetryService.GetDistrict(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, agent.ErrUnknownDistrict) {
			c.JSON(http.StatusNotFound, gin.H{"error": "district not found"})
			return
		}
		log.WithError(err).Warn("Failed to get district from service")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "district agent unavailable"})
		return
	}
	c.JSON(http.StatusOK, SnapshotToDistrictResponse(snapshot))
}

// @Summary Get city coordinator state
// @Description Get active escalations, cooldowns and the last coordination plan. Requires API key.
// @Tags Coordinator
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} CoordinatorResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 503 {object} map[string]string "Coordinator unavailable"
// @Router /coordinator [get]
func (h *Handler) getCoordinator(c *gin.Context) {
	log := h.logger.WithField("method", "getCoordinator")

	snapshot, err := h.telemetryService.GetCoordinator(c.Request.Context())
	if err != nil {
		log.WithError(err).Warn("Failed to get coordinator from service")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "coordinator unavailable"})
		return
	}
	c.JSON(http.StatusOK, SnapshotToCoordinatorResponse(snapshot))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
