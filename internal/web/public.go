package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wheelsdeals/tireshop/internal/appointment"
	"github.com/wheelsdeals/tireshop/internal/models"
	"github.com/wheelsdeals/tireshop/internal/notify"
	"github.com/wheelsdeals/tireshop/internal/quote"
	"github.com/wheelsdeals/tireshop/internal/validate"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(c *gin.Context) {
	sqlDB, err := s.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		zap.L().Warn("health check: database unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// submitResponse reports the stored record and whether its email went out.
type submitResponse struct {
	Quote       *models.Quote       `json:"quote,omitempty"`
	Appointment *models.Appointment `json:"appointment,omitempty"`
	Persisted   bool                `json:"persisted"`
	Notified    bool                `json:"notified"`
}

func (s *Server) handleQuoteSubmit(c *gin.Context) {
	var req quote.Request
	if !bind(c, &req) {
		return
	}
	res, err := s.Quotes.Submit(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}

	cs := s.client(c)
	if err := cs.save(keyLastQuote, newConfirmation(res.Quote, res.Notified)); err != nil {
		zap.L().Warn("store last quote in client cookie",
			zap.String("reference", res.Quote.ReferenceNumber), zap.Error(err))
	}
	if err := (finderStore{cs: cs}).Clear(); err != nil {
		zap.L().Warn("clear finder draft", zap.Error(err))
	}

	c.JSON(http.StatusCreated, submitResponse{Quote: &res.Quote, Persisted: res.Persisted, Notified: res.Notified})
}

func (s *Server) handleLastQuote(c *gin.Context) {
	var conf Confirmation
	ok, err := s.client(c).load(keyLastQuote, &conf)
	if err != nil || !ok {
		fail(c, http.StatusNotFound, codeNotFound, "no quote found", nil)
		return
	}
	c.JSON(http.StatusOK, conf)
}

type appointmentOptions struct {
	Services []appointment.ServiceOption `json:"services"`
	Slots    []string                    `json:"slots"`
	MinDate  string                      `json:"min_date"`
}

func (s *Server) handleAppointmentOptions(c *gin.Context) {
	c.JSON(http.StatusOK, appointmentOptions{
		Services: appointment.Services(),
		Slots:    appointment.Slots(),
		MinDate:  s.Appointments.Today(),
	})
}

func (s *Server) handleAppointmentSubmit(c *gin.Context) {
	var req appointment.Request
	if !bind(c, &req) {
		return
	}
	res, err := s.Appointments.Submit(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	if err := (finderStore{cs: s.client(c)}).Clear(); err != nil {
		zap.L().Warn("clear finder draft", zap.Error(err))
	}
	c.JSON(http.StatusCreated, submitResponse{Appointment: &res.Appointment, Persisted: res.Persisted, Notified: res.Notified})
}

// handleFunction runs a notification function by name. Its responses keep
// the shape browser callers of the functions already expect.
func (s *Server) handleFunction(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}
	err = s.Functions.Call(c.Request.Context(), c.Param("name"), body)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	if errors.Is(err, notify.ErrUnknownFunction) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if ve, ok := validate.As(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid input data", "details": ve.Issues})
		return
	}
	zap.L().Error("notification function failed", zap.String("function", c.Param("name")), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
