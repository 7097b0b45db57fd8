package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wheelsdeals/tireshop/internal/appointment"
	"github.com/wheelsdeals/tireshop/internal/auth"
	"github.com/wheelsdeals/tireshop/internal/models"
	"github.com/wheelsdeals/tireshop/internal/quote"
	"github.com/wheelsdeals/tireshop/internal/validate"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		failErr(c, err)
		return
	}
	staff, err := auth.Authenticate(c.Request.Context(), s.DB, req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		zap.L().Info("staff sign-in rejected", zap.String("email", req.Email))
		fail(c, http.StatusUnauthorized, codeUnauthorized, "invalid email or password", nil)
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}
	if err := s.Auth.Login(c.Writer, c.Request, staff); err != nil {
		failErr(c, err)
		return
	}
	zap.L().Info("staff signed in", zap.String("email", staff.Email), zap.String("role", staff.Role))
	c.JSON(http.StatusOK, auth.Session{StaffID: staff.ID, Email: staff.Email, Name: staff.Name, Role: staff.Role})
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.Auth.Logout(c.Writer, c.Request); err != nil {
		failErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleMe(c *gin.Context) {
	sess, ok := s.Auth.Resolve(c.Request)
	if !ok {
		fail(c, http.StatusUnauthorized, codeUnauthorized, "sign in required", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess, "is_admin": auth.IsAdmin(sess)})
}

func quoteFilter(c *gin.Context) (quote.Filter, bool) {
	f := quote.Filter{Search: c.Query("q"), Status: strings.TrimSpace(c.Query("status"))}
	if f.Status != "" && f.Status != "all" && !quote.ValidStatus(f.Status) {
		fail(c, http.StatusBadRequest, codeValidation, "unknown status "+f.Status,
			[]validate.Issue{{Field: "status", Rule: "oneof", Message: "must be one of " + strings.Join(models.QuoteStatuses, ", ")}})
		return f, false
	}
	if f.Status == "all" {
		f.Status = ""
	}
	return f, true
}

func (s *Server) handleQuoteList(c *gin.Context) {
	f, ok := quoteFilter(c)
	if !ok {
		return
	}
	quotes, err := s.Quotes.List(c.Request.Context(), f)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes, "count": len(quotes)})
}

func (s *Server) handleQuoteExport(c *gin.Context) {
	f, ok := quoteFilter(c)
	if !ok {
		return
	}
	quotes, err := s.Quotes.List(c.Request.Context(), f)
	if err != nil {
		failErr(c, err)
		return
	}
	name := fmt.Sprintf("quotes-%s.csv", s.Now().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
	if err := quote.WriteCSV(c.Writer, quotes); err != nil {
		zap.L().Error("quote export failed", zap.Error(err))
		_ = c.Error(err)
	}
}

func (s *Server) handleQuoteGet(c *gin.Context) {
	q, err := s.Quotes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) handleQuoteUpdate(c *gin.Context) {
	var opts quote.UpdateOpts
	if !bind(c, &opts) {
		return
	}
	q, err := s.Quotes.Update(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) handleQuoteSend(c *gin.Context) {
	var opts quote.SendOpts
	if c.Request.ContentLength != 0 && !bind(c, &opts) {
		return
	}
	q, err := s.Quotes.Send(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) handleAppointmentList(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	switch status {
	case "", models.AppointmentStatusPending, models.AppointmentStatusApproved, models.AppointmentStatusDeclined:
	case "all":
		status = ""
	default:
		fail(c, http.StatusBadRequest, codeValidation, "unknown status "+status,
			[]validate.Issue{{Field: "status", Rule: "oneof", Message: "must be one of pending, approved, declined"}})
		return
	}
	appts, err := s.Appointments.List(c.Request.Context(), status)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts, "count": len(appts)})
}

func (s *Server) handleAppointmentDecision(c *gin.Context) {
	var d appointment.Decision
	if !bind(c, &d) {
		return
	}
	if sess, ok := auth.FromContext(c); ok {
		d.DecidedBy = sess.Email
	}
	res, err := s.Appointments.Decide(c.Request.Context(), c.Param("id"), d)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, submitResponse{Appointment: &res.Appointment, Persisted: res.Persisted, Notified: res.Notified})
}

// summary is the dashboard's status counts.
type summary struct {
	Quotes       map[string]int64 `json:"quotes"`
	Appointments map[string]int64 `json:"appointments"`
}

func (s *Server) loadSummary(c *gin.Context) (*summary, error) {
	qc, err := s.Quotes.Counts(c.Request.Context())
	if err != nil {
		return nil, err
	}
	ac, err := s.Appointments.Counts(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return &summary{Quotes: qc, Appointments: ac}, nil
}

func (s *Server) handleSummary(c *gin.Context) {
	sum, err := s.loadSummary(c)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
