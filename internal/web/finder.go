package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wheelsdeals/tireshop/internal/tiresize"
	"github.com/wheelsdeals/tireshop/internal/validate"
	"github.com/wheelsdeals/tireshop/internal/vehicle"
	"github.com/wheelsdeals/tireshop/internal/wizard"
	"go.uber.org/zap"
)

// Shown when the vehicle API cannot be reached; the finder keeps working
// with an empty list.
const vehicleAPIAdvisory = "Vehicle data is temporarily unavailable. Please try again shortly."

type optionsResponse struct {
	Options  []string `json:"options"`
	Advisory string   `json:"advisory,omitempty"`
}

func (s *Server) handleYears(c *gin.Context) {
	c.JSON(http.StatusOK, optionsResponse{Options: vehicle.Filter(vehicle.Years(s.Now()), c.Query("q"))})
}

func (s *Server) handleTrims(c *gin.Context) {
	c.JSON(http.StatusOK, optionsResponse{Options: vehicle.Filter(vehicle.Trims(), c.Query("q"))})
}

func (s *Server) handleMakes(c *gin.Context) {
	year := strings.TrimSpace(c.Query("year"))
	if year == "" {
		fail(c, http.StatusBadRequest, codeValidation, "year is required",
			[]validate.Issue{{Field: "year", Rule: "required", Message: "is required"}})
		return
	}
	if s.Vehicles == nil {
		c.JSON(http.StatusOK, optionsResponse{Options: []string{}, Advisory: vehicleAPIAdvisory})
		return
	}
	makes, err := s.Vehicles.Makes(c.Request.Context(), year)
	if err != nil {
		zap.L().Warn("vehicle makes lookup failed", zap.String("year", year), zap.Error(err))
		c.JSON(http.StatusOK, optionsResponse{Options: []string{}, Advisory: vehicleAPIAdvisory})
		return
	}
	c.JSON(http.StatusOK, optionsResponse{Options: nonNil(vehicle.Filter(makes, c.Query("q")))})
}

func (s *Server) handleModels(c *gin.Context) {
	year := strings.TrimSpace(c.Query("year"))
	makeName := strings.TrimSpace(c.Query("make"))
	ve := &validate.Error{}
	if year == "" {
		ve.Add("year", "required", "is required")
	}
	if makeName == "" {
		ve.Add("make", "required", "is required")
	}
	if ve.Err() != nil {
		failErr(c, ve)
		return
	}
	if s.Vehicles == nil {
		c.JSON(http.StatusOK, optionsResponse{Options: []string{}, Advisory: vehicleAPIAdvisory})
		return
	}
	models, err := s.Vehicles.Models(c.Request.Context(), year, makeName)
	if err != nil {
		zap.L().Warn("vehicle models lookup failed",
			zap.String("year", year), zap.String("make", makeName), zap.Error(err))
		c.JSON(http.StatusOK, optionsResponse{Options: []string{}, Advisory: vehicleAPIAdvisory})
		return
	}
	c.JSON(http.StatusOK, optionsResponse{Options: nonNil(vehicle.Filter(models, c.Query("q")))})
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// finderResponse is the finder's state as the page renders it.
type finderResponse struct {
	Step       int                `json:"step"`
	StepName   string             `json:"step_name"`
	Draft      vehicle.Selection  `json:"draft"`
	CanAdvance bool               `json:"can_advance"`
	Done       bool               `json:"done"`
	Selection  *vehicle.Selection `json:"selection,omitempty"`
}

func finderState(w *wizard.Wizard) finderResponse {
	st := w.State()
	return finderResponse{
		Step:       int(st.Step),
		StepName:   st.Step.String(),
		Draft:      st.Draft,
		CanAdvance: w.CanAdvance(),
	}
}

// openFinder recovers the wizard from the client cookie.
func (s *Server) openFinder(c *gin.Context) (*wizard.Wizard, bool) {
	w, err := wizard.New(finderStore{cs: s.client(c)})
	if err != nil {
		failErr(c, err)
		return nil, false
	}
	return w, true
}

func (s *Server) handleFinderGet(c *gin.Context) {
	w, ok := s.openFinder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, finderState(w))
}

type finderSetRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) handleFinderSet(c *gin.Context) {
	var req finderSetRequest
	if !bind(c, &req) {
		return
	}
	w, ok := s.openFinder(c)
	if !ok {
		return
	}
	if err := w.Set(strings.TrimSpace(req.Field), strings.TrimSpace(req.Value)); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, finderState(w))
}

func (s *Server) handleFinderNext(c *gin.Context) {
	w, ok := s.openFinder(c)
	if !ok {
		return
	}
	sel, done, err := w.Next()
	if err != nil {
		failErr(c, err)
		return
	}
	resp := finderState(w)
	if done {
		resp.Done = true
		resp.Selection = &sel
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFinderBack(c *gin.Context) {
	w, ok := s.openFinder(c)
	if !ok {
		return
	}
	if err := w.Back(); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, finderState(w))
}

func (s *Server) handleFinderReset(c *gin.Context) {
	w, ok := s.openFinder(c)
	if !ok {
		return
	}
	if err := w.Reset(); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, finderState(w))
}

type tiresResponse struct {
	Vehicle vehicle.Selection `json:"vehicle"`
	tiresize.Resolution
	Offers []tiresize.Offer `json:"offers"`
}

func (s *Server) handleTires(c *gin.Context) {
	sel := vehicle.Selection{
		Year:  strings.TrimSpace(c.Query("year")),
		Make:  strings.TrimSpace(c.Query("make")),
		Model: strings.TrimSpace(c.Query("model")),
		Trim:  strings.TrimSpace(c.Query("trim")),
	}
	if err := validate.Struct(sel); err != nil {
		failErr(c, err)
		return
	}
	res := s.Resolver.Resolve(c.Request.Context(), sel)
	c.JSON(http.StatusOK, tiresResponse{Vehicle: sel, Resolution: res, Offers: tiresize.Offers()})
}
