// Package wizard sequences the four-step vehicle finder.
package wizard

import (
	"errors"
	"fmt"

	"github.com/wheelsdeals/tireshop/internal/vehicle"
)

// Step is a position in the finder.
type Step int

// Finder steps in order.
const (
	StepYear Step = iota + 1
	StepMake
	StepModel
	StepTrim
)

// FirstStep and LastStep bound the sequence.
const (
	FirstStep = StepYear
	LastStep  = StepTrim
)

var (
	// ErrIncomplete is returned by Next when the current step, or one before
	// it, has no value.
	ErrIncomplete = errors.New("wizard: current step has no selection")
	// ErrUnknownField is returned by Set for a field outside year/make/model/trim.
	ErrUnknownField = errors.New("wizard: unknown field")
	// ErrStepLocked is returned by Set for a field beyond the current step.
	ErrStepLocked = errors.New("wizard: field belongs to a later step")
)

// String returns the step's field name.
func (s Step) String() string {
	switch s {
	case StepYear:
		return "year"
	case StepMake:
		return "make"
	case StepModel:
		return "model"
	case StepTrim:
		return "trim"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Valid reports whether s is one of the four steps.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// stepForField maps a field name to the step that owns it.
func stepForField(field string) (Step, bool) {
	for s := FirstStep; s <= LastStep; s++ {
		if s.String() == field {
			return s, true
		}
	}
	return 0, false
}

// value returns the draft's value for step.
func value(step Step, d vehicle.Selection) string {
	switch step {
	case StepYear:
		return d.Year
	case StepMake:
		return d.Make
	case StepModel:
		return d.Model
	case StepTrim:
		return d.Trim
	}
	return ""
}

// CanAdvance is the transition gate: a step may advance only once its field
// is non-empty.
func CanAdvance(step Step, d vehicle.Selection) bool {
	return step.Valid() && value(step, d) != ""
}

// State is the finder's persisted progress.
type State struct {
	Step  Step              `json:"step"`
	Draft vehicle.Selection `json:"draft"`
}

// Store mirrors wizard state into durable client-side storage.
type Store interface {
	Load() (State, bool, error)
	Save(State) error
	Clear() error
}

// Wizard owns the step sequence and the single mutable draft.
type Wizard struct {
	state State
	store Store
}

// New creates a Wizard, recovering progress from store when present.
func New(store Store) (*Wizard, error) {
	w := &Wizard{state: State{Step: FirstStep}, store: store}
	st, ok, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("wizard: load: %w", err)
	}
	if ok && st.Step.Valid() {
		w.state = st
	}
	return w, nil
}

// State returns a copy of the current state.
func (w *Wizard) State() State {
	return w.state
}

// CanAdvance reports whether Next would succeed: the current step and every
// step before it must have a value.
func (w *Wizard) CanAdvance() bool {
	if !w.state.Step.Valid() {
		return false
	}
	for s := FirstStep; s <= w.state.Step; s++ {
		if !CanAdvance(s, w.state.Draft) {
			return false
		}
	}
	return true
}

// Set applies value to field and mirrors the state to the store. Changing a
// field clears every later field, since their options depend on it, and
// moves the finder back to the changed step.
func (w *Wizard) Set(field, val string) error {
	step, ok := stepForField(field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if step > w.state.Step {
		return fmt.Errorf("%w: %s", ErrStepLocked, field)
	}

	d := &w.state.Draft
	if value(step, *d) != val {
		switch step {
		case StepYear:
			*d = vehicle.Selection{Year: val}
		case StepMake:
			d.Make, d.Model, d.Trim = val, "", ""
		case StepModel:
			d.Model, d.Trim = val, ""
		case StepTrim:
			d.Trim = val
		}
		if step < w.state.Step {
			w.state.Step = step
		}
	}
	return w.save()
}

// Next advances one step. On the last step it returns the completed
// selection with done set; the state is left in place for the caller to
// clear once the selection has been used.
func (w *Wizard) Next() (sel vehicle.Selection, done bool, err error) {
	if !w.CanAdvance() {
		return vehicle.Selection{}, false, fmt.Errorf("%w: %s", ErrIncomplete, w.state.Step)
	}
	if w.state.Step == LastStep {
		return w.state.Draft, true, nil
	}
	w.state.Step++
	return vehicle.Selection{}, false, w.save()
}

// Back moves one step toward the start. It is a no-op on the first step.
func (w *Wizard) Back() error {
	if w.state.Step > FirstStep {
		w.state.Step--
	}
	return w.save()
}

// Reset discards all progress.
func (w *Wizard) Reset() error {
	w.state = State{Step: FirstStep}
	if err := w.store.Clear(); err != nil {
		return fmt.Errorf("wizard: clear: %w", err)
	}
	return nil
}

func (w *Wizard) save() error {
	if err := w.store.Save(w.state); err != nil {
		return fmt.Errorf("wizard: save: %w", err)
	}
	return nil
}
