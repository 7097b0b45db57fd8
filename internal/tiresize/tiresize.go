// Package tiresize resolves a vehicle's tire size from a fixed lookup table.
package tiresize

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/wheelsdeals/tireshop/internal/vehicle"
	"go.uber.org/zap"
)

// DefaultSize is returned when no table rule matches.
const DefaultSize = "225/65R17"

// EstimatedAdvisory is shown when the size could not be confirmed against the
// vehicle reference API.
const EstimatedAdvisory = "Using estimated tire size. Please verify with your vehicle manual."

// rule maps a make/model substring pair to a size, split at a model year.
// A zero splitYear means the size applies to every year.
type rule struct {
	make      string
	model     string
	splitYear int
	atOrAfter string
	before    string
}

var table = []rule{
	{make: "honda", model: "civic", splitYear: 2016, atOrAfter: "215/55R16", before: "205/55R16"},
	{make: "honda", model: "accord", splitYear: 2018, atOrAfter: "225/50R17", before: "225/55R17"},
	{make: "toyota", model: "camry", splitYear: 2018, atOrAfter: "235/45R18", before: "215/55R17"},
	{make: "toyota", model: "corolla", atOrAfter: "205/55R16"},
}

// Lookup returns the table size for sel. Matching is a case-insensitive
// substring test on make and model.
func Lookup(sel vehicle.Selection) string {
	mk := strings.ToLower(sel.Make)
	md := strings.ToLower(sel.Model)
	year := sel.YearInt()
	for _, r := range table {
		if !strings.Contains(mk, r.make) || !strings.Contains(md, r.model) {
			continue
		}
		if r.splitYear == 0 || year >= r.splitYear {
			return r.atOrAfter
		}
		return r.before
	}
	return DefaultSize
}

// Parts is a tire size split into its components, e.g. 225/65R17.
type Parts struct {
	Width        int    `json:"width"`
	AspectRatio  int    `json:"aspect_ratio"`
	Construction string `json:"construction"`
	Diameter     int    `json:"diameter"`
}

// String renders the parts back into WIDTH/ASPECTRATIO + CONSTRUCTION + DIAMETER.
func (p Parts) String() string {
	return fmt.Sprintf("%d/%d%s%d", p.Width, p.AspectRatio, p.Construction, p.Diameter)
}

// Parse splits a size string such as "235/45R18".
func Parse(size string) (Parts, error) {
	var p Parts
	width, rest, ok := strings.Cut(strings.TrimSpace(size), "/")
	if !ok {
		return p, fmt.Errorf("tiresize: %q: missing '/'", size)
	}
	idx := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if idx <= 0 || idx == len(rest)-1 {
		return p, fmt.Errorf("tiresize: %q: missing construction letter", size)
	}

	var err error
	if p.Width, err = strconv.Atoi(width); err != nil {
		return p, fmt.Errorf("tiresize: %q: width: %w", size, err)
	}
	if p.AspectRatio, err = strconv.Atoi(rest[:idx]); err != nil {
		return p, fmt.Errorf("tiresize: %q: aspect ratio: %w", size, err)
	}
	p.Construction = strings.ToUpper(rest[idx : idx+1])
	if p.Diameter, err = strconv.Atoi(rest[idx+1:]); err != nil {
		return p, fmt.Errorf("tiresize: %q: diameter: %w", size, err)
	}
	return p, nil
}

// existenceChecker confirms a model exists for a make and year.
type existenceChecker interface {
	ModelExists(ctx context.Context, year, makeName, model string) (bool, error)
}

// Resolution is the outcome of resolving a selection's tire size.
type Resolution struct {
	Size     string `json:"size"`
	Parts    Parts  `json:"parts"`
	Verified bool   `json:"verified"`
	Advisory string `json:"advisory,omitempty"`
}

// Resolver combines the advisory existence check with the lookup table.
type Resolver struct {
	checker existenceChecker
}

// NewResolver creates a Resolver. A nil checker skips the existence check.
func NewResolver(checker existenceChecker) *Resolver {
	return &Resolver{checker: checker}
}

// Resolve returns the tire size for sel. The existence check never changes
// the size; a failed or negative check only adds an advisory.
func (r *Resolver) Resolve(ctx context.Context, sel vehicle.Selection) Resolution {
	size := Lookup(sel)
	parts, err := Parse(size)
	if err != nil {
		// Table entries are well formed; fall back to the default's parts.
		parts, _ = Parse(DefaultSize)
	}
	res := Resolution{Size: size, Parts: parts}

	if r.checker == nil {
		res.Advisory = EstimatedAdvisory
		return res
	}
	ok, err := r.checker.ModelExists(ctx, sel.Year, sel.Make, sel.Model)
	if err != nil {
		zap.L().Warn("tire size existence check failed",
			zap.String("vehicle", sel.String()), zap.Error(err))
		res.Advisory = EstimatedAdvisory
		return res
	}
	if !ok {
		res.Advisory = EstimatedAdvisory
		return res
	}
	res.Verified = true
	return res
}
