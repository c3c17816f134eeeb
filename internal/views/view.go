// Package views maps a navigation choice to one of the five dashboard views
// and builds the presentation payload of each.
package views

import (
	"errors"
	"fmt"
	"strings"
)

// View is one of the five dashboard sections.
type View int

const (
	Gathering View = iota
	Assessing
	Cleaning
	EDA
	Visualization
)

// Default is the view shown when nothing has been selected.
const Default = Gathering

// All lists the views in menu order.
var All = []View{Gathering, Assessing, Cleaning, EDA, Visualization}

// ErrUnknownView is returned for labels or slugs that name no view.
var ErrUnknownView = errors.New("unknown view")

// Label is the menu text of the view.
func (v View) Label() string {
	switch v {
	case Gathering:
		return "Gathering Data"
	case Assessing:
		return "Assessing Data"
	case Cleaning:
		return "Cleaning Data"
	case EDA:
		return "Exploratory Data Analysis (EDA)"
	case Visualization:
		return "Visualization & Explanatory Analysis"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

// Slug is the URL path segment of the view.
func (v View) Slug() string {
	switch v {
	case Gathering:
		return "gathering"
	case Assessing:
		return "assessing"
	case Cleaning:
		return "cleaning"
	case EDA:
		return "eda"
	case Visualization:
		return "visualization"
	default:
		return ""
	}
}

func (v View) String() string { return v.Slug() }

// Valid reports whether v is one of All.
func (v View) Valid() bool {
	return v >= Gathering && v <= Visualization
}

// Parse resolves a slug or a menu label. An empty string selects Default.
func Parse(s string) (View, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, nil
	}
	for _, v := range All {
		if strings.EqualFold(s, v.Slug()) || s == v.Label() {
			return v, nil
		}
	}
	return Default, fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// MarshalText encodes the view as its slug.
func (v View) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownView, int(v))
	}
	return []byte(v.Slug()), nil
}

// UnmarshalText accepts what Parse accepts.
func (v *View) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
