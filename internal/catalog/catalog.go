// Package catalog holds the static quality issue definitions.
package catalog

import (
	"github.com/sprite-ai/qcreview/internal/model"
)

// IssueOption is one selectable quality issue.
type IssueOption struct {
	Code            model.IssueCode
	LabelKey        string
	IsProtocolIssue bool
}

// Label returns the human readable label of the option.
func (o IssueOption) Label() string {
	return Label(o.Code)
}

type definition struct {
	code  model.IssueCode
	name  string // suffix of the translation key
	label string
}

var qualityGood = definition{model.IssueQualityGood, "QualityGood", "Quality good"}

var exterior = []definition{
	qualityGood,
	{model.IssueSunReflections, "SunReflections", "Sun reflections"},
	{model.IssueAngle, "Angle", "Angle"},
	{model.IssueBlurred, "Blurred", "Blurred"},
	{model.IssuePlatePositioning, "PlatePositioning", "Plate positioning"},
	{model.IssuePositioningPlatform360, "PositioningPlatform360", "Positioning on 360 platform"},
	{model.IssueImageNotProcessed, "ImageNotProcessed", "Image not processed"},
	{model.IssueSegmentation, "Segmentation", "Segmentation"},
	{model.IssueExteriorLight, "ExteriorLight", "Exterior light"},
	{model.IssueEmbarrassingObject, "EmbarrassingObject", "Embarrassing object"},
	{model.IssueMode3In1, "Mode3In1", "3-in-1 mode"},
	{model.IssueWrongPosition, "WrongPosition", "Wrong position"},
}

var interior = []definition{
	qualityGood,
	{model.IssueSunReflexion, "SunReflexion", "Sun reflexion"},
	{model.IssuePhotographersReflection, "PhotographersReflection", "Photographer's reflection"},
	{model.IssueWrongAngle, "WrongAngle", "Wrong angle"},
	{model.IssueImageTooDark, "ImageTooDark", "Image too dark"},
}

var protocol = []definition{
	{model.IssueIncorrectProtocolCi, "IncorrectProtocolCi", "Incorrect protocol (CI)"},
	{model.IssueTextInputSpecificProblem, "TextInputSpecificProblem", "Text input specific problem"},
}

const labelKeyPrefix = "content.qualityFeedback."

func options(defs []definition, isProtocol bool) []IssueOption {
	out := make([]IssueOption, 0, len(defs))
	for _, d := range defs {
		out = append(out, IssueOption{
			Code:            d.code,
			LabelKey:        labelKeyPrefix + d.name,
			IsProtocolIssue: isProtocol,
		})
	}
	return out
}

// IssuesFor returns the ordered issue options of a position. Exterior items
// get the exterior set; every other position, known or not, gets the interior
// set. The protocol set is appended to both. Each call returns a new slice.
func IssuesFor(p model.Position) []IssueOption {
	base := interior
	if p == model.PositionExterior {
		base = exterior
	}
	out := options(base, false)
	return append(out, Protocol()...)
}

// Protocol returns the issues that apply regardless of position.
func Protocol() []IssueOption {
	return options(protocol, true)
}

// Contains reports whether code is offered for position p.
func Contains(p model.Position, code model.IssueCode) bool {
	for _, o := range IssuesFor(p) {
		if o.Code == code {
			return true
		}
	}
	return false
}

// Lookup finds an option by code in any set.
func Lookup(code model.IssueCode) (IssueOption, bool) {
	for _, set := range [][]definition{exterior, interior} {
		for _, d := range set {
			if d.code == code {
				return options([]definition{d}, false)[0], true
			}
		}
	}
	for _, d := range protocol {
		if d.code == code {
			return options([]definition{d}, true)[0], true
		}
	}
	return IssueOption{}, false
}

// Known reports whether code belongs to any catalog set.
func Known(code model.IssueCode) bool {
	_, ok := Lookup(code)
	return ok
}

// Label returns the English label of an issue code, or the raw code when it
// is unknown.
func Label(code model.IssueCode) string {
	for _, set := range [][]definition{exterior, interior, protocol} {
		for _, d := range set {
			if d.code == code {
				return d.label
			}
		}
	}
	return string(code)
}
