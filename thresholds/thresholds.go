// Package thresholds looks up demographic plausible heart rate ranges from an
// XML threshold table.
//
// A table holds records keyed by sex (a "type" attribute) and an inclusive age
// range ("agefrom"/"ageto" attributes). Both may sit on the same element or on
// nested ones. Inside a matching record, elements such as <percentile2.5> and
// <percentile97.5> hold the bounds as text:
//
//	<thresholds>
//	  <record type="male" agefrom="20" ageto="30">
//	    <percentile2.5>55</percentile2.5>
//	    <percentile97.5>95</percentile97.5>
//	  </record>
//	</thresholds>
package thresholds

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	ErrFileExistence = errors.New("threshold file does not exist")
	ErrFileOpen      = errors.New("threshold file could not be opened")
	ErrParseFailure  = errors.New("threshold file is not well formed")
	ErrRead          = errors.New("no matching threshold record")
)

// Code mirrors the error taxonomy as a value, for logs and wire messages.
type Code int

const (
	NoError Code = iota
	FileExistanceError
	FileOpenError
	ParseFailure
	ReadError
)

var codeNames = map[Code]string{
	NoError:            "NoError",
	FileExistanceError: "FileExistanceError",
	FileOpenError:      "FileOpenError",
	ParseFailure:       "ParseFailure",
	ReadError:          "ReadError",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// CodeOf classifies err. Unknown non-nil errors are reported as ReadError.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return NoError
	case errors.Is(err, ErrFileExistence):
		return FileExistanceError
	case errors.Is(err, ErrFileOpen):
		return FileOpenError
	case errors.Is(err, ErrParseFailure):
		return ParseFailure
	}
	return ReadError
}

type Sex int

const (
	Male Sex = iota
	Female
)

func (s Sex) String() string {
	if s == Male {
		return "male"
	}
	return "female"
}

func ParseSex(name string) (Sex, error) {
	switch strings.ToLower(name) {
	case "male", "m":
		return Male, nil
	case "female", "f":
		return Female, nil
	}
	return Male, fmt.Errorf("unknown sex %q, valid options are: male, female", name)
}

// Alpha is the two sided confidence level of the looked up range.
type Alpha int

const (
	TwoPercents Alpha = iota
	FivePercents
	TenPercents
	TwentyPercents
	FiftyPercents
)

var alphaNames = map[Alpha]string{
	TwoPercents:    "2",
	FivePercents:   "5",
	TenPercents:    "10",
	TwentyPercents: "20",
	FiftyPercents:  "50",
}

func (a Alpha) String() string {
	return alphaNames[a.normalised()] + "%"
}

func ParseAlpha(name string) (Alpha, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), "%")
	for a, n := range alphaNames {
		if n == name {
			return a, nil
		}
	}
	return FiftyPercents, fmt.Errorf("unknown confidence level %q, valid options are: 2, 5, 10, 20, 50", name)
}

func (a Alpha) normalised() Alpha {
	if _, ok := alphaNames[a]; ok {
		return a
	}
	return FiftyPercents
}

// Percentiles returns the element names holding the lower and upper bound.
// Unknown levels fall back to the interquartile range.
func (a Alpha) Percentiles() (lower, upper string) {
	switch a {
	case TwoPercents:
		return "percentile1.0", "percentile99.0"
	case FivePercents:
		return "percentile2.5", "percentile97.5"
	case TenPercents:
		return "percentile5.0", "percentile95.0"
	case TwentyPercents:
		return "percentile10.0", "percentile90.0"
	}
	return "percentile25.0", "percentile75.0"
}

// Range is a plausible heart rate interval in beats per minute.
type Range struct {
	Low  float64
	High float64
}

// Load opens fileName and looks up the range for sex, age and alpha.
func Load(fileName string, sex Sex, age int, alpha Alpha) (Range, error) {
	info, err := os.Stat(fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Range{}, fmt.Errorf("%w: %s", ErrFileExistence, fileName)
		}
		return Range{}, fmt.Errorf("%w: %s: %v", ErrFileOpen, fileName, err)
	}

	if info.IsDir() {
		return Range{}, fmt.Errorf("%w: %s is a directory", ErrFileOpen, fileName)
	}

	file, err := os.Open(fileName)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %s: %v", ErrFileOpen, fileName, err)
	}
	defer file.Close()

	return Lookup(file, sex, age, alpha)
}

// record tracks what one open element knows about sex and age, inherited
// from its ancestors.
type record struct {
	sexKnown bool
	sexMatch bool
	ageKnown bool
	ageMatch bool

	low, high       float64
	hasLow, hasHigh bool
}

func (r *record) matches() bool {
	return r.sexKnown && r.sexMatch && r.ageKnown && r.ageMatch
}

// Lookup streams an XML threshold table from r and returns the range from the
// first record matching sex and age that carries both percentiles.
func Lookup(r io.Reader, sex Sex, age int, alpha Alpha) (Range, error) {
	lower, upper := alpha.Percentiles()
	decoder := xml.NewDecoder(r)

	stack := []*record{{}}
	var text strings.Builder

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Range{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			parent := stack[len(stack)-1]
			current := &record{
				sexKnown: parent.sexKnown,
				sexMatch: parent.sexMatch,
				ageKnown: parent.ageKnown,
				ageMatch: parent.ageMatch,
			}
			applyAttributes(current, t.Attr, sex, age)
			stack = append(stack, current)
			text.Reset()

		case xml.CharData:
			text.Write(t)

		case xml.EndElement:
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			owner := stack[len(stack)-1]

			if owner.matches() && (t.Name.Local == lower || t.Name.Local == upper) {
				value, convErr := strconv.ParseFloat(strings.TrimSpace(text.String()), 64)
				if convErr == nil {
					if t.Name.Local == lower {
						owner.low, owner.hasLow = value, true
					} else {
						owner.high, owner.hasHigh = value, true
					}
				}
			}

			if current.matches() && current.hasLow && current.hasHigh {
				return Range{Low: current.low, High: current.high}, nil
			}
			text.Reset()
		}
	}

	return Range{}, fmt.Errorf("%w: sex=%s age=%d alpha=%s", ErrRead, sex, age, alpha)
}

func applyAttributes(r *record, attrs []xml.Attr, sex Sex, age int) {
	var from, to string
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "type":
			r.sexKnown = true
			r.sexMatch = attr.Value == sex.String()
		case "agefrom":
			from = attr.Value
		case "ageto":
			to = attr.Value
		}
	}

	if from == "" {
		return
	}

	r.ageKnown = true
	low, errLow := strconv.Atoi(strings.TrimSpace(from))
	high, errHigh := strconv.Atoi(strings.TrimSpace(to))
	r.ageMatch = errLow == nil && errHigh == nil && age >= low && age <= high
}
