package pipeline

import (
	"strconv"
	"strings"

	"github.com/matzehuels/sawtooth/pkg/errors"
	"github.com/matzehuels/sawtooth/pkg/profile"
)

// ParseTuple parses "a,b,c,d,h,n" into profile parameters. Commas,
// semicolons and whitespace all separate fields, so "164.44 252.22 30 70 250
// 10" is accepted too. Only syntax is checked here; geometric validity is
// left to profile construction.
func ParseTuple(s string) (profile.Params, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	if len(fields) != 6 {
		return profile.Params{}, errors.New(errors.ErrCodeInvalidParams,
			"profile %q: want 6 values a,b,c,d,h,n, got %d", s, len(fields))
	}

	var vals [5]float64
	for i, name := range []string{"a", "b", "c", "d", "h"} {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return profile.Params{}, errors.Wrap(errors.ErrCodeInvalidParams, err, "profile %q: field %s", s, name)
		}
		if err := errors.ValidateFinite(name, v); err != nil {
			return profile.Params{}, err
		}
		vals[i] = v
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil {
		return profile.Params{}, errors.Wrap(errors.ErrCodeInvalidParams, err, "profile %q: field n", s)
	}

	return profile.Params{
		Rise:        vals[0],
		Run:         vals[1],
		RightExcess: vals[2],
		LeftExcess:  vals[3],
		Height:      vals[4],
		Teeth:       n,
	}, nil
}

// ParseTuples parses each string with ParseTuple.
func ParseTuples(ss []string) ([]profile.Params, error) {
	out := make([]profile.Params, 0, len(ss))
	for i, s := range ss {
		p, err := ParseTuple(s)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "profile %d", i+1)
		}
		out = append(out, p)
	}
	return out, nil
}
