package assignment

import (
	"context"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ImportFile is the YAML document accepted by Import:
//
//	assignments:
//	  - title: Go basics
//	    description: ...
//	    materialUrl: https://go.dev/tour
//	    questions:
//	      - questionText: What does := do?
//	        options: [declare, compare]
//	        correctAnswer: declare
type ImportFile struct {
	Assignments []NewAssignment `yaml:"assignments"`
}

// Import creates every assignment of the YAML document read from r.
// Nothing is created if any assignment is invalid.
func (svc *Service) Import(ctx context.Context, r io.Reader, validate *validator.Validate) ([]Assignment, error) {
	var doc ImportFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decoding yaml")
	}

	for i := range doc.Assignments {
		if err := doc.Assignments[i].Validate(validate); err != nil {
			return nil, errors.Wrapf(err, "assignment #%d", i+1)
		}
	}

	created := make([]Assignment, 0, len(doc.Assignments))
	for _, na := range doc.Assignments {
		asg, err := svc.Create(ctx, na)
		if err != nil {
			return created, errors.Wrapf(err, "creating %q", na.Title)
		}
		created = append(created, asg)
	}
	return created, nil
}
