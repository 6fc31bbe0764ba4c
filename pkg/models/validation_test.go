package models

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ValidationSuite struct {
	suite.Suite
}

func TestValidationSuite(t *testing.T) {
	suite.Run(t, new(ValidationSuite))
}

func (s *ValidationSuite) TestNoErrorsWhenNothingAdded() {
	var errs ValidationErrors
	s.False(errs.HasErrors())
}

func (s *ValidationSuite) TestAddAlwaysRecords() {
	var errs ValidationErrors
	errs.Add("field", 1, "bad")
	s.True(errs.HasErrors())
	s.Len(errs, 1)
	s.Equal("field", errs[0].Field)
}

func (s *ValidationSuite) TestAddIfSkipsWhenFalse() {
	var errs ValidationErrors
	errs.AddIf(false, "field", 1, "bad")
	s.False(errs.HasErrors())
}

func (s *ValidationSuite) TestAddIfRecordsWhenTrue() {
	var errs ValidationErrors
	errs.AddIf(true, "field", 1, "bad")
	s.True(errs.HasErrors())
}

func (s *ValidationSuite) TestErrorMessageJoinsAllProblems() {
	var errs ValidationErrors
	errs.Add("a", 1, "bad a")
	errs.Add("b", 2, "bad b")
	msg := errs.Error()
	s.Contains(msg, "bad a")
	s.Contains(msg, "bad b")
}
