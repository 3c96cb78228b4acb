package models

import (
	temporal "cadastre/internal/temporal/models"
	domain "cadastre/pkg/domain"
)

// Questionnaire artifacts mirror the data-collection form structure. Form
// ingestion itself is a collaborator's concern; the artifacts are recorded
// here because they are versioned entities that other records reference.

// Questionnaire is one published form definition.
type Questionnaire struct {
	ID       domain.EntityID
	Project  ProjectRef
	Name     string
	Label    string
	IDString string
	FormID   int64
	Publish  bool
}

// Descriptor reduces the questionnaire to its record form.
func (q Questionnaire) Descriptor() Descriptor {
	return Descriptor{
		ID:      q.ID,
		Type:    domain.ObjectQuestionnaire,
		Project: q.Project,
		Fields: temporal.Fields{
			"name":      q.Name,
			"label":     q.Label,
			"id_string": q.IDString,
			"form_id":   q.FormID,
			"publish":   q.Publish,
		},
	}
}

// QuestionSection is a named division of a questionnaire's questions.
type QuestionSection struct {
	ID            domain.EntityID
	Project       ProjectRef
	Questionnaire domain.EntityID
	Name          string
	Label         string
	Publish       bool
}

// Descriptor reduces the section to its record form. The questionnaire link
// cascades: retiring a questionnaire retires its sections.
func (s QuestionSection) Descriptor() Descriptor {
	return Descriptor{
		ID:      s.ID,
		Type:    domain.ObjectQuestionSection,
		Project: s.Project,
		Fields: temporal.Fields{
			"name":    s.Name,
			"label":   s.Label,
			"publish": s.Publish,
		},
		References: []temporal.Reference{
			{Field: "questionnaire", Target: s.Questionnaire, Policy: temporal.PolicyCascade},
		},
	}
}

// QuestionGroup nests questions within a section. Groups may themselves nest
// through the parent link.
type QuestionGroup struct {
	ID            domain.EntityID
	Project       ProjectRef
	Questionnaire domain.EntityID
	Section       domain.EntityID
	Parent        domain.EntityID // nil for top-level groups
	Name          string
	Label         string
}

// Descriptor reduces the group to its record form. All three structural
// links cascade, so retiring any ancestor retires the group.
func (g QuestionGroup) Descriptor() Descriptor {
	refs := []temporal.Reference{
		{Field: "questionnaire", Target: g.Questionnaire, Policy: temporal.PolicyCascade},
		{Field: "section", Target: g.Section, Policy: temporal.PolicyCascade},
	}
	if !g.Parent.IsNil() {
		refs = append(refs, temporal.Reference{Field: "parent", Target: g.Parent, Policy: temporal.PolicyCascade})
	}
	return Descriptor{
		ID:      g.ID,
		Type:    domain.ObjectQuestionGroup,
		Project: g.Project,
		Fields: temporal.Fields{
			"name":  g.Name,
			"label": g.Label,
		},
		References: refs,
	}
}

// Question is a single form question within a questionnaire.
type Question struct {
	ID            domain.EntityID
	Project       ProjectRef
	Questionnaire domain.EntityID
	Section       domain.EntityID // nil for questions outside any section
	Group         domain.EntityID // nil for ungrouped questions
	Name          string
	Label         string
	Type          string // form field type token (text, integer, geopoint, ...)
}

// Descriptor reduces the question to its record form. The structural links
// cascade: retiring a questionnaire, section or group retires its questions.
func (q Question) Descriptor() Descriptor {
	refs := []temporal.Reference{
		{Field: "questionnaire", Target: q.Questionnaire, Policy: temporal.PolicyCascade},
	}
	if !q.Section.IsNil() {
		refs = append(refs, temporal.Reference{Field: "section", Target: q.Section, Policy: temporal.PolicyCascade})
	}
	if !q.Group.IsNil() {
		refs = append(refs, temporal.Reference{Field: "group", Target: q.Group, Policy: temporal.PolicyCascade})
	}
	return Descriptor{
		ID:      q.ID,
		Type:    domain.ObjectQuestion,
		Project: q.Project,
		Fields: temporal.Fields{
			"name":  q.Name,
			"label": q.Label,
			"type":  q.Type,
		},
		References: refs,
	}
}

// QuestionOption is one choice of a select-type question.
type QuestionOption struct {
	ID       domain.EntityID
	Project  ProjectRef
	Question domain.EntityID
	Name     string
	Label    string
}

// Descriptor reduces the option to its record form.
func (o QuestionOption) Descriptor() Descriptor {
	return Descriptor{
		ID:      o.ID,
		Type:    domain.ObjectQuestionOption,
		Project: o.Project,
		Fields: temporal.Fields{
			"name":  o.Name,
			"label": o.Label,
		},
		References: []temporal.Reference{
			{Field: "question", Target: o.Question, Policy: temporal.PolicyCascade},
		},
	}
}

// QuestionRespondent records one submission of a questionnaire. SubmissionID
// carries the collector-side identifier so answers can be traced back to the
// ingested form data.
type QuestionRespondent struct {
	ID            domain.EntityID
	Project       ProjectRef
	Questionnaire domain.EntityID
	SubmissionID  string
}

// Descriptor reduces the respondent to its record form.
func (r QuestionRespondent) Descriptor() Descriptor {
	return Descriptor{
		ID:      r.ID,
		Type:    domain.ObjectQuestionRespondent,
		Project: r.Project,
		Fields: temporal.Fields{
			"submission_id": r.SubmissionID,
		},
		References: []temporal.Reference{
			{Field: "questionnaire", Target: r.Questionnaire, Policy: temporal.PolicyCascade},
		},
	}
}

// QuestionResponse is one respondent's answer to one question.
type QuestionResponse struct {
	ID         domain.EntityID
	Project    ProjectRef
	Respondent domain.EntityID
	Question   domain.EntityID
	Answer     string
}

// Descriptor reduces the response to its record form. Both links cascade, so
// answers disappear with either the respondent or the question.
func (r QuestionResponse) Descriptor() Descriptor {
	return Descriptor{
		ID:      r.ID,
		Type:    domain.ObjectQuestionResponse,
		Project: r.Project,
		Fields: temporal.Fields{
			"answer": r.Answer,
		},
		References: []temporal.Reference{
			{Field: "respondent", Target: r.Respondent, Policy: temporal.PolicyCascade},
			{Field: "question", Target: r.Question, Policy: temporal.PolicyCascade},
		},
	}
}
