package models

import (
	temporal "cadastre/internal/temporal/models"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// ResourceLink is the tagged union for the resource-to-object association:
// an opaque identity plus its kind, constrained to the closed set of
// referenceable object types. Blob bytes live with the file-storage
// collaborator; this core records only the linkage.
type ResourceLink struct {
	Type domain.ObjectType `json:"type"`
	ID   domain.EntityID   `json:"id"`
}

// Validate rejects links outside the closed referenceable set.
func (l ResourceLink) Validate() error {
	if l.ID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "resource link target is required")
	}
	for _, t := range domain.ReferenceableTypes() {
		if l.Type == t {
			return nil
		}
	}
	return dErrors.Newf(dErrors.CodeBadRequest, "resources cannot link to object type %q", l.Type)
}

// DirectoryBacked reports whether the link target lives in the directory
// rather than the revision store. Organizations and projects are scope
// anchors without revisions, so their links cannot ride the cascade
// machinery and are checked against the directory instead.
func (l ResourceLink) DirectoryBacked() bool {
	return l.Type == domain.ObjectOrganization || l.Type == domain.ObjectProject
}

// Resource is an uploaded file associated with another entity. The storage
// key addresses the blob in external storage; the link rides the cascade
// machinery so a resource is retired with the object it documents.
type Resource struct {
	ID         domain.EntityID
	Project    ProjectRef
	StorageKey string
	MimeType   string
	Type       string // free-form resource subtype
	Link       ResourceLink
	Attributes map[string]any
}

// Descriptor reduces the resource to its record form. Directory-backed link
// targets are recorded as plain fields; revision-backed targets become a
// cascade reference so the resource is retired with the object it documents.
func (r Resource) Descriptor() Descriptor {
	d := Descriptor{
		ID:      r.ID,
		Type:    domain.ObjectResource,
		Subtype: r.Type,
		Project: r.Project,
		Fields: temporal.Fields{
			"storage_key": r.StorageKey,
			"mime_type":   r.MimeType,
			"link_type":   r.Link.Type.String(),
		},
		Attributes: r.Attributes,
	}
	if r.Link.DirectoryBacked() {
		d.Fields["link_id"] = r.Link.ID.String()
		return d
	}
	d.References = []temporal.Reference{
		{Field: "object", Target: r.Link.ID, Policy: temporal.PolicyCascade},
	}
	return d
}
