// Package public marks each catalogued tag as public or not. Attributes
// named by a bare DICOM tag code instead of a dictionary keyword are not
// part of the public dictionary.
package public

import (
	"context"
	"log"
	"regexp"

	"github.com/SMI/metacat/pkg/domain"
	cataloguedb "github.com/SMI/metacat/pkg/domain/catalogue/db"
)

var tagCodePattern = regexp.MustCompile(`^\([a-zA-Z0-9]{4},[a-zA-Z0-9]{4}`)

// IsTagCode reports whether name is a bare tag code like "(0008,0018)".
func IsTagCode(name string) bool {
	return tagCodePattern.MatchString(name)
}

// Status is the public marker for a tag name.
func Status(name string) string {
	if IsTagCode(name) {
		return "false"
	}
	return "true"
}

// Marker derives the public marker for every catalogued tag.
type Marker struct {
	Catalogue cataloguedb.CatalogueInterface
	Logger    *log.Logger
}

// Run marks every catalogued tag. Only tags whose marker changes are
// written back.
func (m Marker) Run(ctx context.Context) error {
	tags, err := m.Catalogue.Tags(ctx, cataloguedb.TagQuery{})
	if err != nil {
		return err
	}

	changed := []domain.Tag{}
	for _, t := range tags {
		status := Status(t.Name)
		if t.Public == status {
			continue
		}
		t.Public = status
		changed = append(changed, t)
	}

	m.Logger.Printf("marking %d of %d tags", len(changed), len(tags))
	if len(changed) == 0 {
		return nil
	}
	return m.Catalogue.UpsertTags(ctx, changed)
}
