package domain_test

import (
	"testing"

	"github.com/SMI/metacat/pkg/domain"
	"github.com/SMI/metacat/pkg/utils/pointer"
	"github.com/SMI/metacat/pkg/utils/try"
	"go.mongodb.org/mongo-driver/bson"
)

func TestModalityRoundTrip(t *testing.T) {
	t.Run("unknown fields survive a decode-reencode cycle", func(t *testing.T) {
		stored := bson.M{
			"modality":         "CT",
			"totalNoImagesRaw": int64(42),
			"description":      "Computed Tomography",
		}
		raw := try.To(bson.Marshal(stored)).OrFatal(t)

		var m domain.Modality
		if err := bson.Unmarshal(raw, &m); err != nil {
			t.Fatal(err)
		}

		if m.Name != "CT" {
			t.Errorf("modality name: %s", m.Name)
		}
		if got := pointer.SafeDeref(m.TotalNoImagesRaw); got != 42 {
			t.Errorf("totalNoImagesRaw: %d", got)
		}
		if m.Extra["description"] != "Computed Tomography" {
			t.Errorf("description is not captured: %+v", m.Extra)
		}

		reencoded := try.To(bson.Marshal(m)).OrFatal(t)
		var doc bson.M
		if err := bson.Unmarshal(reencoded, &doc); err != nil {
			t.Fatal(err)
		}

		if doc["description"] != "Computed Tomography" {
			t.Errorf("description is lost on reencode:\n===actual===\n%v", doc)
		}
		if doc["modality"] != "CT" {
			t.Errorf("modality is lost on reencode:\n===actual===\n%v", doc)
		}
		if doc["totalNoImagesRaw"] != int64(42) {
			t.Errorf("totalNoImagesRaw is lost on reencode:\n===actual===\n%v", doc)
		}
	})

	t.Run("fields never computed stay absent after a reencode", func(t *testing.T) {
		m := domain.Modality{
			Name:             "MR",
			TotalNoImagesRaw: pointer.Ref(int64(7)),
		}

		raw := try.To(bson.Marshal(m)).OrFatal(t)
		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			t.Fatal(err)
		}

		for _, absent := range []string{
			"totalNoSeriesRaw", "totalNoImagesStaging",
			"countsPerMonthStaging", "tags", "promotionStatus",
		} {
			if _, ok := doc[absent]; ok {
				t.Errorf("field %s is written although never computed: %v", absent, doc[absent])
			}
		}
	})
}

func TestTagRoundTrip(t *testing.T) {
	t.Run("unknown fields survive a decode-reencode cycle", func(t *testing.T) {
		stored := bson.M{
			"tag":         "(0010,0010)",
			"public":      "true",
			"description": "Patient's Name",
		}
		raw := try.To(bson.Marshal(stored)).OrFatal(t)

		var tag domain.Tag
		if err := bson.Unmarshal(raw, &tag); err != nil {
			t.Fatal(err)
		}
		if tag.Extra["description"] != "Patient's Name" {
			t.Errorf("description is not captured: %+v", tag.Extra)
		}

		reencoded := try.To(bson.Marshal(tag)).OrFatal(t)
		var doc bson.M
		if err := bson.Unmarshal(reencoded, &doc); err != nil {
			t.Fatal(err)
		}

		if doc["description"] != "Patient's Name" {
			t.Errorf("description is lost on reencode:\n===actual===\n%v", doc)
		}
		if doc["public"] != "true" {
			t.Errorf("public is lost on reencode:\n===actual===\n%v", doc)
		}
		if _, ok := doc["promotionStatus"]; ok {
			t.Errorf("promotionStatus is written although never set: %v", doc)
		}
	})
}
