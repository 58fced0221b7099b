package domain

import (
	"github.com/SMI/metacat/pkg/utils/slices"
)

// MergeModalities folds freshly observed modalities into the known
// catalogue set.
//
// Modalities not yet in the catalogue are appended as they are. Known
// modalities only receive placeholders for tags they have not recorded
// yet, so quality figures already computed stay untouched.
//
// The result shares no Tags backing arrays with either input.
func MergeModalities(known []Modality, observed []Modality) []Modality {
	merged := make([]Modality, len(known))
	for i, m := range known {
		m.Tags = append([]ModalityTag(nil), m.Tags...)
		merged[i] = m
	}

	index := map[string]int{}
	for i, m := range merged {
		index[m.Name] = i
	}

	for _, o := range observed {
		i, ok := index[o.Name]
		if !ok {
			o.Tags = append([]ModalityTag(nil), o.Tags...)
			index[o.Name] = len(merged)
			merged = append(merged, o)
			continue
		}

		for _, t := range o.Tags {
			if merged[i].HasTag(t.Name) {
				continue
			}
			merged[i].Tags = append(merged[i].Tags, ModalityTag{Name: t.Name})
		}
	}

	return merged
}

// MergeTags folds freshly observed tags into the known catalogue set.
//
// Tags not yet in the catalogue are appended as they are. Known tags
// receive the union of their modality names, order of first observation
// preserved.
func MergeTags(known []Tag, observed []Tag) []Tag {
	merged := make([]Tag, len(known))
	for i, t := range known {
		t.Modalities = append([]string(nil), t.Modalities...)
		merged[i] = t
	}

	index := map[string]int{}
	for i, t := range merged {
		index[t.Name] = i
	}

	for _, o := range observed {
		i, ok := index[o.Name]
		if !ok {
			o.Modalities = append([]string(nil), o.Modalities...)
			index[o.Name] = len(merged)
			merged = append(merged, o)
			continue
		}

		for _, m := range o.Modalities {
			m := m
			known := slices.Contains(merged[i].Modalities, func(v string) bool { return v == m })
			if known {
				continue
			}
			merged[i].Modalities = append(merged[i].Modalities, m)
		}
	}

	return merged
}
