// Package blocklist maintains the blocklist collections excluding
// modalities and tags from promotion: entries loaded from JSON files,
// plus entries generated for every catalogued name matching a block
// pattern.
package blocklist

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/SMI/metacat/pkg/domain"
	cataloguedb "github.com/SMI/metacat/pkg/domain/catalogue/db"
	xerrors "github.com/SMI/metacat/pkg/errors"
)

// LoadModalityFile reads a modality blocklist JSON file.
func LoadModalityFile(path string) ([]domain.BlockedModality, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Wrap(err)
	}
	blocked := []domain.BlockedModality{}
	if err := json.Unmarshal(raw, &blocked); err != nil {
		return nil, xerrors.WrapWithNote(fmt.Sprintf("not a modality blocklist: %s", path), err)
	}
	return blocked, nil
}

// LoadTagFile reads a tag blocklist JSON file.
func LoadTagFile(path string) ([]domain.BlockedTag, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Wrap(err)
	}
	blocked := []domain.BlockedTag{}
	if err := json.Unmarshal(raw, &blocked); err != nil {
		return nil, xerrors.WrapWithNote(fmt.Sprintf("not a tag blocklist: %s", path), err)
	}
	return blocked, nil
}

func blockReason(pattern string) string {
	return fmt.Sprintf("Contains '%s' and is considered unusable.", pattern)
}

// Loader builds the blocklist collections.
type Loader struct {
	Catalogue cataloguedb.CatalogueInterface
	Logger    *log.Logger
}

// Run loads entries from the given files (either path may be empty) and,
// when pattern is not empty, blocks every catalogued modality and tag
// whose name matches it. Collections and indexes are ensured before the
// first write.
func (l Loader) Run(ctx context.Context, modalityFile string, tagFile string, pattern string) error {
	modalities := []domain.BlockedModality{}
	tags := []domain.BlockedTag{}

	if modalityFile != "" {
		loaded, err := LoadModalityFile(modalityFile)
		if err != nil {
			return err
		}
		modalities = append(modalities, loaded...)
	}
	if tagFile != "" {
		loaded, err := LoadTagFile(tagFile)
		if err != nil {
			return err
		}
		tags = append(tags, loaded...)
	}

	if pattern != "" {
		matchedTags, err := l.Catalogue.Tags(ctx, cataloguedb.TagQuery{NameRegex: pattern})
		if err != nil {
			return err
		}
		for _, t := range matchedTags {
			tags = append(tags, domain.BlockedTag{
				Name:        t.Name,
				BlockReason: blockReason(pattern),
				Modality:    "all",
			})
		}

		matchedMods, err := l.Catalogue.Modalities(ctx, cataloguedb.ModalityQuery{NameRegex: pattern})
		if err != nil {
			return err
		}
		for _, m := range matchedMods {
			modalities = append(modalities, domain.BlockedModality{
				Name:        m.Name,
				BlockReason: blockReason(pattern),
			})
		}
	}

	if len(modalities) == 0 && len(tags) == 0 {
		l.Logger.Printf("no blocklist entries to write")
		return nil
	}

	if err := l.Catalogue.EnsureBlocklists(ctx); err != nil {
		return err
	}

	l.Logger.Printf("blocking %d modalities, %d tags", len(modalities), len(tags))
	if len(modalities) > 0 {
		if err := l.Catalogue.UpsertBlockedModalities(ctx, modalities); err != nil {
			return err
		}
	}
	if len(tags) > 0 {
		if err := l.Catalogue.UpsertBlockedTags(ctx, tags); err != nil {
			return err
		}
	}
	return nil
}
