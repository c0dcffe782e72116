package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/pricing"
)

// ResolvedChoice is the choice picked for one option group.
type ResolvedChoice struct {
	Group  models.OptionGroup
	Choice models.Choice
}

// ResolveChoices validates requested (group name -> choice name) against the
// option groups of a food item. Required groups that were not requested fall
// back to their default choice. The result is ordered by group position.
// Adding and editing a cart line both go through here.
func ResolveChoices(groups []models.OptionGroup, requested map[string]string) ([]ResolvedChoice, error) {
	ordered := make([]models.OptionGroup, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	byName := make(map[string]int, len(ordered))
	for i := range ordered {
		byName[ordered[i].Name] = i
	}

	picked := make(map[int]models.Choice, len(ordered))

	for i := range ordered {
		g := &ordered[i]
		if !g.Required {
			continue
		}
		if _, ok := requested[g.Name]; ok {
			continue
		}
		def, ok := g.DefaultChoice()
		if !ok {
			return nil, apperrors.New(apperrors.ErrMissingRequiredOption, "missing required option %q", g.Name)
		}
		picked[i] = *def
	}

	names := make([]string, 0, len(requested))
	for name := range requested {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		idx, ok := byName[name]
		if !ok {
			return nil, apperrors.New(apperrors.ErrUnknownOptionGroup, "unknown option group %q", name)
		}
		choice, ok := findChoice(ordered[idx].Choices, requested[name])
		if !ok {
			return nil, apperrors.New(apperrors.ErrUnknownChoice, "unknown choice %q for option group %q", requested[name], name)
		}
		picked[idx] = choice
	}

	resolved := make([]ResolvedChoice, 0, len(picked))
	for i := range ordered {
		choice, ok := picked[i]
		if !ok {
			continue
		}
		group := ordered[i]
		group.Choices = nil
		resolved = append(resolved, ResolvedChoice{Group: group, Choice: choice})
	}
	return resolved, nil
}

func findChoice(choices []models.Choice, name string) (models.Choice, bool) {
	for _, c := range choices {
		if c.Name == name {
			return c, true
		}
	}
	return models.Choice{}, false
}

// selectionsFrom turns resolved choices into unsaved selections of a line.
// The delta stays live until checkout freezes it.
func selectionsFrom(lineItemID uint, resolved []ResolvedChoice) []models.LineItemSelection {
	out := make([]models.LineItemSelection, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, models.LineItemSelection{
			LineItemID:    lineItemID,
			OptionGroupID: r.Group.ID,
			ChoiceID:      r.Choice.ID,
			Choice:        r.Choice,
			GroupName:     r.Group.Name,
			ChoiceName:    r.Choice.Name,
		})
	}
	return out
}

func pricingLine(l *models.LineItem) pricing.Line {
	deltas := make([]decimal.Decimal, 0, len(l.Selections))
	for i := range l.Selections {
		deltas = append(deltas, l.Selections[i].Delta())
	}
	return pricing.Line{BasePrice: l.BasePrice(), Quantity: l.Quantity, Deltas: deltas}
}

func pricingLines(items []models.LineItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for i := range items {
		lines = append(lines, pricingLine(&items[i]))
	}
	return lines
}
