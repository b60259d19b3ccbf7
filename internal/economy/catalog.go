package economy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"coinheist/internal/storage"
)

// Effect is the closed set of item behaviors. Item rows carry a kind plus
// numeric tier/charges columns; EffectOf turns them into a variant so the
// resolvers never interpret free-form tags.
type Effect interface {
	isEffect()
}

// ToolEffect boosts theft success chance. Single use per attempt.
type ToolEffect struct {
	Tier int
}

// ProtectEffect lowers an attacker's success chance while the holder has
// charges. One charge is consumed per attempt against the holder.
type ProtectEffect struct {
	Tier    int
	Charges int
}

// TrapEffect converts an incoming theft attempt into a loss for the attacker.
type TrapEffect struct {
	Charges int
}

// DetectiveEffect reveals the most recent successful thief. Single use.
type DetectiveEffect struct{}

// GiftEffect is a cosmetic quantity-based item with no gameplay effect.
type GiftEffect struct{}

func (ToolEffect) isEffect()      {}
func (ProtectEffect) isEffect()   {}
func (TrapEffect) isEffect()      {}
func (DetectiveEffect) isEffect() {}
func (GiftEffect) isEffect()      {}

// EffectOf returns the effect variant for a shop item.
func EffectOf(item *storage.ShopItem) Effect {
	switch item.Kind {
	case storage.KindTool:
		return ToolEffect{Tier: item.Tier}
	case storage.KindProtect:
		return ProtectEffect{Tier: item.Tier, Charges: item.Charges}
	case storage.KindTrap:
		return TrapEffect{Charges: item.Charges}
	case storage.KindDetective:
		return DetectiveEffect{}
	default:
		return GiftEffect{}
	}
}

type catalogFile struct {
	Items []catalogItem `yaml:"items"`
}

type catalogItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       int64  `yaml:"price"`
	Category    string `yaml:"category"`
	Stock       *int64 `yaml:"stock"`
	Effect      *struct {
		Kind    string `yaml:"kind"`
		Tier    int    `yaml:"tier"`
		Charges int    `yaml:"charges"`
	} `yaml:"effect"`
}

// LoadCatalog reads the default item catalog from a YAML file.
func LoadCatalog(path string) ([]storage.ShopItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("items catalog: %w", err)
	}

	items := make([]storage.ShopItem, 0, len(file.Items))
	for _, ci := range file.Items {
		if ci.Name == "" {
			return nil, fmt.Errorf("items catalog: item without a name")
		}
		if ci.Price <= 0 {
			return nil, fmt.Errorf("items catalog: %q has non-positive price", ci.Name)
		}

		item := storage.ShopItem{
			Name:        ci.Name,
			Description: ci.Description,
			Price:       ci.Price,
			Category:    ci.Category,
			Kind:        storage.KindGift,
			Stock:       -1,
		}
		if ci.Stock != nil {
			item.Stock = *ci.Stock
		}
		if item.Category == "" {
			item.Category = "gift"
		}

		if ci.Effect != nil {
			switch storage.ItemKind(ci.Effect.Kind) {
			case storage.KindTool:
				item.Kind = storage.KindTool
				item.Tier = ci.Effect.Tier
				item.Charges = 1
			case storage.KindProtect:
				item.Kind = storage.KindProtect
				item.Tier = ci.Effect.Tier
				item.Charges = ci.Effect.Charges
			case storage.KindTrap:
				item.Kind = storage.KindTrap
				item.Charges = ci.Effect.Charges
			case storage.KindDetective:
				item.Kind = storage.KindDetective
				item.Charges = 1
			default:
				return nil, fmt.Errorf("items catalog: %q has unknown effect kind %q", ci.Name, ci.Effect.Kind)
			}
			if item.Kind != storage.KindDetective && item.Kind != storage.KindTool && item.Charges <= 0 {
				return nil, fmt.Errorf("items catalog: %q has no charges", ci.Name)
			}
		}
		items = append(items, item)
	}
	return items, nil
}
