package protocol

import (
	"github.com/pscheid92/themebridge/internal/domain"
)

func registerGame(t *Table) {
	t.Register(Is[domain.GameMode](), func(_ *Table, v any) any {
		return string(deref[domain.GameMode](v))
	})
	t.Register(Is[domain.Identifier](), func(_ *Table, v any) any {
		return deref[domain.Identifier](v).String()
	})
	t.Register(Is[domain.ItemStack](), serializeItemStack)
	t.Register(Is[domain.StatusEffect](), serializeStatusEffect)
}

func serializeItemStack(_ *Table, v any) any {
	s := deref[domain.ItemStack](v)
	return NewObject().
		Set("identifier", s.Item.String()).
		Set("displayName", s.DisplayName).
		Set("count", s.Count).
		Set("damage", s.Damage).
		Set("maxDamage", s.MaxDamage).
		Set("empty", s.Empty())
}

func serializeStatusEffect(_ *Table, v any) any {
	e := deref[domain.StatusEffect](v)
	return NewObject().
		Set("effect", e.Effect.String()).
		Set("localizedName", e.LocalizedName).
		Set("duration", e.Duration).
		Set("amplifier", e.Amplifier).
		Set("ambient", e.Ambient).
		Set("infinite", e.Infinite).
		Set("visible", e.Visible).
		Set("showIcon", e.ShowIcon)
}
