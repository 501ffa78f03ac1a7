package domain

// Identifier is a namespaced registry key such as "minecraft:stone".
type Identifier struct {
	Namespace string
	Path      string
}

func (i Identifier) String() string {
	ns := i.Namespace
	if ns == "" {
		ns = "minecraft"
	}
	return ns + ":" + i.Path
}

type GameMode string

const (
	GameModeSurvival  GameMode = "survival"
	GameModeCreative  GameMode = "creative"
	GameModeAdventure GameMode = "adventure"
	GameModeSpectator GameMode = "spectator"
)

type ItemStack struct {
	Item        Identifier
	DisplayName string
	Count       int
	Damage      int
	MaxDamage   int
}

func (s ItemStack) Empty() bool {
	return s.Count <= 0 || s.Item.Path == "air"
}

// StatusEffect is an active potion-style effect on the player.
type StatusEffect struct {
	Effect        Identifier
	LocalizedName string
	Duration      int
	Amplifier     int
	Ambient       bool
	Infinite      bool
	Visible       bool
	ShowIcon      bool
}
