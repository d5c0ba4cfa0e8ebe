// Package crafter turns Source ingredients into Output products over a
// recipe's crafting time. Smelters carry every recipe of their category and
// start the first one the source can satisfy; assemblers carry exactly one.
package crafter

import (
	"errors"
	"fmt"
	"time"

	"beltline.ai/internal/sim/logistics/inventory"
	"beltline.ai/internal/sim/logistics/model"
)

var ErrInvalidRecipe = errors.New("invalid recipe")

type Recipe struct {
	Name        string
	Ingredients []model.ItemCount
	Products    []model.ItemCount
	Time        time.Duration
}

func (r Recipe) validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: no name", ErrInvalidRecipe)
	}
	if len(r.Ingredients) == 0 || len(r.Products) == 0 {
		return fmt.Errorf("%w: %s needs ingredients and products", ErrInvalidRecipe, r.Name)
	}
	if r.Time < 0 {
		return fmt.Errorf("%w: %s time %v", ErrInvalidRecipe, r.Name, r.Time)
	}
	return nil
}

// IngredientFilter allows exactly the recipe's ingredients.
func (r Recipe) IngredientFilter() model.ItemFilter {
	items := make([]model.Item, 0, len(r.Ingredients))
	for _, ic := range r.Ingredients {
		items = append(items, ic.Item)
	}
	return model.FilterOnly(items...)
}

type Crafter struct {
	recipes []Recipe
	active  int // index into recipes, -1 when idle
	elapsed time.Duration
}

func New(recipes ...Recipe) (*Crafter, error) {
	if len(recipes) == 0 {
		return nil, fmt.Errorf("%w: crafter without recipes", ErrInvalidRecipe)
	}
	seen := map[string]bool{}
	for _, r := range recipes {
		if err := r.validate(); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: %s listed twice", ErrInvalidRecipe, r.Name)
		}
		seen[r.Name] = true
	}
	return &Crafter{recipes: append([]Recipe(nil), recipes...), active: -1}, nil
}

func (c *Crafter) Recipes() []Recipe { return append([]Recipe(nil), c.recipes...) }

func (c *Crafter) Working() bool { return c.active >= 0 }

// Active returns the recipe in progress and how far along it is.
func (c *Crafter) Active() (Recipe, time.Duration, bool) {
	if c.active < 0 {
		return Recipe{}, 0, false
	}
	return c.recipes[c.active], c.elapsed, true
}

// Result reports what one Tick did. Consumed is non-empty on the tick a
// craft starts, Produced on the tick it finishes; Busy is set whenever a
// craft was running.
type Result struct {
	Started  string
	Consumed []model.ItemCount
	Finished string
	Produced []model.ItemCount
	Busy     bool
}

// Tick starts a craft when idle and the ingredients and output room are
// both there, then advances the running craft by dt. A finished craft
// whose products no longer fit waits with its clock stopped at the recipe
// time.
func (c *Crafter) Tick(source, output *inventory.Inventory, dt time.Duration) Result {
	var res Result
	if source == nil || output == nil {
		return res
	}
	if c.active < 0 {
		for i, r := range c.recipes {
			if !source.HasItems(r.Ingredients) || !output.CanAdd(r.Products) {
				continue
			}
			source.RemoveItems(r.Ingredients)
			c.active, c.elapsed = i, 0
			res.Started = r.Name
			res.Consumed = append([]model.ItemCount(nil), r.Ingredients...)
			break
		}
	}
	if c.active < 0 {
		return res
	}
	res.Busy = true
	r := c.recipes[c.active]
	c.elapsed += dt
	if c.elapsed < r.Time {
		return res
	}
	c.elapsed = r.Time
	if !output.CanAdd(r.Products) {
		return res
	}
	output.AddItems(r.Products)
	c.active, c.elapsed = -1, 0
	res.Finished = r.Name
	res.Produced = append([]model.ItemCount(nil), r.Products...)
	return res
}

// Cancel drops the running craft and hands back its ingredients.
func (c *Crafter) Cancel() []model.ItemCount {
	if c.active < 0 {
		return nil
	}
	out := append([]model.ItemCount(nil), c.recipes[c.active].Ingredients...)
	c.active, c.elapsed = -1, 0
	return out
}

// Restore resumes a persisted craft. An empty name means idle.
func (c *Crafter) Restore(name string, elapsed time.Duration) error {
	if name == "" {
		c.active, c.elapsed = -1, 0
		return nil
	}
	for i, r := range c.recipes {
		if r.Name != name {
			continue
		}
		if elapsed < 0 || elapsed > r.Time {
			return fmt.Errorf("%w: %s elapsed %v of %v", ErrInvalidRecipe, name, elapsed, r.Time)
		}
		c.active, c.elapsed = i, elapsed
		return nil
	}
	return fmt.Errorf("%w: %s is not one of this crafter's recipes", ErrInvalidRecipe, name)
}
