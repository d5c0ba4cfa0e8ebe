package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_RepoConfigs(t *testing.T) {
	cats, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cats.Items.Palette) == 0 || cats.Items.PaletteDigest == "" || cats.Items.DefsDigest == "" {
		t.Fatalf("item catalog incomplete: %+v", cats.Items)
	}
	for _, id := range []string{"CHEST", "TRANSPORT_BELT", "INSERTER", "BURNER_MINER", "STONE_FURNACE"} {
		if _, ok := cats.Structures.ByID[id]; !ok {
			t.Fatalf("missing structure %s", id)
		}
	}
	if !cats.Structures.ByID["TRANSPORT_BELT"].Has(ComponentTransportBelt) {
		t.Fatalf("belt structure lost its component")
	}
	if got := cats.Recipes.InCategory("smelting"); len(got) != 2 || got[0] != "COPPER_PLATE" || got[1] != "IRON_PLATE" {
		t.Fatalf("smelting recipes: %v", got)
	}
	if !cats.Structures.ByID["BURNER_MINER"].Has(ComponentBurner) || !cats.Structures.ByID["STONE_FURNACE"].Has(ComponentSmelter) {
		t.Fatalf("burner structures lost their components")
	}
	fuel := cats.Items.FuelItems()
	if len(fuel) != 2 || fuel[0] != "COAL" || fuel[1] != "WOOD" {
		t.Fatalf("fuel items: %v", fuel)
	}
}

func writeConfigs(t *testing.T, structures string) string {
	t.Helper()
	dir := t.TempDir()
	items := `[{"id":"COAL","kind":"RESOURCE","fuel":true},{"id":"IRON_PLATE","kind":"INTERMEDIATE"}]`
	if err := os.WriteFile(filepath.Join(dir, "items.json"), []byte(items), 0o644); err != nil {
		t.Fatalf("write items: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "structures.json"), []byte(structures), 0o644); err != nil {
		t.Fatalf("write structures: %v", err)
	}
	return dir
}

func TestLoad_SchemaRejectsUnknownComponent(t *testing.T) {
	dir := writeConfigs(t, `[{"id":"CHEST","sides":1,"components":[{"type":"warp_drive"}]}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected schema rejection")
	}
}

func TestLoad_SchemaRejectsUnknownField(t *testing.T) {
	dir := writeConfigs(t, `[{"id":"CHEST","sides":1,"colour":"red","components":[{"type":"storage","slots":4}]}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected additional property rejection")
	}
}

func TestLoad_UnknownItemSuggestsName(t *testing.T) {
	dir := writeConfigs(t, `[{"id":"CHEST","sides":1,"components":[{"type":"storage","slots":4,"filter":["IRON_PLAT"]}]}]`)
	_, err := Load(dir)
	if err == nil {
		t.Fatalf("expected unknown item error")
	}
	if !strings.Contains(err.Error(), `did you mean "IRON_PLATE"`) {
		t.Fatalf("missing suggestion: %v", err)
	}
}

func TestLoad_RejectsBadSideCount(t *testing.T) {
	dir := writeConfigs(t, `[{"id":"CHEST","sides":3,"components":[{"type":"storage","slots":4}]}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected side count rejection")
	}
}

func TestLoad_RejectsTwoBehaviours(t *testing.T) {
	dir := writeConfigs(t, `[{"id":"ODD","sides":4,"components":[{"type":"transport_belt"},{"type":"inserter","speed":1,"capacity":1}]}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected belt+inserter rejection")
	}
}

func writeRecipes(t *testing.T, dir, recipes string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "recipes.json"), []byte(recipes), 0o644); err != nil {
		t.Fatalf("write recipes: %v", err)
	}
}

const plateRecipe = `[{"id":"PLATE","category":"smelting","time_ms":100,"ingredients":[{"item":"COAL","amount":1}],"products":[{"item":"IRON_PLATE","amount":1}]}]`

func TestLoad_MissingRecipesIsEmpty(t *testing.T) {
	dir := writeConfigs(t, `[{"id":"CHEST","sides":1,"components":[{"type":"storage","slots":4}]}]`)
	cats, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cats.Recipes.IDs) != 0 || cats.Recipes.ByID == nil {
		t.Fatalf("recipes: %+v", cats.Recipes)
	}
}

func TestLoad_RecipeUnknownItem(t *testing.T) {
	dir := writeConfigs(t, `[]`)
	writeRecipes(t, dir, `[{"id":"PLATE","category":"smelting","ingredients":[{"item":"IRON_OR","amount":1}],"products":[{"item":"IRON_PLATE","amount":1}]}]`)
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "recipes.json") {
		t.Fatalf("expected recipe item error, got %v", err)
	}
}

func TestLoad_BurnerNeedsFuel(t *testing.T) {
	dir := writeConfigs(t, `[{"id":"HOT","sides":1,"components":[{"type":"burner","burn_ms":1000},{"type":"storage","slots":1}]}]`)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected burner without fuel rejection")
	}
}

func TestLoad_SmelterNeedsRecipesAndInventories(t *testing.T) {
	furnace := `[{"id":"FURNACE","sides":1,"components":[{"type":"source","slots":1},{"type":"output","slots":1},{"type":"smelter","category":"smelting"}]}]`
	dir := writeConfigs(t, furnace)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected empty category rejection")
	}
	writeRecipes(t, dir, plateRecipe)
	if _, err := Load(dir); err != nil {
		t.Fatalf("load: %v", err)
	}

	dir = writeConfigs(t, `[{"id":"FURNACE","sides":1,"components":[{"type":"source","slots":1},{"type":"smelter","category":"smelting"}]}]`)
	writeRecipes(t, dir, plateRecipe)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected missing output rejection")
	}
}

func TestLoad_AssemblerUnknownRecipe(t *testing.T) {
	dir := writeConfigs(t, `[{"id":"ASM","sides":1,"components":[{"type":"source","slots":1},{"type":"output","slots":1},{"type":"assembler","recipe":"GEAR"}]}]`)
	writeRecipes(t, dir, plateRecipe)
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "GEAR") {
		t.Fatalf("expected unknown recipe error, got %v", err)
	}
}

func TestSuggest(t *testing.T) {
	cands := []string{"COAL", "IRON_ORE", "IRON_PLATE"}
	if got := Suggest("iron_ore", cands); got != "IRON_ORE" {
		t.Fatalf("suggest iron_ore: %q", got)
	}
	if got := Suggest("URANIUM", cands); got != "" {
		t.Fatalf("expected no suggestion, got %q", got)
	}
}
