package sales

import (
	"math/rand"
	"strings"
)

// Product is one thing the player can be asked to pitch.
type Product struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Catalog is the fixed pool of pitchable products. Deliberately odd items:
// the game is about improvising, not about the product.
var Catalog = []Product{
	{Name: "invisible umbrella", Icon: "☂️"},
	{Name: "solar-powered flashlight", Icon: "🔦"},
	{Name: "left-handed screwdriver", Icon: "🪛"},
	{Name: "waterproof teabag", Icon: "🫖"},
	{Name: "inflatable dartboard", Icon: "🎯"},
	{Name: "glow-in-the-dark sunglasses", Icon: "🕶️"},
	{Name: "silent alarm clock", Icon: "⏰"},
	{Name: "square football", Icon: "⚽"},
	{Name: "pre-melted ice cubes", Icon: "🧊"},
	{Name: "wireless extension cord", Icon: "🔌"},
	{Name: "dehydrated water", Icon: "💧"},
	{Name: "fireproof matches", Icon: "🔥"},
}

// ChooseProducts draws this round's pitch subject: usually a single product,
// sometimes a combo of two or three distinct ones. The split is 70% single,
// 15% pair, 15% triple, drawn without replacement.
func ChooseProducts(r *rand.Rand) []Product {
	count := 1
	switch roll := r.Float64(); {
	case roll < 0.70:
		count = 1
	case roll < 0.85:
		count = 2
	default:
		count = 3
	}

	perm := r.Perm(len(Catalog))
	products := make([]Product, count)
	for i := 0; i < count; i++ {
		products[i] = Catalog[perm[i]]
	}
	return products
}

// ProductName composes the display name sent to the evaluator: product names
// joined by " + ".
func ProductName(products []Product) string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return strings.Join(names, " + ")
}
