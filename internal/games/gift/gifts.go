package gift

import "math/rand"

// Gift is one present the AI can hand over.
type Gift struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Catalog is the fixed pool of gifts, one per week of the year.
var Catalog = []Gift{
	{Name: "a teddy bear", Icon: "🧸"},
	{Name: "a bouquet of flowers", Icon: "💐"},
	{Name: "a box of chocolates", Icon: "🍫"},
	{Name: "a toy robot", Icon: "🤖"},
	{Name: "a skateboard", Icon: "🛹"},
	{Name: "a pair of roller skates", Icon: "🛼"},
	{Name: "a kite", Icon: "🪁"},
	{Name: "a jigsaw puzzle", Icon: "🧩"},
	{Name: "a board game", Icon: "🎲"},
	{Name: "a deck of cards", Icon: "🃏"},
	{Name: "a yo-yo", Icon: "🪀"},
	{Name: "a music box", Icon: "🎵"},
	{Name: "a harmonica", Icon: "🎶"},
	{Name: "a ukulele", Icon: "🎸"},
	{Name: "a snow globe", Icon: "❄️"},
	{Name: "a candle", Icon: "🕯️"},
	{Name: "a scarf", Icon: "🧣"},
	{Name: "a pair of mittens", Icon: "🧤"},
	{Name: "a woolly hat", Icon: "🎩"},
	{Name: "a pair of socks", Icon: "🧦"},
	{Name: "a backpack", Icon: "🎒"},
	{Name: "a water bottle", Icon: "🍶"},
	{Name: "a picnic basket", Icon: "🧺"},
	{Name: "a telescope", Icon: "🔭"},
	{Name: "a microscope", Icon: "🔬"},
	{Name: "a magnifying glass", Icon: "🔍"},
	{Name: "a compass", Icon: "🧭"},
	{Name: "a world map", Icon: "🗺️"},
	{Name: "a camera", Icon: "📷"},
	{Name: "a photo album", Icon: "📔"},
	{Name: "a diary with a lock", Icon: "📖"},
	{Name: "a fountain pen", Icon: "🖋️"},
	{Name: "a set of paints", Icon: "🎨"},
	{Name: "a sketchbook", Icon: "📓"},
	{Name: "a pack of crayons", Icon: "🖍️"},
	{Name: "a mug with your name on it", Icon: "☕"},
	{Name: "a jar of honey", Icon: "🍯"},
	{Name: "a basket of strawberries", Icon: "🍓"},
	{Name: "a pineapple", Icon: "🍍"},
	{Name: "a coconut", Icon: "🥥"},
	{Name: "a cactus in a tiny pot", Icon: "🌵"},
	{Name: "a bonsai tree", Icon: "🌳"},
	{Name: "a sunflower", Icon: "🌻"},
	{Name: "a four-leaf clover", Icon: "🍀"},
	{Name: "a seashell", Icon: "🐚"},
	{Name: "a pet goldfish", Icon: "🐠"},
	{Name: "a rubber duck", Icon: "🦆"},
	{Name: "a paper boat", Icon: "⛵"},
	{Name: "a model airplane", Icon: "✈️"},
	{Name: "a hot air balloon ride", Icon: "🎈"},
	{Name: "a treasure chest", Icon: "🪙"},
	{Name: "a magic wand", Icon: "🪄"},
}

// RandomGift draws one gift from the catalog.
func RandomGift(r *rand.Rand) Gift {
	return Catalog[r.Intn(len(Catalog))]
}
