package game

import (
	"math/rand"
)

var nameAdjectives = []string{
	"Sneaky", "Brave", "Dizzy", "Jolly", "Grumpy", "Swift",
	"Quiet", "Wobbly", "Shiny", "Crafty", "Sleepy", "Bold",
}

var nameNouns = []string{
	"Otter", "Badger", "Falcon", "Walrus", "Gecko", "Panda",
	"Ferret", "Heron", "Moose", "Lynx", "Toucan", "Beaver",
}

// placeholderName builds a two-word display name for players who
// readied up without providing one.
func placeholderName() string {
	return nameAdjectives[rand.Intn(len(nameAdjectives))] + " " + nameNouns[rand.Intn(len(nameNouns))]
}
