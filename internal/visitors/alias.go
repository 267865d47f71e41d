package visitors

import "hash/fnv"

var aliasAdjectives = []string{
	"Amber", "Azure", "Bold", "Breezy", "Bright", "Calm", "Candid", "Cheerful", "Clever", "Cosmic",
	"Crimson", "Curious", "Daring", "Dusky", "Eager", "Electric", "Fancy", "Fearless", "Gentle", "Golden",
	"Graceful", "Happy", "Hidden", "Humble", "Jolly", "Keen", "Lively", "Lucky", "Lunar", "Mellow",
	"Misty", "Modest", "Noble", "Nimble", "Patient", "Polished", "Quiet", "Radiant", "Rapid", "Restless",
	"Rustic", "Serene", "Silent", "Silver", "Sleepy", "Sly", "Solar", "Steady", "Sunny", "Swift",
	"Tidy", "Velvet", "Vivid", "Wandering", "Warm", "Witty", "Wise", "Young", "Zealous", "Zesty",
}

var aliasAnimals = []string{
	"Albatross", "Badger", "Bison", "Camel", "Cheetah", "Cobra", "Crane", "Dingo", "Dolphin", "Falcon",
	"Ferret", "Finch", "Gazelle", "Gecko", "Heron", "Ibex", "Iguana", "Jackal", "Jaguar", "Koala",
	"Lemur", "Lynx", "Marmot", "Mongoose", "Narwhal", "Ocelot", "Orca", "Osprey", "Otter", "Panther",
	"Pelican", "Puffin", "Quokka", "Raven", "Salmon", "Seal", "Sparrow", "Stork", "Tapir", "Toucan",
	"Turtle", "Viper", "Vulture", "Walrus", "Weasel", "Wombat", "Yak", "Zebra",
}

// VisitorAlias returns a stable, human-friendly display name for a fingerprint.
func VisitorAlias(fingerprint string) string {
	h := fnv.New32a()
	h.Write([]byte(fingerprint))
	index := int(h.Sum32())

	adjIndex := index % len(aliasAdjectives)
	animalIndex := (index / len(aliasAdjectives)) % len(aliasAnimals)

	return aliasAdjectives[adjIndex] + " " + aliasAnimals[animalIndex]
}
