package answers

import "wordclash/internal/domain"

// Default returns a Store over the built-in English dictionary. Deployments
// with a larger curated word list load it with Load instead.
func Default() *Store {
	return New(defaultWords, nil)
}

var defaultWords = Dictionary{
	"A": {
		domain.CategoryName:      {"Adam", "Alice", "Anna", "Andrew", "Amir", "Aisha"},
		domain.CategoryVegetable: {"Artichoke", "Asparagus", "Arugula"},
		domain.CategoryFruit:     {"Apple", "Apricot", "Avocado"},
		domain.CategoryCity:      {"Amsterdam", "Athens", "Atlanta", "Ankara"},
		domain.CategoryJob:       {"Actor", "Architect", "Accountant", "Astronaut"},
		domain.CategoryAnimal:    {"Antelope", "Alligator", "Ant", "Armadillo"},
		domain.CategoryInanimate: {"Anchor", "Anvil", "Axe", "Album"},
	},
	"B": {
		domain.CategoryName:      {"Ben", "Bella", "Brian", "Bianca", "Bruno"},
		domain.CategoryVegetable: {"Broccoli", "Beet", "Bell pepper", "Brussels sprout"},
		domain.CategoryFruit:     {"Banana", "Blueberry", "Blackberry"},
		domain.CategoryCity:      {"Berlin", "Boston", "Bangkok", "Barcelona"},
		domain.CategoryJob:       {"Baker", "Barber", "Butcher", "Banker"},
		domain.CategoryAnimal:    {"Bear", "Bat", "Buffalo", "Badger"},
		domain.CategoryInanimate: {"Bottle", "Brush", "Bucket", "Bell"},
	},
	"C": {
		domain.CategoryName:      {"Carlos", "Clara", "Chris", "Celine"},
		domain.CategoryVegetable: {"Carrot", "Cabbage", "Cauliflower", "Celery", "Cucumber"},
		domain.CategoryFruit:     {"Cherry", "Coconut", "Cranberry"},
		domain.CategoryCity:      {"Cairo", "Chicago", "Copenhagen", "Casablanca"},
		domain.CategoryJob:       {"Carpenter", "Chef", "Chemist", "Coach"},
		domain.CategoryAnimal:    {"Cat", "Camel", "Cheetah", "Cobra", "Crab"},
		domain.CategoryInanimate: {"Chair", "Clock", "Candle", "Cup"},
	},
	"D": {
		domain.CategoryName:      {"David", "Diana", "Daniel", "Dina"},
		domain.CategoryVegetable: {"Daikon", "Dill"},
		domain.CategoryFruit:     {"Date", "Dragonfruit", "Durian"},
		domain.CategoryCity:      {"Dublin", "Dubai", "Denver", "Dakar"},
		domain.CategoryJob:       {"Doctor", "Dentist", "Driver", "Designer"},
		domain.CategoryAnimal:    {"Dog", "Dolphin", "Deer", "Donkey", "Duck"},
		domain.CategoryInanimate: {"Desk", "Door", "Drum", "Dish"},
	},
	"E": {
		domain.CategoryName:      {"Emma", "Eric", "Elena", "Ethan"},
		domain.CategoryVegetable: {"Eggplant", "Endive", "Escarole"},
		domain.CategoryFruit:     {"Elderberry"},
		domain.CategoryCity:      {"Edinburgh", "Essen"},
		domain.CategoryJob:       {"Engineer", "Electrician", "Editor", "Economist"},
		domain.CategoryAnimal:    {"Elephant", "Eagle", "Eel", "Emu"},
		domain.CategoryInanimate: {"Envelope", "Easel", "Eraser", "Engine"},
	},
	"F": {
		domain.CategoryName:      {"Frank", "Fiona", "Felix", "Fatima"},
		domain.CategoryVegetable: {"Fennel", "Fava bean"},
		domain.CategoryFruit:     {"Fig"},
		domain.CategoryCity:      {"Florence", "Frankfurt", "Fresno"},
		domain.CategoryJob:       {"Farmer", "Firefighter", "Florist", "Fisherman"},
		domain.CategoryAnimal:    {"Fox", "Frog", "Falcon", "Ferret", "Flamingo"},
		domain.CategoryInanimate: {"Fork", "Fence", "Flag", "Fan"},
	},
	"G": {
		domain.CategoryName:      {"George", "Grace", "Gina", "Gabriel"},
		domain.CategoryVegetable: {"Garlic", "Ginger", "Green bean"},
		domain.CategoryFruit:     {"Grape", "Grapefruit", "Guava", "Gooseberry"},
		domain.CategoryCity:      {"Geneva", "Glasgow", "Guadalajara"},
		domain.CategoryJob:       {"Gardener", "Geologist", "Guard", "Guide"},
		domain.CategoryAnimal:    {"Giraffe", "Goat", "Gorilla", "Goose"},
		domain.CategoryInanimate: {"Glass", "Guitar", "Globe", "Gate"},
	},
	"H": {
		domain.CategoryName:      {"Hannah", "Henry", "Hassan", "Helen"},
		domain.CategoryVegetable: {"Horseradish", "Habanero"},
		domain.CategoryFruit:     {"Honeydew", "Huckleberry"},
		domain.CategoryCity:      {"Helsinki", "Houston", "Hanoi", "Havana"},
		domain.CategoryJob:       {"Historian", "Hairdresser", "Hunter"},
		domain.CategoryAnimal:    {"Horse", "Hamster", "Hawk", "Hippo", "Hedgehog"},
		domain.CategoryInanimate: {"Hammer", "Helmet", "Hook", "Harp"},
	},
	"L": {
		domain.CategoryName:      {"Liam", "Lucy", "Leo", "Laura", "Lina"},
		domain.CategoryVegetable: {"Lettuce", "Leek", "Lentil"},
		domain.CategoryFruit:     {"Lemon", "Lime", "Lychee"},
		domain.CategoryCity:      {"London", "Lisbon", "Lima", "Lagos"},
		domain.CategoryJob:       {"Lawyer", "Librarian", "Locksmith", "Lifeguard"},
		domain.CategoryAnimal:    {"Lion", "Lizard", "Llama", "Lobster", "Leopard"},
		domain.CategoryInanimate: {"Lamp", "Ladder", "Lock", "Laptop"},
	},
	"M": {
		domain.CategoryName:      {"Maria", "Mike", "Mona", "Marco", "Maya"},
		domain.CategoryVegetable: {"Mushroom", "Mustard greens"},
		domain.CategoryFruit:     {"Mango", "Melon", "Mandarin", "Mulberry"},
		domain.CategoryCity:      {"Madrid", "Moscow", "Mumbai", "Miami", "Manila"},
		domain.CategoryJob:       {"Mechanic", "Musician", "Miner", "Manager"},
		domain.CategoryAnimal:    {"Monkey", "Mouse", "Moose", "Mole"},
		domain.CategoryInanimate: {"Mirror", "Mug", "Magnet", "Map"},
	},
	"P": {
		domain.CategoryName:      {"Peter", "Paula", "Pablo", "Priya"},
		domain.CategoryVegetable: {"Potato", "Pea", "Pumpkin", "Pepper", "Parsnip"},
		domain.CategoryFruit:     {"Peach", "Pear", "Pineapple", "Plum", "Papaya"},
		domain.CategoryCity:      {"Paris", "Prague", "Perth", "Phoenix"},
		domain.CategoryJob:       {"Pilot", "Plumber", "Painter", "Pharmacist"},
		domain.CategoryAnimal:    {"Panda", "Penguin", "Parrot", "Pig", "Panther"},
		domain.CategoryInanimate: {"Pen", "Piano", "Pillow", "Plate"},
	},
	"R": {
		domain.CategoryName:      {"Ryan", "Rosa", "Rachel", "Roberto"},
		domain.CategoryVegetable: {"Radish", "Rhubarb", "Romaine"},
		domain.CategoryFruit:     {"Raspberry", "Raisin"},
		domain.CategoryCity:      {"Rome", "Rio de Janeiro", "Riyadh", "Rotterdam"},
		domain.CategoryJob:       {"Reporter", "Researcher", "Referee"},
		domain.CategoryAnimal:    {"Rabbit", "Raccoon", "Rhino", "Raven"},
		domain.CategoryInanimate: {"Radio", "Ruler", "Rope", "Ring"},
	},
	"S": {
		domain.CategoryName:      {"Sam", "Sara", "Sofia", "Stefan", "Selim"},
		domain.CategoryVegetable: {"Spinach", "Squash", "Shallot", "Sweet potato"},
		domain.CategoryFruit:     {"Strawberry", "Starfruit"},
		domain.CategoryCity:      {"Seoul", "Sydney", "Seattle", "Stockholm", "Santiago"},
		domain.CategoryJob:       {"Surgeon", "Scientist", "Singer", "Sailor", "Soldier"},
		domain.CategoryAnimal:    {"Snake", "Shark", "Sheep", "Squirrel", "Seal"},
		domain.CategoryInanimate: {"Spoon", "Scissors", "Shelf", "Stove"},
	},
	"T": {
		domain.CategoryName:      {"Tom", "Tina", "Tariq", "Teresa"},
		domain.CategoryVegetable: {"Tomato", "Turnip", "Taro"},
		domain.CategoryFruit:     {"Tangerine"},
		domain.CategoryCity:      {"Tokyo", "Toronto", "Tehran", "Tunis"},
		domain.CategoryJob:       {"Teacher", "Tailor", "Translator", "Therapist"},
		domain.CategoryAnimal:    {"Tiger", "Turtle", "Toucan", "Tarantula"},
		domain.CategoryInanimate: {"Table", "Telescope", "Towel", "Torch"},
	},
}
