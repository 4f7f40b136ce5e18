package random

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

// DefaultDescriptions are the description prefixes a report is built from.
// The country code and a trailing period are appended to the chosen prefix.
var DefaultDescriptions = []string{
	"Reporte del clima actual en ",
	"Condiciones meteorológicas para ",
	"Estado del tiempo en ",
	"Pronóstico a corto plazo para ",
}

type GeneratorConfig struct {
	Countries    []string              `yaml:"countries"`
	Descriptions []string              `yaml:"descriptions"`
	Weights      map[model.Weather]int `yaml:"weights"`
	Seed         int64                 `yaml:"seed"`
}

type RandomGenerator struct {
	mu           sync.Mutex
	rnd          *rand.Rand
	countries    []string
	descriptions []string
	weights      map[model.Weather]int
}

func NewRandomGenerator(cfg GeneratorConfig) *RandomGenerator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	countries := cfg.Countries
	if len(countries) == 0 {
		countries = model.Countries
	}

	descriptions := cfg.Descriptions
	if len(descriptions) == 0 {
		descriptions = DefaultDescriptions
	}

	return &RandomGenerator{
		rnd:          rand.New(rand.NewSource(seed)),
		countries:    countries,
		descriptions: descriptions,
		weights:      cfg.Weights,
	}
}

// SetWeights replaces the weather weights. An empty map restores uniform sampling.
func (rg *RandomGenerator) SetWeights(weights map[model.Weather]int) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	rg.weights = weights
}

func (rg *RandomGenerator) calculateTotalWeight() int {
	sum := 0

	for _, weather := range model.Weathers {
		if w := rg.weights[weather]; w > 0 {
			sum += w
		}
	}

	return sum
}

func (rg *RandomGenerator) pickWeather() model.Weather {
	weightsSum := rg.calculateTotalWeight()
	if weightsSum == 0 {
		return model.Weathers[rg.rnd.Intn(len(model.Weathers))]
	}

	randomPick := rg.rnd.Intn(weightsSum)

	currentSum := 0
	for _, weather := range model.Weathers {
		if w := rg.weights[weather]; w > 0 {
			currentSum += w
			if randomPick < currentSum {
				return weather
			}
		}
	}

	return model.Sunny
}

func (rg *RandomGenerator) Generate() model.Report {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	country := rg.countries[rg.rnd.Intn(len(rg.countries))]
	weather := rg.pickWeather()
	base := rg.descriptions[rg.rnd.Intn(len(rg.descriptions))]

	return model.Report{
		Description: base + country + ".",
		Country:     country,
		Weather:     weather,
	}
}
