package economy

import "github.com/talgya/sociokernel/internal/region"

// StartConditionProfile parameterizes the initial economic state of a
// fresh kernel (§6 Configuration: "Start-condition profiles differ in
// base development, development jitter, default economic system,
// per-good endowment multipliers, wealth log-mean/std, productivity
// mean/std"). Values grounded on the reference Economy module's
// StartConditionProfile table.
type StartConditionProfile struct {
	EndowmentMultiplier [region.NumGoods]float64
	BaseDevelopment     float64
	DevelopmentJitter   float64
	DefaultSystem       region.System
	WealthLogMean       float64
	WealthLogStd        float64
	ProductivityMean    float64
	ProductivityStd     float64
}

// Profiles is the compiled set of named start conditions. An unknown name
// falls back to "baseline" with a logged warning (§7).
var Profiles = map[string]StartConditionProfile{
	"baseline": {
		EndowmentMultiplier: [region.NumGoods]float64{1.0, 1.0, 1.0, 0.85, 0.95},
		BaseDevelopment:     0.8,
		DevelopmentJitter:   0.25,
		DefaultSystem:       region.Mixed,
		WealthLogMean:       0.1,
		WealthLogStd:        0.65,
		ProductivityMean:    1.0,
		ProductivityStd:     0.25,
	},
	"postscarcity": {
		EndowmentMultiplier: [region.NumGoods]float64{1.2, 1.1, 1.05, 1.35, 1.45},
		BaseDevelopment:     2.4,
		DevelopmentJitter:   0.15,
		DefaultSystem:       region.Cooperative,
		WealthLogMean:       0.3,
		WealthLogStd:        0.35,
		ProductivityMean:    1.2,
		ProductivityStd:     0.2,
	},
	"feudal": {
		EndowmentMultiplier: [region.NumGoods]float64{1.4, 0.6, 0.4, 0.2, 0.25},
		BaseDevelopment:     0.35,
		DevelopmentJitter:   0.08,
		DefaultSystem:       region.Feudal,
		WealthLogMean:       -0.7,
		WealthLogStd:        1.05,
		ProductivityMean:    0.75,
		ProductivityStd:     0.35,
	},
	"industrial": {
		EndowmentMultiplier: [region.NumGoods]float64{0.9, 1.25, 1.35, 0.9, 0.95},
		BaseDevelopment:     1.4,
		DevelopmentJitter:   0.30,
		DefaultSystem:       region.Market,
		WealthLogMean:       0.15,
		WealthLogStd:        0.55,
		ProductivityMean:    1.1,
		ProductivityStd:     0.35,
	},
	"crisis": {
		EndowmentMultiplier: [region.NumGoods]float64{0.65, 0.7, 0.75, 0.55, 0.6},
		BaseDevelopment:     0.6,
		DevelopmentJitter:   0.2,
		DefaultSystem:       region.Mixed,
		WealthLogMean:       -0.2,
		WealthLogStd:        0.9,
		ProductivityMean:    0.9,
		ProductivityStd:     0.4,
	},
}

// Resolve looks up a profile by name, falling back to baseline. ok is
// false when name was unrecognized (caller should log a warning, §7).
func Resolve(name string) (StartConditionProfile, bool) {
	if p, found := Profiles[name]; found {
		return p, true
	}
	return Profiles["baseline"], false
}

// Base per-capita subsistence needs for each good, used to derive
// essential cost and hardship. Luxury has no subsistence requirement.
var BaseSubsistence = [region.NumGoods]float64{
	region.Food:     0.7,
	region.Energy:   0.35,
	region.Tools:    0.2,
	region.Luxury:   0.0,
	region.Services: 0.15,
}

const (
	DevelopmentGrowthRate = 0.01
	DevelopmentDecayRate  = 0.005
	SpecializationRate    = 0.001
	PriceAdjustmentRate   = 0.05
	BaseTransportCost     = 0.02
	TradeDiffusionKappa   = 0.15
)
