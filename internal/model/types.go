package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// SensorCode is what a robot sensor reports about an adjacent cell.
type SensorCode int

const (
	SensorEmpty SensorCode = iota
	SensorWall
	SensorBattery
	// SensorCorrupt doubles as the "don't care" code a rule can expect. It
	// only matches when a sensor actually reports it.
	SensorCorrupt
)

// SensorCodeCount is the number of distinct sensor codes.
const SensorCodeCount = 4

func (c SensorCode) Valid() bool {
	return c >= SensorEmpty && c <= SensorCorrupt
}

func (c SensorCode) String() string {
	switch c {
	case SensorEmpty:
		return "empty"
	case SensorWall:
		return "wall"
	case SensorBattery:
		return "battery"
	case SensorCorrupt:
		return "corrupt"
	default:
		return "invalid"
	}
}

// Action is the move a rule fires.
type Action int

const (
	ActionNorth Action = iota
	ActionSouth
	ActionEast
	ActionWest
	ActionRandom
)

// ActionCount is the number of distinct actions.
const ActionCount = 5

func (a Action) Valid() bool {
	return a >= ActionNorth && a <= ActionRandom
}

func (a Action) String() string {
	switch a {
	case ActionNorth:
		return "north"
	case ActionSouth:
		return "south"
	case ActionEast:
		return "east"
	case ActionWest:
		return "west"
	case ActionRandom:
		return "random"
	default:
		return "invalid"
	}
}

// Direction indexes both sensors and rule conditions in N, S, E, W order.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists every direction in sensor order.
var Directions = [4]Direction{North, South, East, West}

// Action returns the fixed move action for the direction.
func (d Direction) Action() Action {
	return Action(d)
}

// Position is a (row, col) cell coordinate. Row 0 is the northern edge.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Step returns the adjacent position in direction d without bounds checks.
func (p Position) Step(d Direction) Position {
	switch d {
	case North:
		return Position{Row: p.Row - 1, Col: p.Col}
	case South:
		return Position{Row: p.Row + 1, Col: p.Col}
	case East:
		return Position{Row: p.Row, Col: p.Col + 1}
	case West:
		return Position{Row: p.Row, Col: p.Col - 1}
	default:
		return p
	}
}

// SensorReadings is one N, S, E, W snapshot.
type SensorReadings [4]SensorCode

// Rule is a condition on all four sensors plus the action fired on match.
type Rule struct {
	Condition SensorReadings `json:"condition"`
	Action    Action         `json:"action"`
}

// Genome is the ordered rule list of a robot. The last rule is the fallback.
type Genome struct {
	VersionedRecord
	ID    string `json:"id"`
	Rules []Rule `json:"rules"`
}

type GenerationDiagnostics struct {
	Generation          int     `json:"generation"`
	BestFitness         float64 `json:"best_fitness"`
	MeanFitness         float64 `json:"mean_fitness"`
	MinFitness          float64 `json:"min_fitness"`
	StdDevFitness       float64 `json:"stddev_fitness"`
	OldestSurvivor      int     `json:"oldest_survivor"`
	GenomeDiversity     int     `json:"genome_diversity"`
	TotalSteps          int     `json:"total_steps"`
	BatteriesAvailable  int     `json:"batteries_available"`
	BatteriesCollected  int     `json:"batteries_collected"`
	PopulationSize      int     `json:"population_size"`
	SurvivorsRetained   int     `json:"survivors_retained"`
	OffspringBred       int     `json:"offspring_bred"`
	ChampionFingerprint string  `json:"champion_fingerprint,omitempty"`
}

type TopGenomeRecord struct {
	VersionedRecord
	Rank                int     `json:"rank"`
	Fitness             float64 `json:"fitness"`
	GenerationsSurvived int     `json:"generations_survived"`
	Genome              Genome  `json:"genome"`
}

// RunRecord is the report kept for a finished run. It is never used to
// resume a simulation.
type RunRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	Scape          string  `json:"scape"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	Seed           int64   `json:"seed"`
	PopulationSize int     `json:"population_size"`
	SurvivorCount  int     `json:"survivor_count"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutation_rate"`
	CorruptionRate float64 `json:"corruption_rate"`
	Rows           int     `json:"rows"`
	Cols           int     `json:"cols"`
	Batteries      int     `json:"batteries"`
	OldestSurvivor int     `json:"oldest_survivor"`
	FinalAverage   float64 `json:"final_average"`
	BestHarvest    float64 `json:"best_harvest"`
}

type ScapeSummary struct {
	VersionedRecord
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BestFitness float64 `json:"best_fitness"`
}
