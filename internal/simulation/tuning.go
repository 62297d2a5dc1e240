package simulation

// Tuning holds the AI and movement constants. Rates are per simulated second.
type Tuning struct {
	DecisionInterval float64 `json:"decision_interval"`
	AvoidanceRadius  float64 `json:"avoidance_radius"`
	ReachDistance    float64 `json:"reach_distance"`
	OvertakeRadius   float64 `json:"overtake_radius"`
	OvertakeConeDeg  float64 `json:"overtake_cone_deg"` // half-angle
	OvertakeForward  float64 `json:"overtake_forward"`  // forward bias of the bypass vector
	PushCoefficient  float64 `json:"push_coefficient"`
	AvoidanceWeight  float64 `json:"avoidance_weight"`
	OvertakeWeight   float64 `json:"overtake_weight"`

	BlendRate        float64 `json:"blend_rate"`
	DecayRate        float64 `json:"decay_rate"`
	DirectionEpsilon float64 `json:"direction_epsilon"`
	MovingEpsilon    float64 `json:"moving_epsilon"`

	DrainRate         float64 `json:"drain_rate"`
	RecoveryRate      float64 `json:"recovery_rate"`
	RecoveryThreshold float64 `json:"recovery_threshold"` // fraction of max health
	ExhaustedSpeed    float64 `json:"exhausted_speed"`    // multiplier on resting speed
}

func DefaultTuning() Tuning {
	return Tuning{
		DecisionInterval:  0.05,
		AvoidanceRadius:   1.5,
		ReachDistance:     4,
		OvertakeRadius:    3,
		OvertakeConeDeg:   45,
		OvertakeForward:   0.3,
		PushCoefficient:   0.05,
		AvoidanceWeight:   0.5,
		OvertakeWeight:    0.8,
		BlendRate:         5,
		DecayRate:         3,
		DirectionEpsilon:  0.1,
		MovingEpsilon:     0.1,
		DrainRate:         5,
		RecoveryRate:      10,
		RecoveryThreshold: 0.5,
		ExhaustedSpeed:    0.5,
	}
}

// withDefaults fills zero fields so a partially specified Tuning stays usable.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t == (Tuning{}) {
		return d
	}
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.DecisionInterval, d.DecisionInterval)
	fill(&t.AvoidanceRadius, d.AvoidanceRadius)
	fill(&t.ReachDistance, d.ReachDistance)
	fill(&t.OvertakeRadius, d.OvertakeRadius)
	fill(&t.OvertakeConeDeg, d.OvertakeConeDeg)
	fill(&t.PushCoefficient, d.PushCoefficient)
	fill(&t.BlendRate, d.BlendRate)
	fill(&t.DecayRate, d.DecayRate)
	fill(&t.DirectionEpsilon, d.DirectionEpsilon)
	fill(&t.MovingEpsilon, d.MovingEpsilon)
	fill(&t.DrainRate, d.DrainRate)
	fill(&t.RecoveryRate, d.RecoveryRate)
	fill(&t.RecoveryThreshold, d.RecoveryThreshold)
	fill(&t.ExhaustedSpeed, d.ExhaustedSpeed)
	// weights and forward bias may legitimately be zero
	return t
}
