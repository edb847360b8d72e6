package game

import (
	"encoding/json"
	"fmt"
)

// Variant selects which attack pattern an activation uses.
type Variant int

const (
	RapidBurst Variant = iota
	PrecisionBeam
	ChainedArc
	HomingSwarm

	NumVariants = 4
)

var variantNames = [NumVariants]string{
	RapidBurst:    "rapid_burst",
	PrecisionBeam: "precision_beam",
	ChainedArc:    "chained_arc",
	HomingSwarm:   "homing_swarm",
}

func (v Variant) String() string {
	if v < 0 || int(v) >= NumVariants {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return variantNames[v]
}

// Valid reports whether v is one of the four defined variants.
func (v Variant) Valid() bool {
	return v >= 0 && int(v) < NumVariants
}

// ParseVariant maps a wire name back to a Variant.
func ParseVariant(s string) (Variant, error) {
	for i, name := range variantNames {
		if s == name {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("unknown variant %q", s)
}

func (v Variant) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Variant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseVariant(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
