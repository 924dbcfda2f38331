package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML case file
type CaseParameters struct {
	GeomFile        string    `yaml:"geomFile"`
	Velocities      []float64 `yaml:"velocities"`
	Alpha           float64   `yaml:"alpha"` // degrees
	Beta            float64   `yaml:"beta"`  // degrees
	Mach            float64   `yaml:"mach"`  // [0,1)
	Sref            float64   `yaml:"Sref"`
	Bref            float64   `yaml:"bref"`
	Cref            float64   `yaml:"cref"`
	CG              []float64 `yaml:"cg"`
	VortexParticles bool      `yaml:"vortexParticles"`
	TimeStep        float64   `yaml:"timeStep"` // seconds; 0 derives one from the TE spacing
	NumSteps        int       `yaml:"numSteps"`
	SurfStreamFlag  bool      `yaml:"surfStreamFlag"`
	StabDerivFlag   bool      `yaml:"stabDerivFlag"`
	WriteCoeffFlag  bool      `yaml:"writeCoeffFlag"`
	NormFlag        bool      `yaml:"normFlag"`

	// Vortex-particle options
	Nu             float64 `yaml:"nu"`             // kinematic viscosity
	Accelerate     *bool   `yaml:"accelerate"`     // Barnes-Hut tree for particle interactions
	StartingWake   *bool   `yaml:"startingWake"`   // starting-wake transient on the far shed edge
	Integrator     string  `yaml:"integrator"`     // AB2 or RK4
	StrengthUpdate string  `yaml:"strengthUpdate"` // none, gaussian or winckelmans
}

func (cp *CaseParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, cp); err != nil {
		return err
	}
	return cp.Validate()
}

func (cp *CaseParameters) Validate() error {
	if cp.GeomFile == "" {
		return fmt.Errorf("geomFile is required")
	}
	if len(cp.Velocities) == 0 {
		return fmt.Errorf("at least one velocity is required")
	}
	if cp.Mach < 0 || cp.Mach >= 1 {
		return fmt.Errorf("mach %g outside [0,1)", cp.Mach)
	}
	if cp.Sref <= 0 || cp.Bref <= 0 || cp.Cref <= 0 {
		return fmt.Errorf("Sref, bref and cref must be positive")
	}
	if cp.CG == nil {
		cp.CG = []float64{0, 0, 0}
	}
	if len(cp.CG) != 3 {
		return fmt.Errorf("cg needs exactly three components")
	}
	if cp.Nu == 0 {
		cp.Nu = 1.983e-5
	}
	if cp.Integrator == "" {
		cp.Integrator = "AB2"
	}
	if cp.Integrator != "AB2" && cp.Integrator != "RK4" {
		return fmt.Errorf("integrator must be AB2 or RK4, got %q", cp.Integrator)
	}
	switch cp.StrengthUpdate {
	case "", "none", "gaussian", "winckelmans":
	default:
		return fmt.Errorf("strengthUpdate must be none, gaussian or winckelmans, got %q", cp.StrengthUpdate)
	}
	return nil
}

// GetAccelerate defaults the Barnes-Hut flag on.
func (cp *CaseParameters) GetAccelerate() bool {
	return cp.Accelerate == nil || *cp.Accelerate
}

// GetStartingWake defaults the starting-wake transient on.
func (cp *CaseParameters) GetStartingWake() bool {
	return cp.StartingWake == nil || *cp.StartingWake
}

func (cp *CaseParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Geometry file\n", cp.GeomFile)
	fmt.Printf("%v\t\t= Velocities\n", cp.Velocities)
	fmt.Printf("%8.5f\t\t= Alpha\n", cp.Alpha)
	fmt.Printf("%8.5f\t\t= Beta\n", cp.Beta)
	fmt.Printf("%8.5f\t\t= Mach\n", cp.Mach)
	fmt.Printf("%8.5f\t\t= Sref\n", cp.Sref)
	fmt.Printf("%8.5f\t\t= bref\n", cp.Bref)
	fmt.Printf("%8.5f\t\t= cref\n", cp.Cref)
	fmt.Printf("[%v]\t\t= Vortex particles\n", cp.VortexParticles)
	fmt.Printf("%8.5f\t\t= Time step\n", cp.TimeStep)
	fmt.Printf("[%d]\t\t\t= Num steps\n", cp.NumSteps)
}
