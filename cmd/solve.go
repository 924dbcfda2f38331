package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/jakeddavis/CPanel/InputParameters"
	"github.com/jakeddavis/CPanel/geometry"
	"github.com/jakeddavis/CPanel/readfiles"
	"github.com/jakeddavis/CPanel/solver"
)

// solveCmd represents the solve command
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run one or more aerodynamic cases from a YAML case file",
	Long: `
Reads a case file, builds the panel graph and influence matrices from the
referenced .tri geometry, and runs one case per freestream velocity.

Example case file:
########################################
geomFile: wing.tri
velocities: [10]
alpha: 5.
beta: 0.
mach: 0.
Sref: 1.
bref: 4.
cref: 0.25
vortexParticles: true
timeStep: 0.05
numSteps: 20
########################################
`,
	Run: func(cmd *cobra.Command, args []string) {
		caseFile, err := cmd.Flags().GetString("caseFile")
		if err != nil {
			panic(err)
		}
		if len(caseFile) == 0 {
			fmt.Println("error: must supply a case file (-I, --caseFile) in YAML format")
			os.Exit(1)
		}
		if prof, _ := cmd.Flags().GetBool("profile"); prof {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		}
		params := processCaseInput(caseFile)
		RunSolve(params)
	},
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringP("caseFile", "I", "", "YAML case file naming the geometry, freestream and run options")
	solveCmd.Flags().BoolP("profile", "p", false, "write a CPU profile for the run")
}

func processCaseInput(caseFile string) (params *InputParameters.CaseParameters) {
	data, err := os.ReadFile(caseFile)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	params = &InputParameters.CaseParameters{}
	if err = params.Parse(data); err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	params.Print()
	return
}

// RunSolve builds the geometry once and runs one case per velocity.
func RunSolve(params *InputParameters.CaseParameters) {
	mesh, err := readfiles.ReadTri(params.GeomFile, true)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}
	geom, err := geometry.NewGeometry(mesh, geometry.Options{
		VortexParticles: params.VortexParticles,
		Dt:              params.TimeStep,
		InputV:          params.Velocities[0],
		NormFlag:        params.NormFlag,
		InfCoeffFile:    params.GeomFile + ".infCoeff",
		WriteCoeffFlag:  params.WriteCoeffFlag,
		Verbose:         true,
	})
	if err != nil {
		fmt.Printf("error: %s\n", err)
		os.Exit(1)
	}

	for _, V := range params.Velocities {
		fmt.Printf("\nRunning case V=%g alpha=%g beta=%g mach=%g\n", V, params.Alpha, params.Beta, params.Mach)
		c := solver.NewCase(geom, V, params.Alpha, params.Beta, params.Mach, params)
		c.Run(true, params.SurfStreamFlag, params.StabDerivFlag, params.VortexParticles)
		fmt.Printf("CL_trefftz = %g, CD_trefftz = %g\n", c.GetCL(), c.GetCD())
		if params.StabDerivFlag {
			fmt.Printf("dF/dAlpha = %v\ndF/dBeta = %v\n", c.DFdAlpha, c.DFdBeta)
			fmt.Printf("dM/dAlpha = %v\ndM/dBeta = %v\n", c.DMdAlpha, c.DMdBeta)
		}
	}
}
