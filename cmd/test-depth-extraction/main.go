// Test program to demonstrate depth and threat extraction
// This shows the explicit-pattern and habitat-bucket paths working
package main

import (
	"fmt"
	"strings"

	"github.com/lindaliu1/endangered-ocean/internal/depth"
	"github.com/lindaliu1/endangered-ocean/internal/threat"
)

type sample struct {
	name      string
	narrative string
	threats   []string
}

func main() {
	fmt.Println("=== Depth & Threat Extraction Test ===")
	fmt.Println()

	// Narratives in the style of NOAA "Where They Live" sections
	samples := []sample{
		{
			name: "Blue Whale",
			narrative: "Blue whales are found in all oceans except the Arctic. " +
				"They typically feed at depths of less than 100 meters but have been " +
				"recorded diving to 500 meters.",
			threats: []string{"Vessel strikes", "Entanglement in fishing gear", "Ocean noise"},
		},
		{
			name: "White Abalone",
			narrative: "White abalone live on rocky reefs at depths between 80 and 200 feet, " +
				"where they feed on drift algae.",
			threats: []string{"Low population density", "Illegal harvest", "Withering syndrome disease"},
		},
		{
			name: "Staghorn Coral",
			narrative: "Staghorn coral occurs on reef crests and in shallow lagoons " +
				"throughout the Caribbean.",
			threats: []string{"Ocean warming", "Ocean acidification", "Coastal development"},
		},
		{
			name: "Atlantic Salmon",
			narrative: "Atlantic salmon return from the ocean to spawn in freshwater " +
				"rivers along the coast of Maine.",
			threats: []string{"Dams blocking spawning rivers", "Bycatch"},
		},
	}

	extractor := depth.NewExtractor()
	normalizer := threat.NewNormalizer()

	for _, s := range samples {
		fmt.Printf("Species: %s\n", s.name)
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("  Narrative: %s\n", s.narrative)

		est := extractor.Extract(s.narrative)
		if est.HasBounds() {
			fmt.Printf("  ✓ Depth extracted (source: %s)\n", est.Source)
			if est.MinDepthM != nil {
				fmt.Printf("     - Min depth: %d m\n", *est.MinDepthM)
			}
			if est.MaxDepthM != nil {
				fmt.Printf("     - Max depth: %d m\n", *est.MaxDepthM)
			}
		} else {
			fmt.Println("  ✗ No depth information found")
		}

		categories := normalizer.Normalize(s.threats)
		if len(categories) > 0 {
			fmt.Printf("  ✓ Threat categories: %s\n", strings.Join(categories, ", "))
		} else {
			fmt.Println("  ✗ No threats recognized")
		}
		fmt.Println()
	}

	fmt.Println("=== Test Complete ===")
	fmt.Println()
	fmt.Println("Note: explicit depth statements always win over habitat buckets.")
	fmt.Println("Feet are converted to meters and rounded to even.")
}
