package output

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/edviz/edviz/pkg/model"
)

// PrintGraphReport prints a colorized summary of a concept graph: counts,
// dangling links, and dependency cycles between concepts.
func PrintGraphReport(source string, g model.Graph) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("edviz - Concept Graph Report")
	bold.Println("============================")
	fmt.Printf("Source: %s\n", source)
	fmt.Printf("Concepts: %d\n", len(g.Nodes))
	fmt.Printf("Relationships: %d\n", len(g.Links))
	fmt.Println()

	dangling := model.DanglingLinks(g)
	if len(dangling) > 0 {
		red.Println("DANGLING RELATIONSHIPS:")
		for _, link := range dangling {
			yellow.Printf("  %s -> %s", link.Source, link.Target)
			fmt.Printf(" (%s)\n", link.LinkLabel())
		}
		fmt.Println()
	}

	cycles := model.Cycles(g)
	if len(cycles) > 0 {
		red.Println("CYCLES:")
		for _, cycle := range cycles {
			cyan.Printf("  ")
			for i, id := range cycle {
				if i > 0 {
					fmt.Printf(" -> ")
				}
				cyan.Printf("%s", id)
			}
			fmt.Println()
		}
		fmt.Println()
	}

	if len(dangling) == 0 && len(cycles) == 0 {
		green.Println("✓ Graph is well formed: no dangling relationships, no cycles")
	} else {
		yellow.Printf("Summary: %d dangling relationship(s), %d cycle(s)\n", len(dangling), len(cycles))
	}
}
