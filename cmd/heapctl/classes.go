package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/layout"
)

func init() {
	rootCmd.AddCommand(newClassesCmd())
}

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Print the allocator size classes",
		Long: `The classes command prints the small-bin size classes and the tree-bin
bucket boundaries, with the request range each class serves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
}

type sizeClass struct {
	Bin       int    `json:"bin"`
	Kind      string `json:"kind"`
	ChunkSize int    `json:"chunkSize,omitempty"`
	MinSize   int    `json:"minSize,omitempty"`
	Usable    int    `json:"usable,omitempty"`
}

func runClasses() error {
	var classes []sizeClass
	for idx := layout.MinChunkSize >> layout.SmallBinShift; idx < layout.NumSmallBins; idx++ {
		size := idx << layout.SmallBinShift
		classes = append(classes, sizeClass{
			Bin:       idx,
			Kind:      "small",
			ChunkSize: size,
			Usable:    size - layout.ChunkOverhead,
		})
	}
	for idx := 0; idx < layout.NumTreeBins; idx++ {
		classes = append(classes, sizeClass{
			Bin:     idx,
			Kind:    "tree",
			MinSize: treeBucketFloor(idx),
		})
	}

	if jsonOut {
		return printJSON(classes)
	}
	fmt.Println("Small bins (exact size):")
	for _, c := range classes {
		if c.Kind != "small" {
			continue
		}
		fmt.Printf("  bin %2d: chunk %3d bytes, usable %3d\n", c.Bin, c.ChunkSize, c.Usable)
	}
	fmt.Println("Tree bins (best fit within bucket):")
	for _, c := range classes {
		if c.Kind != "tree" {
			continue
		}
		fmt.Printf("  bin %2d: chunks >= %d bytes\n", c.Bin, c.MinSize)
	}
	return nil
}

// treeBucketFloor returns the smallest chunk size filed in tree bucket idx.
func treeBucketFloor(idx int) int {
	if idx == 0 {
		return layout.MaxSmallSize
	}
	k := idx >> 1
	base := layout.MaxSmallSize << k
	if idx&1 != 0 {
		base += base >> 1
	}
	return base
}
