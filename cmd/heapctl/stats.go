package main

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap"
)

// printStats renders allocator statistics, grouped and with thousands
// separators for the byte counters.
func printStats(h *heap.Heap) error {
	st := h.Stats()
	if jsonOut {
		return printJSON(st)
	}

	p := message.NewPrinter(language.English)
	p.Printf("Allocations:   %d (%d fast path, %d slow path)\n",
		st.AllocCalls, st.AllocFastPath, st.AllocSlowPath)
	p.Printf("Frees:         %d\n", st.FreeCalls)
	p.Printf("Bytes:         %d allocated, %d freed\n", st.BytesAllocated, st.BytesFreed)
	p.Printf("Arena:         %d growths, %d bytes, %d segment(s)\n",
		st.GrowCalls, st.GrowBytes, h.NumSegments())
	p.Printf("Footprint:     %d bytes (top chunk %d)\n", h.Footprint(), h.TopSize())
	p.Printf("Splits:        %d\n", st.SplitCount)
	p.Printf("Coalesces:     %d forward, %d backward\n", st.CoalesceForward, st.CoalesceBackward)
	p.Printf("Served from:   small=%d tree=%d victim=%d top=%d\n",
		st.SmallBinAllocs, st.TreeBinAllocs, st.DvAllocs, st.TopAllocs)
	if st.TrimCalls > 0 {
		p.Printf("Trims:         %d (%d bytes released)\n", st.TrimCalls, st.TrimBytes)
	}
	return nil
}
