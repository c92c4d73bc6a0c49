package main

import (
	"log/slog"
	"math/rand"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/heap"
)

// opsPerTick is how many workload operations run between frames.
const opsPerTick = 200

type tickMsg time.Time

// model drives a continuous random workload against a heap and snapshots its
// state for rendering.
type model struct {
	h    *heap.Heap
	rng  *rand.Rand
	refs []heap.Ref

	stats heap.Stats
	bins  heap.BinSnapshot
	segs  int

	paused   bool
	lastErr  error
	audits   int
	trimmed  int64
	width    int
	height   int
}

func newModel() model {
	return model{
		h:   heap.New(nil, nil),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "t":
			n, err := m.h.Trim(0)
			if err != nil {
				m.lastErr = err
			} else {
				m.trimmed += int64(n)
			}
			m.snapshot()
		case "c":
			m.lastErr = m.h.Check()
			m.audits++
		}

	case tickMsg:
		if !m.paused && m.lastErr == nil {
			m.step()
		}
		m.snapshot()
		return m, tick()
	}
	return m, nil
}

// step advances the workload by one frame's worth of operations.
func (m *model) step() {
	for i := 0; i < opsPerTick; i++ {
		// Bias toward allocation until a working set builds up, then churn.
		allocate := len(m.refs) < 200 || m.rng.Intn(2) == 0
		if allocate {
			n := m.rng.Intn(4096)
			if m.rng.Intn(50) == 0 {
				n = m.rng.Intn(200_000)
			}
			ref, _, err := m.h.Allocate(n)
			if err != nil {
				slog.Error("allocate failed", "size", n, "error", err)
				m.lastErr = err
				return
			}
			m.refs = append(m.refs, ref)
		} else {
			i := m.rng.Intn(len(m.refs))
			if err := m.h.Deallocate(m.refs[i]); err != nil {
				slog.Error("deallocate failed", "ref", m.refs[i], "error", err)
				m.lastErr = err
				return
			}
			m.refs[i] = m.refs[len(m.refs)-1]
			m.refs = m.refs[:len(m.refs)-1]
		}
	}
}

func (m *model) snapshot() {
	m.stats = m.h.Stats()
	m.bins = m.h.Bins()
	m.segs = m.h.NumSegments()
}
