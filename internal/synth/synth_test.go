package synth

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/treeline-ai/treeline/internal/graph"
	"github.com/treeline-ai/treeline/internal/oracle"
)

// fakeOracle returns scripted responses in order, or a fixed error.
type fakeOracle struct {
	responses []string
	err       error
	calls     int
}

func (f *fakeOracle) Complete(ctx context.Context, req oracle.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("fakeOracle: no scripted response left")
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func smallGraph() *graph.Graph {
	return &graph.Graph{
		Nodes: []graph.Node{
			{ID: "start", Kind: graph.KindStart, Label: "Start"},
			{ID: "q1", Kind: graph.KindQuestion, Label: "Is this an MFA issue?"},
		},
		Edges:    []graph.Edge{{ID: "e1", Source: "start", Target: "q1"}},
		Runbooks: []graph.Runbook{},
	}
}
