package mcpcmder

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/sequencer/api"
	"github.com/papercomputeco/sequencer/cmd/sequencer/style"
	"github.com/papercomputeco/sequencer/pkg/client"
	"github.com/papercomputeco/sequencer/pkg/node"
	"github.com/papercomputeco/sequencer/pkg/pathtree"
)

type pathInput struct {
	Path string `json:"path" jsonschema:"slash delimited state path, / for the root"`
}

type stateOutput struct {
	Path  string `json:"path"`
	Found bool   `json:"found"`
	// Value is hex encoded.
	Value string `json:"value,omitempty"`
	Text  string `json:"text,omitempty"`
}

type subkeysOutput struct {
	Path    string   `json:"path"`
	Subkeys []string `json:"subkeys"`
}

type hashOutput struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

type submitInput struct {
	Operations []string `json:"operations" jsonschema:"hex encoded operations, applied in order"`
}

type submitOutput struct {
	Submitted int `json:"submitted"`
}

type statusInput struct{}

type tools struct {
	client *client.Client
}

func newServer(cl *client.Client, version string) *mcp.Server {
	t := &tools{client: cl}
	server := mcp.NewServer(&mcp.Implementation{Name: "sequencer", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_state",
		Description: "Read the durable value stored at a path of the rollup state. The value is returned hex encoded, with its text when printable.",
	}, t.getState)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_subkeys",
		Description: "List the immediate children of a path of the rollup state in insertion order.",
	}, t.getSubkeys)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "state_hash",
		Description: "Compute the merkle hash of the subtree at a path. Equal state yields equal hashes.",
	}, t.stateHash)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "submit_operations",
		Description: "Submit hex encoded operations to the sequencer. The kernel applies them immediately and they join the pending batch.",
	}, t.submitOperations)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "status",
		Description: "Report the kernel, current level, pending batch size and pipeline counters of the sequencer.",
	}, t.status)

	return server
}

func (t *tools) getState(ctx context.Context, _ *mcp.CallToolRequest, in pathInput) (*mcp.CallToolResult, stateOutput, error) {
	if err := pathtree.Validate(in.Path); err != nil {
		return nil, stateOutput{}, err
	}
	out := stateOutput{Path: in.Path}
	value, err := t.client.GetState(ctx, in.Path)
	switch {
	case errors.Is(err, client.ErrNotFound):
		return nil, out, nil
	case err != nil:
		return nil, stateOutput{}, fmt.Errorf("could not read %s: %w", in.Path, err)
	}
	out.Found = true
	out.Value = hex.EncodeToString(value)
	if style.Printable(value) {
		out.Text = string(value)
	}
	return nil, out, nil
}

func (t *tools) getSubkeys(ctx context.Context, _ *mcp.CallToolRequest, in pathInput) (*mcp.CallToolResult, subkeysOutput, error) {
	if err := pathtree.Validate(in.Path); err != nil {
		return nil, subkeysOutput{}, err
	}
	keys, err := t.client.GetSubkeys(ctx, in.Path)
	if err != nil {
		return nil, subkeysOutput{}, fmt.Errorf("could not list %s: %w", in.Path, err)
	}
	return nil, subkeysOutput{Path: in.Path, Subkeys: keys}, nil
}

func (t *tools) stateHash(ctx context.Context, _ *mcp.CallToolRequest, in pathInput) (*mcp.CallToolResult, hashOutput, error) {
	if err := pathtree.Validate(in.Path); err != nil {
		return nil, hashOutput{}, err
	}
	hash, err := t.client.StateHash(ctx, in.Path)
	if err != nil {
		return nil, hashOutput{}, fmt.Errorf("could not hash %s: %w", in.Path, err)
	}
	return nil, hashOutput{Path: in.Path, Hash: hash}, nil
}

func (t *tools) submitOperations(ctx context.Context, _ *mcp.CallToolRequest, in submitInput) (*mcp.CallToolResult, submitOutput, error) {
	if len(in.Operations) == 0 {
		return nil, submitOutput{}, errors.New("no operations given")
	}
	ops := make([][]byte, len(in.Operations))
	for i, s := range in.Operations {
		op, err := api.DecodeOperation(s)
		if err != nil {
			return nil, submitOutput{}, fmt.Errorf("operation %d is not valid hex: %w", i+1, err)
		}
		ops[i] = op
	}

	var out submitOutput
	for i, op := range ops {
		if err := t.client.Submit(ctx, op); err != nil {
			return nil, out, fmt.Errorf("operation %d was not accepted: %w", i+1, err)
		}
		out.Submitted++
	}
	return nil, out, nil
}

func (t *tools) status(ctx context.Context, _ *mcp.CallToolRequest, _ statusInput) (*mcp.CallToolResult, node.Status, error) {
	status, err := t.client.Status(ctx)
	if err != nil {
		return nil, node.Status{}, fmt.Errorf("could not read status: %w", err)
	}
	return nil, status, nil
}
