package api

import (
	"context"
	"encoding/hex"
	"net/http"

	"github.com/gorilla/rpc/v2"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/papercomputeco/sequencer/pkg/node"
)

// RPCServiceName prefixes every JSON-RPC method, e.g. "rollup.GetState".
const RPCServiceName = "rollup"

// RPCService is the JSON-RPC 2.0 flavour of the HTTP API.
type RPCService struct {
	backend Backend
	config  Config
}

// PathArgs selects a durable path.
type PathArgs struct {
	Path string `json:"path"`
}

// StateReply is the value at a path, hex encoded. Found is false when
// nothing is stored there.
type StateReply struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

// SubkeysReply lists the children of a path.
type SubkeysReply struct {
	Subkeys []string `json:"subkeys"`
}

// SubmitArgs carries a hex encoded operation.
type SubmitArgs struct {
	Data string `json:"data"`
}

// SubmitReply acknowledges a submission.
type SubmitReply struct {
	Message string `json:"message"`
}

// EmptyArgs is used by methods taking no argument.
type EmptyArgs struct{}

func newRPCHandler(backend Backend, config Config) (http.Handler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	if err := server.RegisterService(&RPCService{backend: backend, config: config}, RPCServiceName); err != nil {
		return nil, err
	}
	return server, nil
}

// GetState returns the value stored at args.Path.
func (s *RPCService) GetState(r *http.Request, args *PathArgs, reply *StateReply) error {
	value, ok, err := s.backend.GetState(r.Context(), args.Path)
	if err != nil {
		return err
	}
	reply.Found = ok
	reply.Value = hex.EncodeToString(value)
	return nil
}

// GetSubkeys lists the children of args.Path.
func (s *RPCService) GetSubkeys(r *http.Request, args *PathArgs, reply *SubkeysReply) error {
	keys, err := s.backend.GetSubkeys(r.Context(), args.Path)
	if err != nil {
		return err
	}
	if keys == nil {
		keys = []string{}
	}
	reply.Subkeys = keys
	return nil
}

// SubmitOperation queues the operation in args.Data.
func (s *RPCService) SubmitOperation(r *http.Request, args *SubmitArgs, reply *SubmitReply) error {
	op, err := DecodeOperation(args.Data)
	if err != nil {
		return err
	}

	ctx := r.Context()
	if s.config.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SubmitTimeout)
		defer cancel()
	}
	if err := s.backend.Submit(ctx, op); err != nil {
		return err
	}
	reply.Message = SubmittedMessage
	return nil
}

// Status returns the node counters.
func (s *RPCService) Status(_ *http.Request, _ *EmptyArgs, reply *node.Status) error {
	*reply = s.backend.Status()
	return nil
}
