package rpc

import (
	"io"
	"net"
	"net/http"
	"net/rpc"
	"strconv"
)

// Core is the remote controlled sound core.
type Core interface {
	Reset()
	SetPause(pause bool)
	Rewind(frames int) error
	TakeSnapshot() ([]byte, error)
	LoadSnapshot(blob []byte) error
	Stop()
}

type coreProxy struct {
	core Core
}

func (cp *coreProxy) Reset(_, _ *struct{}) error                  { cp.core.Reset(); return nil }
func (cp *coreProxy) SetPause(pause bool, _ *struct{}) error      { cp.core.SetPause(pause); return nil }
func (cp *coreProxy) Rewind(frames int, _ *struct{}) error        { return cp.core.Rewind(frames) }
func (cp *coreProxy) LoadSnapshot(blob []byte, _ *struct{}) error { return cp.core.LoadSnapshot(blob) }
func (cp *coreProxy) Stop(_ *struct{}, _ *struct{}) error         { cp.core.Stop(); return nil }

func (cp *coreProxy) TakeSnapshot(_ *struct{}, reply *[]byte) error {
	blob, err := cp.core.TakeSnapshot()
	if err != nil {
		return err
	}
	*reply = blob
	return nil
}

func (cp *coreProxy) IsReady(_ *struct{}, reply *bool) error {
	*reply = true
	return nil
}

type Server struct {
	io.Closer
}

func NewServer(port int, core Core) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("apu", &coreProxy{core: core}); err != nil {
		panic("failed to register RPC server: " + err.Error())
	}
	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, srv)

	l, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return nil, err
	}

	modRPC.InfoZ("rpc server listening").Int("port", port).End()
	go http.Serve(l, mux)
	return &Server{Closer: l}, nil
}
