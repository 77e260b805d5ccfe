package rpc

import (
	"fmt"
	"net/rpc"
	"strconv"
	"time"
)

type Client struct {
	client *rpc.Client
}

func NewClient(port int) (*Client, error) {
	var (
		client *rpc.Client
		err    error
	)
	const maxretries = 5
	for i := range maxretries {
		if client, err = rpc.DialHTTP("tcp", ":"+strconv.Itoa(port)); err == nil {
			break
		}
		modRPC.WarnZ("dial tcp failed").Error("err", err).Int("retry", i).End()
		time.Sleep(250 * time.Millisecond)
	}

	if client == nil {
		return nil, fmt.Errorf("dial failed max retries: %v", err)
	}

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	modRPC.DebugZ("closing rpc client").End()
	return c.client.Close()
}

func (c *Client) IsReady() (bool, error)         { return request[bool](c.client, "apu.IsReady", nil) }
func (c *Client) Reset() error                   { return call(c.client, "apu.Reset", nil) }
func (c *Client) SetPause(pause bool) error      { return call(c.client, "apu.SetPause", pause) }
func (c *Client) Rewind(frames int) error        { return call(c.client, "apu.Rewind", frames) }
func (c *Client) TakeSnapshot() ([]byte, error)  { return request[[]byte](c.client, "apu.TakeSnapshot", nil) }
func (c *Client) LoadSnapshot(blob []byte) error { return call(c.client, "apu.LoadSnapshot", blob) }
func (c *Client) Stop() error                    { return call(c.client, "apu.Stop", nil) }

func call(client *rpc.Client, funcname string, args any) error {
	_, err := request[struct{}](client, funcname, args)
	return err
}

func request[T any](client *rpc.Client, funcname string, args any) (T, error) {
	if args == nil {
		args = &struct{}{}
	}
	var reply T
	if err := client.Call(funcname, args, &reply); err != nil {
		modRPC.DebugZ("RPC call failed").String("func", funcname).Error("err", err).End()
		return reply, fmt.Errorf("%s: %w", funcname, err)
	}
	return reply, nil
}
