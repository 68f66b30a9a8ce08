package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Pairkeep.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Pairkeep.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Pairkeep.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Organize queues a new organization run.
func (c *Client) Organize(trigger string) (*OrganizeResponse, error) {
	var resp OrganizeResponse
	if err := c.client.Call("Pairkeep.Organize", OrganizeRequest{Trigger: trigger}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunsList retrieves run history, optionally filtered by status.
func (c *Client) RunsList(statuses []string) (*RunsListResponse, error) {
	var resp RunsListResponse
	if err := c.client.Call("Pairkeep.RunsList", RunsListRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunDescribe retrieves a single run with plan and result details.
func (c *Client) RunDescribe(id int64) (*RunDescribeResponse, error) {
	var resp RunDescribeResponse
	if err := c.client.Call("Pairkeep.RunDescribe", RunDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunsRetry resets failed runs to pending. Empty ids means all failed runs.
func (c *Client) RunsRetry(ids []int64) (*RunsRetryResponse, error) {
	var resp RunsRetryResponse
	if err := c.client.Call("Pairkeep.RunsRetry", RunsRetryRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunsClearCompleted removes applied runs from history.
func (c *Client) RunsClearCompleted() (*RunsClearCompletedResponse, error) {
	var resp RunsClearCompletedResponse
	if err := c.client.Call("Pairkeep.RunsClearCompleted", RunsClearCompletedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunsClearAll removes all runs from history.
func (c *Client) RunsClearAll() (*RunsClearAllResponse, error) {
	var resp RunsClearAllResponse
	if err := c.client.Call("Pairkeep.RunsClearAll", RunsClearAllRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GroupingsList retrieves the workspace's groupings.
func (c *Client) GroupingsList() (*GroupingsListResponse, error) {
	var resp GroupingsListResponse
	if err := c.client.Call("Pairkeep.GroupingsList", GroupingsListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExportCalendar writes due-dated items to an ICS file.
func (c *Client) ExportCalendar() (*ExportCalendarResponse, error) {
	var resp ExportCalendarResponse
	if err := c.client.Call("Pairkeep.ExportCalendar", ExportCalendarRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail reads daemon log lines starting at offset. A negative offset
// returns the last limit lines.
func (c *Client) LogTail(offset int64, limit int) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Pairkeep.LogTail", LogTailRequest{Offset: offset, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification asks the daemon to send a test notification.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Pairkeep.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
