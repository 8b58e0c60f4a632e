package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"memdump/pkg/prowler"
	"memdump/service"
	"net/http"
	"os"
	"time"
)

type Client struct {
	addr    string
	url     string
	timeout time.Duration
	http    *http.Client
}

func NewClient(addr string) (*Client, error) {
	c := &Client{
		addr:    addr,
		url:     fmt.Sprintf("http://%s", addr),
		timeout: time.Second * 30,
	}
	c.http = &http.Client{Timeout: c.timeout}

	if !c.IsExploreServer() {
		return nil, fmt.Errorf("%s is not a explore server", c.addr)
	}
	return c, nil
}

func (c *Client) ReadMemory(addr uint64, size int) ([]byte, error) {
	var b []byte
	err := c.call(&doRequest{
		method: http.MethodGet,
		path:   "/read",
		expr:   readExpr(addr, size),
	}, &b)
	return b, err
}

func (c *Client) Ranges(perms string) ([]prowler.MemoryRegion, error) {
	var ranges []prowler.MemoryRegion
	err := c.call(&doRequest{
		method: http.MethodGet,
		path:   "/ranges",
		expr:   rangesExpr(perms),
	}, &ranges)
	return ranges, err
}

func (c *Client) Info() (*service.ServerInfo, error) {
	info := new(service.ServerInfo)
	err := c.call(&doRequest{
		method: http.MethodGet,
		path:   "/explore",
	}, info)
	return info, err
}

func (c *Client) IsExploreServer() bool {
	if c.addr == "" {
		return false
	}

	resp, err := c.do(&doRequest{
		method: http.MethodGet,
		path:   "/explore",
	})
	if err != nil {
		return false
	}

	return resp.Status == http.StatusOK
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type doRequest struct {
	method string
	path   string
	header http.Header
	expr   string
}

func (c *Client) jsonHeader() http.Header {
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	return header
}

// call performs req and decodes the data of a successful response into out.
func (c *Client) call(req *doRequest, out interface{}) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	if resp.Status != http.StatusOK {
		return service.FromHTTPStatus(resp.Status, resp.Msg)
	}

	return json.Unmarshal(resp.Data, out)
}

func (c *Client) do(req *doRequest) (resp *rawResponse, err error) {
	url := c.url + req.path

	exr := newExpression(req.expr, os.Getpid())
	bs, err := json.Marshal(exr)
	if err != nil {
		return
	}

	bodyReader := bytes.NewReader(bs)
	r, err := http.NewRequest(req.method, url, bodyReader)
	if err != nil {
		return
	}

	if req.header == nil {
		r.Header = c.jsonHeader()
	} else {
		r.Header = req.header
	}

	res, err := c.http.Do(r)
	if err != nil {
		return
	}
	defer res.Body.Close()

	bs, err = io.ReadAll(res.Body)
	if err != nil {
		return
	}

	err = json.Unmarshal(bs, &resp)
	return
}
