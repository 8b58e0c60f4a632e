package http

import "encoding/json"

type request struct {
	requestID string
	method    string
	url       string
	body      []byte
	clientIP  string
	path      string
}

type response struct {
	Status int         `json:"status"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data"`
}

// rawResponse is response as a client sees it, with Data left undecoded.
type rawResponse struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}
