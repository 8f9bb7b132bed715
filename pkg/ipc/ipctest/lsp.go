package ipctest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

type message struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  *json.RawMessage `json:"params,omitempty"`
	Result  any              `json:"result,omitempty"`
}

// A language server that reads JSON values from conn until EOF or an "exit"
// notification:
//
//   - Requests are answered with a result holding their method and params.
//   - An "initialize" request is preceded by a window/logMessage
//     notification.
//   - A "workspace/didChangeConfiguration" notification is sent back as a
//     "test/didChangeConfiguration" notification with the same params.
//   - An "exit" notification with params {"code": N} exits with N.
func fakeServer(conn io.ReadWriter) error {
	fmt.Fprintln(os.Stderr, "fake server started")
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var msg message
		if err := dec.Decode(&msg); errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
		fmt.Println("got", msg.Method)

		var err error
		switch {
		case msg.Method == "exit":
			var params struct{ Code int }
			if msg.Params != nil {
				json.Unmarshal(*msg.Params, &params)
			}
			os.Exit(params.Code)
		case msg.Method == "workspace/didChangeConfiguration":
			err = enc.Encode(message{JSONRPC: "2.0", Method: "test/didChangeConfiguration", Params: msg.Params})
		case msg.ID != nil:
			if msg.Method == "initialize" {
				logParams := json.RawMessage(`{"type":3,"message":"fake server ready"}`)
				err = enc.Encode(message{JSONRPC: "2.0", Method: "window/logMessage", Params: &logParams})
				if err != nil {
					return err
				}
			}
			result := map[string]any{"method": msg.Method, "params": msg.Params}
			err = enc.Encode(message{JSONRPC: "2.0", ID: msg.ID, Result: result})
		}
		if err != nil {
			return err
		}
	}
}
