package main

import (
	"fmt"
	"strconv"

	"glmctl/internal/ipc"
)

// send issues a fire-and-forget request to the daemon.
func (c *commandContext) send(reqType string, payload any) error {
	req, err := ipc.NewRequest(reqType, payload)
	if err != nil {
		return err
	}
	_, err = ipc.Call(c.socketPath(), req)
	return err
}

// fetch issues a request and decodes the response data into a typed value.
func (c *commandContext) fetch(reqType string, payload, into any) error {
	req, err := ipc.NewRequest(reqType, payload)
	if err != nil {
		return err
	}
	return ipc.CallInto(c.socketPath(), req, into)
}

func parseFloatArg(name, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected a number", name, value)
	}
	return f, nil
}

func parseAddressArg(value string) (int, error) {
	addr, err := strconv.Atoi(value)
	if err != nil || addr < 0 {
		return 0, fmt.Errorf("invalid monitor address %q: expected a non-negative integer", value)
	}
	return addr, nil
}
