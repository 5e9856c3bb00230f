// Package cardkinds registers the server's driver-backed card kinds with
// the node factory's CardBuilder registry. Importing this package for
// its side effect (the init below) is what lets a configuration document
// name "modbus" as a card kind without src/fxt/node importing
// goburrow/modbus itself.
package cardkinds

import (
	"encoding/json"
	"fmt"
	"time"

	"jasper-mate-utils/src/fxt/card"
	"jasper-mate-utils/src/fxt/card/modbusio"
	"jasper-mate-utils/src/fxt/node"
)

// modbusConfig is the JSON shape of a "modbus" CardSpec's config blob.
type modbusConfig struct {
	PortName       string `json:"portName"`
	BaudRate       int    `json:"baudRate"`
	DataBits       int    `json:"dataBits"`
	Parity         string `json:"parity"`
	StopBits       int    `json:"stopBits"`
	SlaveID        byte   `json:"slaveId"`
	TimeoutMS      int    `json:"timeoutMs"`
	OperationDelayMS int  `json:"operationDelayMs"`
	DiscreteCount  int    `json:"discreteCount"`
	CoilCount      int    `json:"coilCount"`
	HoldingCount   int    `json:"holdingCount"`
}

func (c modbusConfig) toDriverConfig() modbusio.Config {
	timeout := time.Duration(c.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return modbusio.Config{
		PortName:       c.PortName,
		BaudRate:       c.BaudRate,
		DataBits:       c.DataBits,
		Parity:         c.Parity,
		StopBits:       c.StopBits,
		SlaveID:        c.SlaveID,
		Timeout:        timeout,
		OperationDelay: time.Duration(c.OperationDelayMS) * time.Millisecond,
		DiscreteCount:  c.DiscreteCount,
		CoilCount:      c.CoilCount,
		HoldingCount:   c.HoldingCount,
	}
}

func init() {
	node.RegisterCardKind("modbus", func(base *card.Base, raw json.RawMessage) (card.Card, error) {
		var cfg modbusConfig
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return nil, fmt.Errorf("cardkinds: modbus config: %w", err)
			}
		}
		if cfg.PortName == "" {
			return nil, fmt.Errorf("cardkinds: modbus config: portName is required")
		}
		return modbusio.NewCard(base, cfg.toDriverConfig()), nil
	})
}
