package main

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// runReport summarizes one invocation for the -report file.
type runReport struct {
	Status       string `cbor:"status"`
	ExitCode     int    `cbor:"exit_code"`
	Instructions int    `cbor:"instructions"`
	Steps        uint64 `cbor:"steps"`
	HeapBytes    uint64 `cbor:"heap_bytes"`
	StackDepth   int    `cbor:"stack_depth"`
	Result       string `cbor:"result,omitempty"`
	Error        string `cbor:"error,omitempty"`
	ElapsedNS    int64  `cbor:"elapsed_ns"`
}

// Report statuses.
const (
	statusOK          = "ok"
	statusFault       = "fault"
	statusLoadError   = "load_error"
	statusOutputError = "output_error"
)

var reportEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("report: failed to create CBOR enc mode: %v", err))
	}
	reportEncMode = em
}

func marshalReport(rep *runReport) ([]byte, error) {
	return reportEncMode.Marshal(rep)
}

func unmarshalReport(data []byte) (*runReport, error) {
	var rep runReport
	if err := cbor.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("report: unmarshal: %w", err)
	}
	return &rep, nil
}

func writeReport(path string, rep *runReport) error {
	data, err := marshalReport(rep)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
