package modem

import (
	"context"
	"fmt"

	"i4.energy/across/gsmat/at"
	"i4.energy/across/gsmat/gsm"
)

// ScanOperators runs a network survey and fills ops with the
// operators the device reports, up to len(ops). It returns the number
// of entries written.
//
// The scan report is a single line that can outgrow any fixed line
// buffer, so its bytes are handed to the scanner as they arrive
// instead of being collected into a line first. A survey can take the
// better part of a minute on most modules, so pass a generous context.
func (m *Modem) ScanOperators(ctx context.Context, ops []gsm.Operator) (int, error) {
	sc := gsm.NewOperatorScanner(ops)
	sc.Reset()

	if _, err := m.execStream(ctx, at.CmdOperatorScan, scanReportFilter(sc.Feed)); err != nil {
		return 0, fmt.Errorf("AT+COPS=? command failed: %w", err)
	}
	return sc.Count(), nil
}

// scanReportFilter passes through only the bytes of lines carrying
// the operator scan prefix, so URC lines interleaved with the scan
// report cannot disturb the scanner state.
func scanReportFilter(sink func(byte)) func(byte) {
	prefix := at.PrefixOperatorScan + " "
	var (
		head     []byte
		matched  bool
		rejected bool
	)
	return func(b byte) {
		if b == '\r' || b == '\n' {
			head = head[:0]
			matched, rejected = false, false
			return
		}
		switch {
		case matched:
			sink(b)
		case rejected:
			// Skip to the end of the line
		default:
			head = append(head, b)
			if len(head) == len(prefix) {
				if string(head) == prefix {
					matched = true
				} else {
					rejected = true
				}
			}
		}
	}
}
